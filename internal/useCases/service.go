// Package useCases drives the conversation: the dispatcher serializes
// messages per user, the router picks the step or command, and the flow
// handlers mutate session state while talking to the bank aggregator
// and the transport collaborators.
package useCases

import (
	"context"
	"log/slog"
	"time"

	"github.com/segundavia/boleto_bot/internal/domain"
	"github.com/segundavia/boleto_bot/internal/kvstore"
	"github.com/segundavia/boleto_bot/internal/ports"
	"github.com/segundavia/boleto_bot/internal/session"
)

// Config carries the workflow knobs.
type Config struct {
	Pepper       string
	LookupLimit  int
	LookupWindow time.Duration
	SiteURL      string
	ContactText  string
}

// Service orchestrates the workflow steps.
type Service struct {
	log       *slog.Logger
	sessions  *session.Store
	limiter   *kvstore.RateLimiter
	bank      ports.BankGateway
	messenger ports.Messenger
	storage   ports.ObjectStorage
	audit     ports.AuditLog
	cfg       Config
}

func NewService(
	log *slog.Logger,
	sessions *session.Store,
	limiter *kvstore.RateLimiter,
	bank ports.BankGateway,
	messenger ports.Messenger,
	storage ports.ObjectStorage,
	audit ports.AuditLog,
	cfg Config,
) *Service {
	if cfg.LookupLimit <= 0 {
		cfg.LookupLimit = 5
	}
	if cfg.LookupWindow <= 0 {
		cfg.LookupWindow = 10 * time.Minute
	}
	return &Service{
		log:       log,
		sessions:  sessions,
		limiter:   limiter,
		bank:      bank,
		messenger: messenger,
		storage:   storage,
		audit:     audit,
		cfg:       cfg,
	}
}

// Process routes one inbound message. Invoked only through the
// dispatcher, so calls for the same user never interleave.
func (s *Service) Process(ctx context.Context, msg domain.InboundMessage) {
	// a few commands work regardless of conversation position: erasure
	// must be honored mid-flow, and "menu" is the universal escape hatch
	switch normalizeCommand(msg.Text) {
	case "apagar meus dados", "excluir meus dados", "lgpd":
		s.deleteData(ctx, msg)
		return
	case "menu", "cancelar":
		s.sessions.Clear(ctx, msg.From)
		s.reply(ctx, msg, msgMenu)
		return
	}

	if st, ok := s.sessions.Get(ctx, msg.From); ok && st.ActiveFlow == session.FlowDuplicate {
		switch st.Step {
		case session.StepWaitingIdentifier:
			s.handleIdentifier(ctx, msg, st)
		case session.StepWaitingSelection:
			s.handleSelection(ctx, msg, st)
		case session.StepWaitingFormat:
			s.handleFormat(ctx, msg, st)
		default:
			s.log.Warn("session in unknown step, resetting", "user", msg.From, "step", st.Step)
			s.sessions.Clear(ctx, msg.From)
			s.reply(ctx, msg, msgMenu)
		}
		return
	}

	switch normalizeCommand(msg.Text) {
	case "1", "2 via", "2a via", "segunda via", "segunda via de boleto", "boleto":
		s.startDuplicate(ctx, msg)
	case "2", "contato", "atendimento", "falar com atendimento":
		s.reply(ctx, msg, s.cfg.ContactText)
	case "3", "site", "acessar o site":
		s.reply(ctx, msg, msgSitePrefix+s.cfg.SiteURL)
	default:
		s.reply(ctx, msg, msgMenu)
	}
}

// reply sends a text answer; a transport failure is logged but does not
// change the session, the user can simply resend.
func (s *Service) reply(ctx context.Context, msg domain.InboundMessage, text string) {
	if err := s.messenger.SendText(ctx, msg.From, text, msg.RequestID); err != nil {
		s.log.Error("send text failed", "user", msg.From, "request_id", msg.RequestID, "error", err)
	}
}

// fail is the terminal error path: log the full error internally, clear
// the session so the user is not stuck mid-step, and answer with the
// generic try-again message.
func (s *Service) fail(ctx context.Context, msg domain.InboundMessage, err error) {
	s.log.Error("workflow failed", "user", msg.From, "request_id", msg.RequestID, "error", err)
	s.sessions.Clear(ctx, msg.From)
	s.reply(ctx, msg, msgGenericError)
}
