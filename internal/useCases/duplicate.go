package useCases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/segundavia/boleto_bot/internal/domain"
	"github.com/segundavia/boleto_bot/internal/session"
)

func (s *Service) startDuplicate(ctx context.Context, msg domain.InboundMessage) {
	st := &session.State{
		ActiveFlow: session.FlowDuplicate,
		Step:       session.StepWaitingIdentifier,
		Data:       session.Data{Selected: -1},
	}
	if err := s.sessions.Set(ctx, msg.From, st); err != nil {
		s.fail(ctx, msg, fmt.Errorf("open session: %w", err))
		return
	}
	s.reply(ctx, msg, msgAskIdentifier)
}

func (s *Service) handleIdentifier(ctx context.Context, msg domain.InboundMessage, st *session.State) {
	id, err := domain.ParseIdentifier(msg.Text)
	if err != nil {
		// bad input is recovered locally: re-prompt, stay in the step
		s.reply(ctx, msg, msgInvalidIdentifier)
		return
	}

	hash := id.Hash(s.cfg.Pepper)
	masked := id.Mask()

	res := s.limiter.Hit(ctx, "lookup:"+msg.From, s.cfg.LookupLimit, s.cfg.LookupWindow)
	if !res.Allowed {
		s.audit.AppendEvent(ctx, "lookup_rate_limited", map[string]string{
			"identifier_hash": hash,
			"request_id":      msg.RequestID,
		})
		s.sessions.Clear(ctx, msg.From)
		s.reply(ctx, msg, msgRateLimited)
		return
	}

	bills, err := s.bank.FindOpenBills(ctx, id)
	if err != nil {
		s.audit.AppendEvent(ctx, "lookup_failed", map[string]string{
			"identifier_hash": hash,
			"request_id":      msg.RequestID,
		})
		s.fail(ctx, msg, fmt.Errorf("find open bills: %w", err))
		return
	}

	s.audit.AppendEvent(ctx, "bills_lookup", map[string]string{
		"identifier_hash": hash,
		"request_id":      msg.RequestID,
		"count":           strconv.Itoa(len(bills)),
	})

	if len(bills) == 0 {
		s.sessions.Clear(ctx, msg.From)
		s.reply(ctx, msg, msgNoBills(masked))
		return
	}

	st.Data = session.Data{
		IdentifierHash:   hash,
		IdentifierMasked: masked,
		Bills:            bills,
		Selected:         -1,
	}

	// a single result short-circuits straight to format selection
	if len(bills) == 1 {
		st.Data.Selected = 0
		st.Step = session.StepWaitingFormat
		if err := s.sessions.Set(ctx, msg.From, st); err != nil {
			s.fail(ctx, msg, fmt.Errorf("advance session: %w", err))
			return
		}
		s.reply(ctx, msg, billSummaryText(bills[0]))
		return
	}

	st.Step = session.StepWaitingSelection
	if err := s.sessions.Set(ctx, msg.From, st); err != nil {
		s.fail(ctx, msg, fmt.Errorf("advance session: %w", err))
		return
	}
	s.reply(ctx, msg, billListText(bills))
}

func (s *Service) handleSelection(ctx context.Context, msg domain.InboundMessage, st *session.State) {
	n, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || n < 1 || n > len(st.Data.Bills) {
		s.reply(ctx, msg, "Opção inválida.\n\n"+billListText(st.Data.Bills))
		return
	}

	st.Data.Selected = n - 1
	st.Step = session.StepWaitingFormat
	if err := s.sessions.Set(ctx, msg.From, st); err != nil {
		s.fail(ctx, msg, fmt.Errorf("advance session: %w", err))
		return
	}
	s.reply(ctx, msg, msgFormatMenu)
}

func (s *Service) handleFormat(ctx context.Context, msg domain.InboundMessage, st *session.State) {
	if st.Data.Selected < 0 || st.Data.Selected >= len(st.Data.Bills) {
		s.fail(ctx, msg, fmt.Errorf("format step without a selected bill"))
		return
	}

	switch normalizeCommand(msg.Text) {
	case "0", "voltar":
		s.stepBack(ctx, msg, st)
	case "1", "pdf", "boleto em pdf":
		s.sendPDF(ctx, msg, st)
	case "2", "codigo de barras":
		s.sendPaymentData(ctx, msg, st, formatBarcode)
	case "3", "linha digitavel":
		s.sendPaymentData(ctx, msg, st, formatDigitLine)
	default:
		s.reply(ctx, msg, msgInvalidFormat)
	}
}

// stepBack returns to the selection list without refetching; the bill
// list survives in the session data.
func (s *Service) stepBack(ctx context.Context, msg domain.InboundMessage, st *session.State) {
	if len(st.Data.Bills) <= 1 {
		// nothing to go back to with a single result
		s.reply(ctx, msg, msgFormatMenu)
		return
	}
	st.Data.Selected = -1
	st.Step = session.StepWaitingSelection
	if err := s.sessions.Set(ctx, msg.From, st); err != nil {
		s.fail(ctx, msg, fmt.Errorf("step back: %w", err))
		return
	}
	s.reply(ctx, msg, billListText(st.Data.Bills))
}

// sendPDF is a terminal path: whatever happens, the session ends here.
func (s *Service) sendPDF(ctx context.Context, msg domain.InboundMessage, st *session.State) {
	defer s.sessions.Clear(ctx, msg.From)

	bill := st.Data.Bills[st.Data.Selected]
	data, ok, err := s.bank.FetchDuplicatePDF(ctx, bill)
	if err != nil {
		s.log.Error("pdf fetch failed", "user", msg.From, "our_number", bill.OurNumber, "error", err)
		s.reply(ctx, msg, msgGenericError)
		return
	}
	if !ok {
		s.audit.AppendEvent(ctx, "pdf_unavailable", map[string]string{
			"identifier_hash": st.Data.IdentifierHash,
			"our_number":      bill.OurNumber,
			"request_id":      msg.RequestID,
		})
		s.reply(ctx, msg, msgPDFUnavailable)
		return
	}

	filename := "boleto-" + bill.OurNumber + ".pdf"

	// the stored copy is best-effort, the user still gets the document
	if fileID, err := s.storage.Save(ctx, data, filename); err != nil {
		s.log.Warn("document store failed", "filename", filename, "error", err)
	} else {
		s.audit.AppendEvent(ctx, "document_stored", map[string]string{
			"identifier_hash": st.Data.IdentifierHash,
			"file_id":         fileID,
			"request_id":      msg.RequestID,
		})
	}

	mediaID, err := s.messenger.UploadMedia(ctx, data, "application/pdf", filename, msg.RequestID)
	if err != nil {
		s.log.Error("media upload failed", "user", msg.From, "error", err)
		s.reply(ctx, msg, msgGenericError)
		return
	}
	caption := fmt.Sprintf("Segunda via do boleto %s", bill.OurNumber)
	if err := s.messenger.SendDocument(ctx, msg.From, mediaID, filename, caption, msg.RequestID); err != nil {
		s.log.Error("send document failed", "user", msg.From, "error", err)
		s.reply(ctx, msg, msgGenericError)
		return
	}

	s.audit.AppendEvent(ctx, "duplicate_sent", map[string]string{
		"identifier_hash": st.Data.IdentifierHash,
		"our_number":      bill.OurNumber,
		"format":          "pdf",
		"request_id":      msg.RequestID,
	})
}

type paymentFormat int

const (
	formatBarcode paymentFormat = iota
	formatDigitLine
)

// sendPaymentData is the terminal path for the textual formats.
func (s *Service) sendPaymentData(ctx context.Context, msg domain.InboundMessage, st *session.State, format paymentFormat) {
	defer s.sessions.Clear(ctx, msg.From)

	bill := st.Data.Bills[st.Data.Selected]
	dup, ok, err := s.bank.FetchDuplicateData(ctx, bill)
	if err != nil {
		s.log.Error("payment data fetch failed", "user", msg.From, "our_number", bill.OurNumber, "error", err)
		s.reply(ctx, msg, msgGenericError)
		return
	}
	if !ok {
		s.reply(ctx, msg, msgDataUnavailable)
		return
	}

	var label, value, name string
	if format == formatBarcode {
		label, value, name = "Código de barras", dup.Barcode, "barcode"
	} else {
		label, value, name = "Linha digitável", dup.DigitLine, "digit_line"
	}
	if value == "" {
		s.reply(ctx, msg, msgDataUnavailable)
		return
	}

	s.reply(ctx, msg, duplicateDataText(label, value, dup))
	s.audit.AppendEvent(ctx, "duplicate_sent", map[string]string{
		"identifier_hash": st.Data.IdentifierHash,
		"our_number":      bill.OurNumber,
		"format":          name,
		"request_id":      msg.RequestID,
	})
}

// deleteData honors an erasure request: the session (the only place a
// hashed identifier lives) is dropped immediately.
func (s *Service) deleteData(ctx context.Context, msg domain.InboundMessage) {
	s.sessions.Clear(ctx, msg.From)
	s.audit.AppendEvent(ctx, "data_erasure", map[string]string{
		"request_id": msg.RequestID,
	})
	s.reply(ctx, msg, msgDataDeleted)
}
