// Package server exposes the chat transport webhook over HTTP.
package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/segundavia/boleto_bot/internal/domain"
)

// Dispatcher is the inbound side of the message pipeline.
type Dispatcher interface {
	Handle(msg domain.InboundMessage)
}

type Config struct {
	ListenAddr  string
	VerifyToken string // webhook subscription handshake
	AppSecret   string // HMAC key for payload signatures
	RateLimit   rate.Limit
	RateBurst   int
}

type Server struct {
	echo       *echo.Echo
	dispatcher Dispatcher
	cfg        Config
	log        *slog.Logger
}

func New(cfg Config, dispatcher Dispatcher, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	if cfg.RateLimit > 0 {
		e.Use(NewIPRateLimiter(cfg.RateLimit, cfg.RateBurst).Middleware())
	}

	s := &Server{echo: e, dispatcher: dispatcher, cfg: cfg, log: log}

	e.GET("/health", s.health)
	e.GET("/webhook", s.verify)
	e.POST("/webhook", s.receive)
	return s
}

func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.cfg.ListenAddr)
	return s.echo.Start(s.cfg.ListenAddr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// verify answers the transport's subscription handshake.
func (s *Server) verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == s.cfg.VerifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.NoContent(http.StatusForbidden)
}

// webhookPayload mirrors the cloud API envelope down to the fields we
// consume.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (s *Server) receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if !s.validSignature(c.Request().Header.Get("X-Hub-Signature-256"), body) {
		s.log.Warn("webhook signature mismatch", "remote", c.RealIP())
		return c.NoContent(http.StatusUnauthorized)
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Warn("webhook payload undecodable", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.From == "" {
					continue
				}
				s.dispatcher.Handle(domain.InboundMessage{
					From:      m.From,
					Text:      m.Text.Body,
					RequestID: m.ID,
				})
			}
		}
	}

	// always 200 so the transport does not retry processed batches
	return c.NoContent(http.StatusOK)
}

func (s *Server) validSignature(header string, body []byte) bool {
	if s.cfg.AppSecret == "" {
		return true
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.AppSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}
