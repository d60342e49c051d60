// Package session stores per-user conversation state in the TTL
// key-value store. Every write refreshes the full TTL window, so an
// active conversation never decays mid-flow.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segundavia/boleto_bot/internal/domain"
	"github.com/segundavia/boleto_bot/internal/kvstore"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 15 * time.Minute

// Flow identifies the active conversation workflow.
type Flow string

const (
	FlowDuplicate Flow = "duplicate"
)

// Steps reachable from FlowDuplicate.
const (
	StepWaitingIdentifier = "waiting_identifier"
	StepWaitingSelection  = "waiting_selection"
	StepWaitingFormat     = "waiting_format"
)

// Data is the per-flow payload. It never holds a raw identifier: only
// the peppered hash and the masked display form.
type Data struct {
	IdentifierHash   string        `json:"identifier_hash,omitempty"`
	IdentifierMasked string        `json:"identifier_masked,omitempty"`
	Bills            []domain.Bill `json:"bills,omitempty"`
	Selected         int           `json:"selected"` // index into Bills, -1 when none
}

// State is one user's conversation position.
type State struct {
	ActiveFlow Flow      `json:"active_flow"`
	Step       string    `json:"step"`
	Data       Data      `json:"data"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store reads and writes State through the KV store.
type Store struct {
	kv  kvstore.Store
	ttl time.Duration
	log *slog.Logger
}

func NewStore(kv kvstore.Store, ttl time.Duration, log *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl, log: log}
}

func key(userID string) string { return "session:" + userID }

// Get returns the active state, or ok=false when none exists or it has
// expired. Decode failures count as absent; a stale schema must not
// strand the user.
func (s *Store) Get(ctx context.Context, userID string) (*State, bool) {
	raw, ok, err := s.kv.Get(ctx, key(userID))
	if err != nil || !ok {
		return nil, false
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Warn("discarding undecodable session state", "user", userID, "error", err)
		_ = s.kv.Delete(ctx, key(userID))
		return nil, false
	}
	return &st, true
}

// Set stores the state and resets the TTL to the full window.
func (s *Store) Set(ctx context.Context, userID string, st *State) error {
	st.UpdatedAt = time.Now()
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key(userID), raw, s.ttl)
}

// Clear removes the state. Clearing an absent session is not an error.
func (s *Store) Clear(ctx context.Context, userID string) {
	if err := s.kv.Delete(ctx, key(userID)); err != nil {
		s.log.Warn("session clear failed", "user", userID, "error", err)
	}
}
