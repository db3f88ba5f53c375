// Package proposal stages enrichment updates between propose and
// confirm/cancel. Entries are scoped to one chat session and evicted
// after a TTL.
package proposal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/balitek/villabot/internal/models"
)

var (
	// ErrProposalNotFound is returned for unknown, expired, or
	// already-consumed tokens.
	ErrProposalNotFound = errors.New("proposal not found or expired")
)

// Proposal is a staged, unconfirmed set of attribute updates for one
// record. Updates only ever contain attributes that were empty on the
// source record at enrichment time.
type Proposal struct {
	Token     string            `json:"token"`
	SessionID string            `json:"session_id"`
	Key       models.RecordKey  `json:"key"`
	Updates   map[string]string `json:"updates"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store maps (session, token) to a pending proposal. Remove is the only
// deletion path and is invoked exactly once per token, by confirm or
// cancel.
type Store interface {
	Put(ctx context.Context, p *Proposal) error
	Get(ctx context.Context, sessionID, token string) (*Proposal, error)
	Remove(ctx context.Context, sessionID, token string) error
}

// NewToken generates an opaque, unguessable proposal token. Tokens are
// never reused.
func NewToken() string {
	return "save_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}
