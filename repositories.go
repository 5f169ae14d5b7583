package messaging

import (
	"context"
	"time"

	"github.com/clientdesk/messaging/model"
)

// Filter represents query filtering options for recipient message listings.
// Used by MessageRepository.ListByRecipient to narrow results.
type Filter struct {
	MessageType model.MessageType // Filter by message type (empty = no filter)
	UnreadOnly  bool              // Only return unread messages
	Limit       int               // Maximum rows to return (0 = repository default)
}

// MessageRepository defines the persistence interface for messages.
//
// Translation updates and read-state updates MUST be field-scoped, never
// full-row writes: the orchestrator (translation fields) and read-receipt
// updates (is_read) run concurrently against the same rows, and last-writer-
// wins is only safe because the writers touch disjoint columns.
//
// Implementations must be safe for concurrent use.
type MessageRepository interface {
	// Insert persists a new message and populates its ID.
	// Fails with a DATABASE_ERROR on constraint violation or connectivity
	// failure.
	Insert(ctx context.Context, m *model.Message) (*model.Message, error)

	// Load retrieves a message by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Message, error)

	// ClaimPending atomically transitions a message from PENDING to
	// IN_PROGRESS. Returns false if the message was not pending (already
	// claimed, terminal, or missing) — the caller must then skip it. This
	// conditional update is what makes the at-most-once translation guarantee
	// durable across orchestrator instances.
	ClaimPending(ctx context.Context, id int64) (bool, error)

	// UpdateTranslation records a completed translation: translated body,
	// translated language, and status COMPLETED, in one field-scoped update.
	// Fails if id does not exist.
	UpdateTranslation(ctx context.Context, id int64, translatedBody, translatedLanguage string) error

	// UpdateTranslationStatus sets only the translation status. Used to mark
	// FAILED or NOT_NEEDED without touching body fields.
	// Fails if id does not exist.
	UpdateTranslationStatus(ctx context.Context, id int64, status model.TranslationStatus) error

	// RequeueFailed atomically transitions a message from FAILED back to
	// PENDING and clears its translation fields, for manual retries.
	// Returns false if the message was not in FAILED state.
	RequeueFailed(ctx context.Context, id int64) (bool, error)

	// ReleaseStuckClaims transitions IN_PROGRESS messages older than
	// olderThan back to PENDING and returns how many rows were released.
	// Recovers claims orphaned by a holder that crashed between ClaimPending
	// and its result write; the sweep calls this before scanning.
	ReleaseStuckClaims(ctx context.Context, olderThan time.Duration) (int64, error)

	// ListThread returns all messages exchanged between two participants, in
	// either direction, ordered by created_at DESC (newest first).
	ListThread(ctx context.Context, participantA, participantB int64, limit int) ([]model.Message, error)

	// ListByRecipient returns messages addressed to recipientID matching the
	// filter, ordered by created_at DESC.
	ListByRecipient(ctx context.Context, recipientID int64, filter Filter) ([]model.Message, error)

	// FindStalePending returns messages that still await translation and are
	// older than olderThan, ordered by created_at ASC. The orchestrator's
	// sweep uses this to pick up messages whose insert notification was
	// missed (e.g. sent while no worker was subscribed).
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]model.Message, error)

	// MarkRead sets is_read on a single message. Field-scoped so it never
	// races with translation updates.
	MarkRead(ctx context.Context, id int64) error
}

// UserRepository is the read surface of the user directory consumed by the
// pipeline. The directory itself (registration, preference editing) is an
// external collaborator.
type UserRepository interface {
	// Lookup retrieves a user by ID.
	// Returns ErrNoData if not found.
	Lookup(ctx context.Context, id int64) (model.User, error)
}
