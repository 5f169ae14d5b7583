package relica

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coregx/relica"

	"github.com/clientdesk/messaging"
	"github.com/clientdesk/messaging/model"
)

// defaultListLimit bounds listing queries when the caller passes no limit.
const defaultListLimit = 100

// MessageRepository implements messaging.MessageRepository using Relica.
type MessageRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewMessageRepository creates a new MessageRepository with default table prefix.
func NewMessageRepository(sqlDB *sql.DB, driverName string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: "msg_"}
}

// NewMessageRepositoryWithPrefix creates a new MessageRepository with custom table prefix.
func NewMessageRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *MessageRepository {
	return &MessageRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *MessageRepository) tableName() string {
	return r.tablePrefix + "message"
}

// Insert persists a new message and populates its ID.
func (r *MessageRepository) Insert(ctx context.Context, m *model.Message) (*model.Message, error) {
	err := r.db.WithContext(ctx).Model(m).Table(r.tableName()).Insert()
	if err != nil {
		return m, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to insert message", err)
	}
	// m.ID is auto-populated by Model().Insert()
	return m, nil
}

// Load retrieves a message by ID.
func (r *MessageRepository) Load(ctx context.Context, id int64) (model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return msg, messaging.ErrNoData
	}
	if err != nil {
		return msg, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to load message", err)
	}
	return msg, nil
}

// ClaimPending atomically transitions a message from PENDING to IN_PROGRESS.
// The WHERE clause doubles as the compare of a compare-and-swap: zero rows
// affected means another instance won the claim (or the message is terminal).
func (r *MessageRepository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"translation_status": model.TranslationInProgress,
		}).
		Where("id = ? AND translation_status = ?", id, model.TranslationPending).
		Execute()
	if err != nil {
		return false, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to claim message", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to read claim result", err)
	}
	return affected > 0, nil
}

// UpdateTranslation records a completed translation in one field-scoped
// update. The row's body, read state, and other columns stay untouched.
func (r *MessageRepository) UpdateTranslation(ctx context.Context, id int64, translatedBody, translatedLanguage string) error {
	result, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"translated_body":     translatedBody,
			"translated_language": translatedLanguage,
			"translation_status":  model.TranslationCompleted,
		}).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to update translation", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to read update result", err)
	}
	if affected == 0 {
		return messaging.ErrNoData
	}
	return nil
}

// UpdateTranslationStatus sets only the translation status.
func (r *MessageRepository) UpdateTranslationStatus(ctx context.Context, id int64, status model.TranslationStatus) error {
	result, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"translation_status": status,
		}).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to update translation status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to read update result", err)
	}
	if affected == 0 {
		return messaging.ErrNoData
	}
	return nil
}

// RequeueFailed atomically transitions a message from FAILED back to PENDING
// and clears its translation fields.
func (r *MessageRepository) RequeueFailed(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"translation_status":  model.TranslationPending,
			"translated_body":     nil,
			"translated_language": nil,
		}).
		Where("id = ? AND translation_status = ?", id, model.TranslationFailed).
		Execute()
	if err != nil {
		return false, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to requeue message", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to read requeue result", err)
	}
	return affected > 0, nil
}

// ReleaseStuckClaims transitions IN_PROGRESS messages older than olderThan
// back to PENDING. A claim that old belongs to a holder that crashed before
// writing its result; releasing it lets the sweep pick the message up again.
func (r *MessageRepository) ReleaseStuckClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"translation_status": model.TranslationPending,
		}).
		Where("translation_status = ? AND created_at <= ?", model.TranslationInProgress, cutoff).
		Execute()
	if err != nil {
		return 0, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to release stuck claims", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to read release result", err)
	}
	return affected, nil
}

// ListThread retrieves all messages between two participants, newest first.
func (r *MessageRepository) ListThread(ctx context.Context, participantA, participantB int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var msgs []model.Message
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			participantA, participantB, participantB, participantA).
		OrderBy("created_at DESC").
		Limit(int64(limit)).
		All(&msgs)
	if err != nil {
		return nil, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to list thread", err)
	}
	if len(msgs) == 0 {
		return nil, messaging.ErrNoData
	}
	return msgs, nil
}

// ListByRecipient retrieves messages addressed to a recipient, newest first.
func (r *MessageRepository) ListByRecipient(ctx context.Context, recipientID int64, filter messaging.Filter) ([]model.Message, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	cond := "recipient_id = ?"
	args := []interface{}{recipientID}
	if filter.MessageType != "" {
		cond += " AND message_type = ?"
		args = append(args, filter.MessageType)
	}
	if filter.UnreadOnly {
		cond += " AND is_read = ?"
		args = append(args, false)
	}

	var msgs []model.Message
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where(cond, args...).
		OrderBy("created_at DESC").
		Limit(int64(limit)).
		All(&msgs)
	if err != nil {
		return nil, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to list messages by recipient", err)
	}
	if len(msgs) == 0 {
		return nil, messaging.ErrNoData
	}
	return msgs, nil
}

// FindStalePending retrieves pending messages older than olderThan, oldest
// first, for the orchestrator's sweep.
func (r *MessageRepository) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	cutoff := time.Now().Add(-olderThan)

	var msgs []model.Message
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("needs_translation = ? AND translation_status = ? AND created_at <= ?",
			true, model.TranslationPending, cutoff).
		OrderBy("created_at ASC").
		Limit(int64(limit)).
		All(&msgs)
	if err != nil {
		return nil, messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to find stale pending messages", err)
	}
	if len(msgs) == 0 {
		return nil, messaging.ErrNoData
	}
	return msgs, nil
}

// MarkRead sets is_read on a single message. Field-scoped: never touches the
// translation columns, so it cannot clobber a concurrent orchestrator write.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"is_read": true,
		}).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return messaging.NewErrorWithCause(messaging.ErrCodeDatabase, "failed to mark message read", err)
	}
	return nil
}
