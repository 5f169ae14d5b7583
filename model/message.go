// Package model contains the domain models for the messaging and translation
// pipeline.
package model

import (
	"database/sql"
	"time"
)

// tablePrefix is prepended to all table names.
const tablePrefix = "msg_"

// TranslationStatus represents the lifecycle state of a message's translation.
type TranslationStatus string

const (
	// TranslationPending indicates the message awaits a translation attempt.
	TranslationPending TranslationStatus = "pending"

	// TranslationInProgress indicates an orchestrator has claimed the message
	// and a provider call is underway. The claim is a conditional update on
	// the store, so at most one worker holds it per message.
	TranslationInProgress TranslationStatus = "in_progress"

	// TranslationCompleted indicates the translation succeeded and the
	// translated body and language are populated. Terminal.
	TranslationCompleted TranslationStatus = "completed"

	// TranslationFailed indicates the provider call failed. Terminal unless
	// manually requeued.
	TranslationFailed TranslationStatus = "failed"

	// TranslationNotNeeded indicates sender and recipient share a language.
	// Terminal.
	TranslationNotNeeded TranslationStatus = "not_needed"
)

// IsTerminal reports whether the status permits no further transitions.
func (s TranslationStatus) IsTerminal() bool {
	switch s {
	case TranslationCompleted, TranslationFailed, TranslationNotNeeded:
		return true
	}
	return false
}

// MessageType is a routing/UI hint attached to a message. It has no effect on
// the translation pipeline beyond filtering.
type MessageType string

const (
	// TypeGeneral is an ordinary conversation message.
	TypeGeneral MessageType = "general"

	// TypeAccounting marks messages related to invoices and payment schedules.
	TypeAccounting MessageType = "accounting"

	// TypeAdminNotice marks announcements sent by administrators.
	TypeAdminNotice MessageType = "admin_notice"

	// TypeUrgent marks messages the UI should surface prominently.
	TypeUrgent MessageType = "urgent"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeGeneral, TypeAccounting, TypeAdminNotice, TypeUrgent:
		return true
	}
	return false
}

// Message represents a message exchanged between two participants, carrying
// the original text and, once the orchestrator has run, an optional
// translation.
//
// Messages follow this lifecycle:
//  1. Created with status=PENDING and needs_translation=true
//  2. An orchestrator claims the message (PENDING → IN_PROGRESS)
//  3. Same language on both sides → NOT_NEEDED
//     Provider success → COMPLETED, provider failure → FAILED
//  4. FAILED messages can be requeued manually (FAILED → PENDING)
//
// Body and OriginalLanguage are immutable once the message is persisted.
// Translation fields are mutated exclusively by the orchestrator; IsRead is
// mutated by recipient-side read actions. The two writers touch disjoint
// field sets, which is why all updates must be field-scoped.
//
// Business logic methods:
//   - MarkInProgress/MarkCompleted/MarkFailed/MarkNotNeeded: state transitions
//   - AwaitsTranslation: check whether the orchestrator should pick it up
//   - Requeue: reset a failed message for a manual retry
type Message struct {
	ID                 int64             `json:"id"`
	SenderID           int64             `json:"senderID" db:"sender_id"`
	RecipientID        int64             `json:"recipientID" db:"recipient_id"`
	Body               string            `json:"body" db:"body"`
	OriginalLanguage   string            `json:"originalLanguage" db:"original_language"`
	MessageType        MessageType       `json:"messageType" db:"message_type"`
	NeedsTranslation   bool              `json:"needsTranslation" db:"needs_translation"`
	TranslationStatus  TranslationStatus `json:"translationStatus" db:"translation_status"`
	TranslatedBody     sql.NullString    `json:"translatedBody" db:"translated_body"`
	TranslatedLanguage sql.NullString    `json:"translatedLanguage" db:"translated_language"`
	IsRead             bool              `json:"isRead" db:"is_read"`
	CreatedAt          time.Time         `json:"createdAt" db:"created_at"`
}

// TableName returns the database table name for Message.
func (m Message) TableName() string {
	return tablePrefix + "message"
}

// NewMessage creates a new message ready for persistence.
// Initial state: PENDING with needs_translation=true. The orchestrator, not
// the sender, decides whether translation is actually needed, because the
// recipient's language preference is not known/trusted at send time.
func NewMessage(senderID, recipientID int64, body, originalLanguage string, messageType MessageType) Message {
	return Message{
		ID:                0,
		SenderID:          senderID,
		RecipientID:       recipientID,
		Body:              body,
		OriginalLanguage:  originalLanguage,
		MessageType:       messageType,
		NeedsTranslation:  true,
		TranslationStatus: TranslationPending,
		IsRead:            false,
		CreatedAt:         time.Now(),
	}
}

// AwaitsTranslation reports whether the orchestrator should process this
// message: it must require translation and still be pending.
func (m *Message) AwaitsTranslation() bool {
	return m.NeedsTranslation && m.TranslationStatus == TranslationPending
}

// MarkInProgress transitions the message to IN_PROGRESS.
// Returns ErrNotPending unless the message is currently pending.
func (m *Message) MarkInProgress() error {
	if m.TranslationStatus != TranslationPending {
		return ErrNotPending
	}
	m.TranslationStatus = TranslationInProgress
	return nil
}

// MarkCompleted records a successful translation.
// Returns ErrAlreadyTerminal if the message already reached a terminal state.
func (m *Message) MarkCompleted(translatedBody, translatedLanguage string) error {
	if m.TranslationStatus.IsTerminal() {
		return ErrAlreadyTerminal
	}
	m.TranslatedBody = sql.NullString{String: translatedBody, Valid: true}
	m.TranslatedLanguage = sql.NullString{String: translatedLanguage, Valid: true}
	m.TranslationStatus = TranslationCompleted
	return nil
}

// MarkFailed records a failed translation attempt. The original body stays
// untouched; delivery of the original text already succeeded.
// Returns ErrAlreadyTerminal if the message already reached a terminal state.
func (m *Message) MarkFailed() error {
	if m.TranslationStatus.IsTerminal() {
		return ErrAlreadyTerminal
	}
	m.TranslationStatus = TranslationFailed
	return nil
}

// MarkNotNeeded records that sender and recipient share a language.
// Returns ErrAlreadyTerminal if the message already reached a terminal state.
func (m *Message) MarkNotNeeded() error {
	if m.TranslationStatus.IsTerminal() {
		return ErrAlreadyTerminal
	}
	m.TranslationStatus = TranslationNotNeeded
	return nil
}

// Requeue resets a failed message back to PENDING for a manual retry.
// Returns ErrNotFailed unless the message is currently failed.
func (m *Message) Requeue() error {
	if m.TranslationStatus != TranslationFailed {
		return ErrNotFailed
	}
	m.TranslationStatus = TranslationPending
	m.TranslatedBody = sql.NullString{}
	m.TranslatedLanguage = sql.NullString{}
	return nil
}

// HasTranslation reports whether a completed translation is available.
func (m *Message) HasTranslation() bool {
	return m.TranslationStatus == TranslationCompleted &&
		m.TranslatedBody.Valid && m.TranslatedLanguage.Valid
}

// Age returns how long ago the message was created.
func (m *Message) Age() time.Duration {
	return time.Since(m.CreatedAt)
}

// Domain errors returned by Message business logic methods.
var (
	// ErrNotPending indicates a claim was attempted on a non-pending message.
	ErrNotPending = DomainError{Code: "NOT_PENDING", Message: "Message is not pending translation"}

	// ErrAlreadyTerminal indicates the message already reached a terminal translation state.
	ErrAlreadyTerminal = DomainError{Code: "ALREADY_TERMINAL", Message: "Translation status is already terminal"}

	// ErrNotFailed indicates a requeue was attempted on a message that has not failed.
	ErrNotFailed = DomainError{Code: "NOT_FAILED", Message: "Only failed messages can be requeued"}
)

// DomainError represents a domain-level business rule violation.
type DomainError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
}

func (e DomainError) Error() string {
	return e.Message
}
