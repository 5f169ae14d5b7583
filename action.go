package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/clientdesk/messaging/model"
)

// Action names accepted at the message-action boundary.
const (
	ActionSendMessage          = "send_message"
	ActionUploadDocument       = "upload_document"
	ActionRequestDocument      = "request_document"
	ActionCreateInvoice        = "create_invoice"
	ActionUpdateDocumentStatus = "update_document_status"
)

// MessageAction is the closed set of actions accepted by the message-action
// endpoint, modeled as a tagged union instead of string-keyed dispatch with
// untyped payloads. Only SendMessageAction belongs to the messaging core;
// the rest are peripheral CRUD delegated to an ActionSink.
type MessageAction interface {
	// ActionName returns the wire tag for this action.
	ActionName() string

	// Validate checks the action payload.
	Validate() error

	isMessageAction()
}

// SendMessageAction sends a message between two participants.
type SendMessageAction struct {
	SenderID    int64             `json:"senderID"`
	RecipientID int64             `json:"recipientID"`
	Body        string            `json:"body"`
	MessageType model.MessageType `json:"messageType"`
}

// ActionName implements MessageAction.
func (a SendMessageAction) ActionName() string { return ActionSendMessage }

// Validate implements MessageAction.
func (a SendMessageAction) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SenderID, validation.Required),
		validation.Field(&a.RecipientID, validation.Required),
		validation.Field(&a.Body, validation.Required, validation.Length(1, 10000)),
	)
}

func (SendMessageAction) isMessageAction() {}

// UploadDocumentAction attaches an uploaded document to a conversation.
// Peripheral: handled by the ActionSink, not the messaging core.
type UploadDocumentAction struct {
	SenderID    int64  `json:"senderID"`
	RecipientID int64  `json:"recipientID"`
	DocumentURL string `json:"documentURL"`
	Title       string `json:"title"`
}

// ActionName implements MessageAction.
func (a UploadDocumentAction) ActionName() string { return ActionUploadDocument }

// Validate implements MessageAction.
func (a UploadDocumentAction) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SenderID, validation.Required),
		validation.Field(&a.RecipientID, validation.Required),
		validation.Field(&a.DocumentURL, validation.Required, is.URL),
		validation.Field(&a.Title, validation.Required, validation.Length(1, 255)),
	)
}

func (UploadDocumentAction) isMessageAction() {}

// RequestDocumentAction asks the counterparty to provide a document.
// Peripheral: handled by the ActionSink.
type RequestDocumentAction struct {
	SenderID    int64  `json:"senderID"`
	RecipientID int64  `json:"recipientID"`
	Description string `json:"description"`
}

// ActionName implements MessageAction.
func (a RequestDocumentAction) ActionName() string { return ActionRequestDocument }

// Validate implements MessageAction.
func (a RequestDocumentAction) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SenderID, validation.Required),
		validation.Field(&a.RecipientID, validation.Required),
		validation.Field(&a.Description, validation.Required, validation.Length(1, 1000)),
	)
}

func (RequestDocumentAction) isMessageAction() {}

// CreateInvoiceAction creates an invoice for a client.
// Peripheral: handled by the ActionSink.
type CreateInvoiceAction struct {
	ConsultantID int64  `json:"consultantID"`
	ClientID     int64  `json:"clientID"`
	AmountCents  int64  `json:"amountCents"`
	Description  string `json:"description"`
	DueDate      string `json:"dueDate"` // ISO date
}

// ActionName implements MessageAction.
func (a CreateInvoiceAction) ActionName() string { return ActionCreateInvoice }

// Validate implements MessageAction.
func (a CreateInvoiceAction) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ConsultantID, validation.Required),
		validation.Field(&a.ClientID, validation.Required),
		validation.Field(&a.AmountCents, validation.Required, validation.Min(1)),
		validation.Field(&a.DueDate, validation.Date("2006-01-02")),
	)
}

func (CreateInvoiceAction) isMessageAction() {}

// UpdateDocumentStatusAction updates the review status of a document.
// Peripheral: handled by the ActionSink.
type UpdateDocumentStatusAction struct {
	ActorID    int64  `json:"actorID"`
	DocumentID int64  `json:"documentID"`
	Status     string `json:"status"`
}

// ActionName implements MessageAction.
func (a UpdateDocumentStatusAction) ActionName() string { return ActionUpdateDocumentStatus }

// Validate implements MessageAction.
func (a UpdateDocumentStatusAction) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ActorID, validation.Required),
		validation.Field(&a.DocumentID, validation.Required),
		validation.Field(&a.Status, validation.Required, validation.In("pending", "approved", "rejected")),
	)
}

func (UpdateDocumentStatusAction) isMessageAction() {}

// DecodeAction parses a wire-level action tag plus JSON payload into the
// corresponding typed action. Unknown tags yield a VALIDATION_ERROR.
func DecodeAction(name string, payload json.RawMessage) (MessageAction, error) {
	var (
		action MessageAction
		err    error
	)

	switch name {
	case ActionSendMessage:
		var a SendMessageAction
		err = json.Unmarshal(payload, &a)
		action = a
	case ActionUploadDocument:
		var a UploadDocumentAction
		err = json.Unmarshal(payload, &a)
		action = a
	case ActionRequestDocument:
		var a RequestDocumentAction
		err = json.Unmarshal(payload, &a)
		action = a
	case ActionCreateInvoice:
		var a CreateInvoiceAction
		err = json.Unmarshal(payload, &a)
		action = a
	case ActionUpdateDocumentStatus:
		var a UpdateDocumentStatusAction
		err = json.Unmarshal(payload, &a)
		action = a
	default:
		return nil, NewError(ErrCodeValidation, fmt.Sprintf("unknown action: %s", name))
	}

	if err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, fmt.Sprintf("invalid payload for action %s", name), err)
	}
	return action, nil
}

// ActionSink receives the peripheral (non-messaging) actions from the
// message-action boundary. Implementations live with the document and
// invoicing subsystems.
type ActionSink interface {
	UploadDocument(ctx context.Context, action UploadDocumentAction) error
	RequestDocument(ctx context.Context, action RequestDocumentAction) error
	CreateInvoice(ctx context.Context, action CreateInvoiceAction) error
	UpdateDocumentStatus(ctx context.Context, action UpdateDocumentStatusAction) error
}

// NoopActionSink discards all peripheral actions. Use it when the document
// and invoicing subsystems are not wired in.
type NoopActionSink struct{}

// UploadDocument does nothing.
func (NoopActionSink) UploadDocument(_ context.Context, _ UploadDocumentAction) error { return nil }

// RequestDocument does nothing.
func (NoopActionSink) RequestDocument(_ context.Context, _ RequestDocumentAction) error { return nil }

// CreateInvoice does nothing.
func (NoopActionSink) CreateInvoice(_ context.Context, _ CreateInvoiceAction) error { return nil }

// UpdateDocumentStatus does nothing.
func (NoopActionSink) UpdateDocumentStatus(_ context.Context, _ UpdateDocumentStatusAction) error {
	return nil
}
