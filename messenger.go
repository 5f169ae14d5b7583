package messaging

import (
	"context"
	"fmt"

	"github.com/clientdesk/messaging/lang"
	"github.com/clientdesk/messaging/model"
)

// Messenger is the consumer-facing messaging façade used by the admin,
// consultant, and client dashboards: it sends messages, lists threads and
// inboxes, and renders messages for a viewer's language.
//
// Send returns as soon as the original message is durable — translation is
// asynchronous and a translation failure can never block delivery.
type Messenger struct {
	messages MessageRepository
	users    UserRepository
	feed     ChangeFeed
	sink     ActionSink
	logger   Logger
}

// MessengerOption configures a Messenger.
type MessengerOption func(*Messenger) error

// NewMessenger creates a new Messenger with the provided options.
//
// Required options:
//   - WithMessengerRepositories: message and user repositories
//   - WithMessengerLogger: logger instance
//
// Optional options:
//   - WithMessengerChangeFeed: change feed for insert notifications
//   - WithMessengerActionSink: handler for peripheral message actions
//     (default: NoopActionSink)
//
// Example:
//
//	messenger, err := messaging.NewMessenger(
//	    messaging.WithMessengerRepositories(messageRepo, userRepo),
//	    messaging.WithMessengerChangeFeed(feed),
//	    messaging.WithMessengerLogger(logger),
//	)
func NewMessenger(opts ...MessengerOption) (*Messenger, error) {
	m := &Messenger{
		sink: NoopActionSink{},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply messenger option", err)
		}
	}

	if m.messages == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRepository is required (use WithMessengerRepositories)")
	}
	if m.users == nil {
		return nil, NewError(ErrCodeConfiguration, "UserRepository is required (use WithMessengerRepositories)")
	}
	if m.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithMessengerLogger)")
	}

	return m, nil
}

// WithMessengerRepositories sets the required repository dependencies.
func WithMessengerRepositories(messageRepo MessageRepository, userRepo UserRepository) MessengerOption {
	return func(m *Messenger) error {
		if messageRepo == nil {
			return fmt.Errorf("messageRepo cannot be nil")
		}
		if userRepo == nil {
			return fmt.Errorf("userRepo cannot be nil")
		}

		m.messages = messageRepo
		m.users = userRepo
		return nil
	}
}

// WithMessengerChangeFeed sets the change feed that receives insert events.
func WithMessengerChangeFeed(feed ChangeFeed) MessengerOption {
	return func(m *Messenger) error {
		if feed == nil {
			return fmt.Errorf("feed cannot be nil")
		}
		m.feed = feed
		return nil
	}
}

// WithMessengerActionSink sets the handler for peripheral message actions.
func WithMessengerActionSink(sink ActionSink) MessengerOption {
	return func(m *Messenger) error {
		if sink == nil {
			return fmt.Errorf("sink cannot be nil")
		}
		m.sink = sink
		return nil
	}
}

// WithMessengerLogger sets the logger instance.
func WithMessengerLogger(logger Logger) MessengerOption {
	return func(m *Messenger) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		m.logger = logger
		return nil
	}
}

// SendRequest represents a request to send a message.
type SendRequest struct {
	SenderID    int64             // Sending participant (required, must exist)
	RecipientID int64             // Receiving participant (required, must exist)
	Body        string            // Message text (required)
	MessageType model.MessageType // Routing/UI hint (default: general)
}

// Send persists a new message and returns it immediately, without waiting
// for translation.
//
// The process:
//  1. Validate the request and verify the recipient exists
//  2. Detect the original language from the body
//  3. Insert with needs_translation=true, status=pending
//  4. Publish an insert event for the orchestrator and open thread views
//
// A store failure is returned to the caller — the sender must know their
// message did not go through. A feed publish failure after a durable insert
// is only logged: the message is safe and the sweep will translate it.
func (m *Messenger) Send(ctx context.Context, req SendRequest) (*model.Message, error) {
	if req.SenderID == 0 {
		return nil, NewError(ErrCodeValidation, "sender ID is required")
	}
	if req.RecipientID == 0 {
		return nil, NewError(ErrCodeValidation, "recipient ID is required")
	}
	if req.Body == "" {
		return nil, NewError(ErrCodeValidation, "body is required")
	}
	messageType := req.MessageType
	if messageType == "" {
		messageType = model.TypeGeneral
	}
	if !messageType.Valid() {
		return nil, NewError(ErrCodeValidation, fmt.Sprintf("unknown message type: %s", messageType))
	}

	// The recipient must exist; their language preference is deliberately
	// NOT read here — the orchestrator resolves it at translation time.
	if _, err := m.users.Lookup(ctx, req.RecipientID); err != nil {
		if IsNoData(err) {
			return nil, NewErrorWithCause(ErrCodeValidation, fmt.Sprintf("recipient not found: %d", req.RecipientID), err)
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to look up recipient", err)
	}

	originalLanguage := lang.Detect(req.Body)
	message := model.NewMessage(req.SenderID, req.RecipientID, req.Body, originalLanguage, messageType)

	saved, err := m.messages.Insert(ctx, &message)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to save message", err)
	}

	m.logger.Infof("Message sent: id=%d, sender=%d, recipient=%d, lang=%s, type=%s",
		saved.ID, saved.SenderID, saved.RecipientID, saved.OriginalLanguage, saved.MessageType)

	if m.feed != nil {
		if err := m.feed.Publish(ctx, ChangeEvent{Type: EventInsert, Message: *saved}); err != nil {
			m.logger.Warnf("Failed to publish insert event for message %d: %v", saved.ID, err)
		}
	}

	return saved, nil
}

// ListThread returns all messages between two participants, in either
// direction, newest first.
func (m *Messenger) ListThread(ctx context.Context, participantA, participantB int64, limit int) ([]model.Message, error) {
	if participantA == 0 || participantB == 0 {
		return nil, NewError(ErrCodeValidation, "both participant IDs are required")
	}

	thread, err := m.messages.ListThread(ctx, participantA, participantB, limit)
	if err != nil {
		if IsNoData(err) {
			return []model.Message{}, nil
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load thread", err)
	}
	return thread, nil
}

// ListByRecipient returns messages addressed to a recipient, newest first,
// optionally filtered by type and read state.
func (m *Messenger) ListByRecipient(ctx context.Context, recipientID int64, filter Filter) ([]model.Message, error) {
	if recipientID == 0 {
		return nil, NewError(ErrCodeValidation, "recipient ID is required")
	}

	msgs, err := m.messages.ListByRecipient(ctx, recipientID, filter)
	if err != nil {
		if IsNoData(err) {
			return []model.Message{}, nil
		}
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to load messages", err)
	}
	return msgs, nil
}

// MarkRead marks a single message as read.
func (m *Messenger) MarkRead(ctx context.Context, messageID int64) error {
	if messageID == 0 {
		return NewError(ErrCodeValidation, "message ID is required")
	}
	if err := m.messages.MarkRead(ctx, messageID); err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "failed to mark message read", err)
	}
	return nil
}

// Do dispatches a message action. SendMessageAction is handled by the
// messaging core; all other actions are validated and handed to the
// ActionSink. The returned message is non-nil only for send_message.
func (m *Messenger) Do(ctx context.Context, action MessageAction) (*model.Message, error) {
	if action == nil {
		return nil, NewError(ErrCodeValidation, "action is required")
	}
	if err := action.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, fmt.Sprintf("invalid %s action", action.ActionName()), err)
	}

	switch a := action.(type) {
	case SendMessageAction:
		return m.Send(ctx, SendRequest{
			SenderID:    a.SenderID,
			RecipientID: a.RecipientID,
			Body:        a.Body,
			MessageType: a.MessageType,
		})
	case UploadDocumentAction:
		return nil, m.sink.UploadDocument(ctx, a)
	case RequestDocumentAction:
		return nil, m.sink.RequestDocument(ctx, a)
	case CreateInvoiceAction:
		return nil, m.sink.CreateInvoice(ctx, a)
	case UpdateDocumentStatusAction:
		return nil, m.sink.UpdateDocumentStatus(ctx, a)
	default:
		return nil, NewError(ErrCodeValidation, fmt.Sprintf("unhandled action: %s", action.ActionName()))
	}
}

// RenderedMessage is a message prepared for display to a specific viewer.
type RenderedMessage struct {
	DisplayText      string `json:"displayText"`
	DisplayLanguage  string `json:"displayLanguage"`
	LanguageName     string `json:"languageName"`
	LanguageFlag     string `json:"languageFlag"`
	IsTranslatedView bool   `json:"isTranslatedView"`
	CanToggle        bool   `json:"canToggle"`
}

// RenderMessage prepares a message for display in viewerLanguage.
//
// When a completed translation into the viewer's language exists and the
// original is in a different language, the translated text is shown by
// default and showOriginal toggles back to the original. In every other case
// (pending, failed, not needed, or language mismatch) the original text is
// shown with no toggle — translation is best-effort enhancement, never a
// delivery guarantee.
func RenderMessage(m model.Message, viewerLanguage string, showOriginal bool) RenderedMessage {
	translatedView := m.HasTranslation() &&
		m.TranslatedLanguage.String == viewerLanguage &&
		m.OriginalLanguage != viewerLanguage

	if !translatedView || showOriginal {
		return RenderedMessage{
			DisplayText:      m.Body,
			DisplayLanguage:  m.OriginalLanguage,
			LanguageName:     lang.DisplayName(m.OriginalLanguage),
			LanguageFlag:     lang.FlagGlyph(m.OriginalLanguage),
			IsTranslatedView: false,
			CanToggle:        translatedView,
		}
	}

	return RenderedMessage{
		DisplayText:      m.TranslatedBody.String,
		DisplayLanguage:  m.TranslatedLanguage.String,
		LanguageName:     lang.DisplayName(m.TranslatedLanguage.String),
		LanguageFlag:     lang.FlagGlyph(m.TranslatedLanguage.String),
		IsTranslatedView: true,
		CanToggle:        true,
	}
}
