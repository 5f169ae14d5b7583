package messaging

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/messaging/model"
)

func newTestMessenger(t *testing.T, msgs *memMessageRepo, users *memUserRepo, opts ...MessengerOption) *Messenger {
	t.Helper()
	base := []MessengerOption{
		WithMessengerRepositories(msgs, users),
		WithMessengerLogger(&NoopLogger{}),
	}
	m, err := NewMessenger(append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNewMessenger_RequiresDependencies(t *testing.T) {
	msgs := newMemMessageRepo()
	users := newMemUserRepo()

	tests := []struct {
		name string
		opts []MessengerOption
	}{
		{name: "missing repositories", opts: []MessengerOption{WithMessengerLogger(&NoopLogger{})}},
		{name: "missing logger", opts: []MessengerOption{WithMessengerRepositories(msgs, users)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMessenger(tt.opts...)
			assert.Error(t, err)
			assert.Nil(t, m)
		})
	}
}

func TestMessenger_Send(t *testing.T) {
	msgs := newMemMessageRepo()
	users := newMemUserRepo(
		model.User{ID: 1, Language: "tr"},
		model.User{ID: 2, Language: "en"},
	)
	feed := NewMemoryChangeFeed(nil)
	m := newTestMessenger(t, msgs, users, WithMessengerChangeFeed(feed))

	events, cancel := feed.Subscribe(2)
	defer cancel()

	sent, err := m.Send(context.Background(), SendRequest{
		SenderID:    1,
		RecipientID: 2,
		Body:        "Merhaba, nasılsınız?",
	})
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.NotZero(t, sent.ID)
	assert.Equal(t, "tr", sent.OriginalLanguage, "language is detected from the body")
	assert.Equal(t, model.TypeGeneral, sent.MessageType, "type defaults to general")
	assert.Equal(t, model.TranslationPending, sent.TranslationStatus)
	assert.True(t, sent.NeedsTranslation)
	assert.False(t, sent.IsRead)

	// The insert event carries the full message for the orchestrator.
	select {
	case event := <-events:
		assert.Equal(t, EventInsert, event.Type)
		assert.Equal(t, sent.ID, event.Message.ID)
	default:
		t.Fatal("expected an insert event on the change feed")
	}
}

func TestMessenger_SendValidation(t *testing.T) {
	msgs := newMemMessageRepo()
	users := newMemUserRepo(model.User{ID: 2, Language: "en"})
	m := newTestMessenger(t, msgs, users)

	tests := []struct {
		name string
		req  SendRequest
	}{
		{name: "missing sender", req: SendRequest{RecipientID: 2, Body: "hi"}},
		{name: "missing recipient", req: SendRequest{SenderID: 1, Body: "hi"}},
		{name: "empty body", req: SendRequest{SenderID: 1, RecipientID: 2}},
		{name: "unknown type", req: SendRequest{SenderID: 1, RecipientID: 2, Body: "hi", MessageType: "bogus"}},
		{name: "recipient not found", req: SendRequest{SenderID: 1, RecipientID: 99, Body: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent, err := m.Send(context.Background(), tt.req)
			assert.Nil(t, sent)

			var msgErr *Error
			require.ErrorAs(t, err, &msgErr)
			assert.Equal(t, ErrCodeValidation, msgErr.Code)
		})
	}
}

func TestMessenger_SendStoreFailureIsSurfaced(t *testing.T) {
	msgs := newMemMessageRepo()
	msgs.insertErr = NewError(ErrCodeDatabase, "disk full")
	users := newMemUserRepo(model.User{ID: 2, Language: "en"})
	m := newTestMessenger(t, msgs, users)

	sent, err := m.Send(context.Background(), SendRequest{SenderID: 1, RecipientID: 2, Body: "hi"})
	assert.Nil(t, sent)

	var msgErr *Error
	require.ErrorAs(t, err, &msgErr)
	assert.Equal(t, ErrCodeDatabase, msgErr.Code)
}

func TestMessenger_SendWithoutFeedStillDurable(t *testing.T) {
	msgs := newMemMessageRepo()
	users := newMemUserRepo(model.User{ID: 2, Language: "en"})
	m := newTestMessenger(t, msgs, users)

	sent, err := m.Send(context.Background(), SendRequest{SenderID: 1, RecipientID: 2, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, model.TranslationPending, msgs.get(sent.ID).TranslationStatus)
}

func TestMessenger_ListThreadNewestFirst(t *testing.T) {
	msgs := newMemMessageRepo()
	users := newMemUserRepo()
	m := newTestMessenger(t, msgs, users)

	now := time.Now()
	for i, spec := range []struct {
		sender, recipient int64
		body              string
	}{
		{1, 2, "first"},
		{2, 1, "second"},
		{1, 2, "third"},
		{1, 3, "other thread"},
	} {
		msg := model.NewMessage(spec.sender, spec.recipient, spec.body, "en", model.TypeGeneral)
		msg.CreatedAt = now.Add(time.Duration(i) * time.Second)
		msgs.put(msg)
	}

	thread, err := m.ListThread(context.Background(), 1, 2, 0)
	require.NoError(t, err)
	require.Len(t, thread, 3, "both directions belong to the thread, other pairs do not")

	assert.Equal(t, "third", thread[0].Body)
	assert.Equal(t, "second", thread[1].Body)
	assert.Equal(t, "first", thread[2].Body)
}

func TestMessenger_ListThreadEmpty(t *testing.T) {
	m := newTestMessenger(t, newMemMessageRepo(), newMemUserRepo())

	thread, err := m.ListThread(context.Background(), 1, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, thread, "an empty thread is not an error")
}

func TestMessenger_ListByRecipientFilters(t *testing.T) {
	msgs := newMemMessageRepo()
	m := newTestMessenger(t, msgs, newMemUserRepo())

	urgent := model.NewMessage(1, 2, "urgent one", "en", model.TypeUrgent)
	msgs.put(urgent)
	read := model.NewMessage(1, 2, "already read", "en", model.TypeGeneral)
	read.IsRead = true
	msgs.put(read)
	msgs.put(model.NewMessage(3, 2, "general one", "en", model.TypeGeneral))
	msgs.put(model.NewMessage(1, 9, "someone else", "en", model.TypeGeneral))

	all, err := m.ListByRecipient(context.Background(), 2, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	urgentOnly, err := m.ListByRecipient(context.Background(), 2, Filter{MessageType: model.TypeUrgent})
	require.NoError(t, err)
	require.Len(t, urgentOnly, 1)
	assert.Equal(t, "urgent one", urgentOnly[0].Body)

	unread, err := m.ListByRecipient(context.Background(), 2, Filter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 2)
}

func TestMessenger_MarkRead(t *testing.T) {
	msgs := newMemMessageRepo()
	m := newTestMessenger(t, msgs, newMemUserRepo())

	stored := msgs.put(model.NewMessage(1, 2, "hi", "en", model.TypeGeneral))
	require.False(t, msgs.get(stored.ID).IsRead)

	require.NoError(t, m.MarkRead(context.Background(), stored.ID))
	assert.True(t, msgs.get(stored.ID).IsRead)

	// Translation state is untouched by the read-state write.
	assert.Equal(t, model.TranslationPending, msgs.get(stored.ID).TranslationStatus)
}

func TestRenderMessage(t *testing.T) {
	translated := model.NewMessage(1, 2, "Merhaba", "tr", model.TypeGeneral)
	require.NoError(t, translated.MarkCompleted("Hello", "en"))

	pending := model.NewMessage(1, 2, "Merhaba", "tr", model.TypeGeneral)

	failed := model.NewMessage(1, 2, "Merhaba", "tr", model.TypeGeneral)
	require.NoError(t, failed.MarkFailed())

	tests := []struct {
		name           string
		message        model.Message
		viewerLanguage string
		showOriginal   bool
		wantText       string
		wantLanguage   string
		wantTranslated bool
		wantCanToggle  bool
	}{
		{
			name:           "translated view by default",
			message:        translated,
			viewerLanguage: "en",
			wantText:       "Hello",
			wantLanguage:   "en",
			wantTranslated: true,
			wantCanToggle:  true,
		},
		{
			name:           "toggle back to original",
			message:        translated,
			viewerLanguage: "en",
			showOriginal:   true,
			wantText:       "Merhaba",
			wantLanguage:   "tr",
			wantTranslated: false,
			wantCanToggle:  true,
		},
		{
			name:           "viewer language mismatch shows original",
			message:        translated,
			viewerLanguage: "de",
			wantText:       "Merhaba",
			wantLanguage:   "tr",
			wantTranslated: false,
			wantCanToggle:  false,
		},
		{
			name:           "pending shows original without toggle",
			message:        pending,
			viewerLanguage: "en",
			wantText:       "Merhaba",
			wantLanguage:   "tr",
			wantTranslated: false,
			wantCanToggle:  false,
		},
		{
			name:           "failed shows original without toggle",
			message:        failed,
			viewerLanguage: "en",
			wantText:       "Merhaba",
			wantLanguage:   "tr",
			wantTranslated: false,
			wantCanToggle:  false,
		},
		{
			name: "same-language original without toggle",
			message: func() model.Message {
				m := model.NewMessage(1, 2, "Hello", "en", model.TypeGeneral)
				require.NoError(t, m.MarkNotNeeded())
				return m
			}(),
			viewerLanguage: "en",
			wantText:       "Hello",
			wantLanguage:   "en",
			wantTranslated: false,
			wantCanToggle:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered := RenderMessage(tt.message, tt.viewerLanguage, tt.showOriginal)
			assert.Equal(t, tt.wantText, rendered.DisplayText)
			assert.Equal(t, tt.wantLanguage, rendered.DisplayLanguage)
			assert.Equal(t, tt.wantTranslated, rendered.IsTranslatedView)
			assert.Equal(t, tt.wantCanToggle, rendered.CanToggle)
			assert.NotEmpty(t, rendered.LanguageName)
			assert.NotEmpty(t, rendered.LanguageFlag)
		})
	}
}

func TestRenderMessage_ToggleRoundTrip(t *testing.T) {
	m := model.NewMessage(1, 2, "Merhaba", "tr", model.TypeGeneral)
	require.NoError(t, m.MarkCompleted("Hello", "en"))

	translated := RenderMessage(m, "en", false)
	original := RenderMessage(m, "en", true)
	back := RenderMessage(m, "en", false)

	assert.Equal(t, "Hello", translated.DisplayText)
	assert.Equal(t, "Merhaba", original.DisplayText)
	assert.Equal(t, translated, back, "toggling twice returns to the same view")
}

func TestRenderMessage_IncompleteTranslationColumns(t *testing.T) {
	// A row whose status says completed but whose columns are missing must
	// not render an empty body.
	m := model.NewMessage(1, 2, "Merhaba", "tr", model.TypeGeneral)
	m.TranslationStatus = model.TranslationCompleted
	m.TranslatedBody = sql.NullString{}
	m.TranslatedLanguage = sql.NullString{String: "en", Valid: true}

	rendered := RenderMessage(m, "en", false)
	assert.Equal(t, "Merhaba", rendered.DisplayText)
	assert.False(t, rendered.IsTranslatedView)
}
