package messaging

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clientdesk/messaging/model"
)

// memMessageRepo is an in-memory MessageRepository for tests. It mirrors the
// SQL adapter's semantics, including the conditional claim and requeue
// updates and ErrNoData on empty results.
type memMessageRepo struct {
	mu     sync.Mutex
	msgs   map[int64]model.Message
	nextID int64

	// Failure injection
	insertErr            error
	loadErr              error
	claimErr             error
	updateStatusErr      error
	updateTranslationErr error

	claimCalls int
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{msgs: make(map[int64]model.Message), nextID: 1}
}

func (r *memMessageRepo) Insert(_ context.Context, m *model.Message) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	m.ID = r.nextID
	r.nextID++
	r.msgs[m.ID] = *m
	return m, nil
}

func (r *memMessageRepo) Load(_ context.Context, id int64) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return model.Message{}, r.loadErr
	}
	m, ok := r.msgs[id]
	if !ok {
		return model.Message{}, ErrNoData
	}
	return m, nil
}

func (r *memMessageRepo) ClaimPending(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimCalls++
	if r.claimErr != nil {
		return false, r.claimErr
	}
	m, ok := r.msgs[id]
	if !ok || m.TranslationStatus != model.TranslationPending {
		return false, nil
	}
	m.TranslationStatus = model.TranslationInProgress
	r.msgs[id] = m
	return true, nil
}

func (r *memMessageRepo) UpdateTranslation(_ context.Context, id int64, translatedBody, translatedLanguage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateTranslationErr != nil {
		return r.updateTranslationErr
	}
	m, ok := r.msgs[id]
	if !ok {
		return ErrNoData
	}
	_ = m.MarkCompleted(translatedBody, translatedLanguage)
	r.msgs[id] = m
	return nil
}

func (r *memMessageRepo) UpdateTranslationStatus(_ context.Context, id int64, status model.TranslationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	m, ok := r.msgs[id]
	if !ok {
		return ErrNoData
	}
	m.TranslationStatus = status
	r.msgs[id] = m
	return nil
}

func (r *memMessageRepo) RequeueFailed(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok || m.TranslationStatus != model.TranslationFailed {
		return false, nil
	}
	m.TranslationStatus = model.TranslationPending
	m.TranslatedBody.Valid = false
	m.TranslatedBody.String = ""
	m.TranslatedLanguage.Valid = false
	m.TranslatedLanguage.String = ""
	r.msgs[id] = m
	return true, nil
}

func (r *memMessageRepo) ReleaseStuckClaims(_ context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var released int64
	for id, m := range r.msgs {
		if m.TranslationStatus == model.TranslationInProgress && !m.CreatedAt.After(cutoff) {
			m.TranslationStatus = model.TranslationPending
			r.msgs[id] = m
			released++
		}
	}
	return released, nil
}

func (r *memMessageRepo) ListThread(_ context.Context, participantA, participantB int64, limit int) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.msgs {
		if (m.SenderID == participantA && m.RecipientID == participantB) ||
			(m.SenderID == participantB && m.RecipientID == participantA) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) ListByRecipient(_ context.Context, recipientID int64, filter Filter) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.msgs {
		if m.RecipientID != recipientID {
			continue
		}
		if filter.MessageType != "" && m.MessageType != filter.MessageType {
			continue
		}
		if filter.UnreadOnly && m.IsRead {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memMessageRepo) FindStalePending(_ context.Context, olderThan time.Duration, limit int) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []model.Message
	for _, m := range r.msgs {
		if m.NeedsTranslation && m.TranslationStatus == model.TranslationPending && !m.CreatedAt.After(cutoff) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) MarkRead(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return nil
	}
	m.IsRead = true
	r.msgs[id] = m
	return nil
}

// get returns a stored message directly, bypassing the repository interface.
func (r *memMessageRepo) get(id int64) model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[id]
}

// put stores a message directly, assigning an ID if missing.
func (r *memMessageRepo) put(m model.Message) model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	}
	r.msgs[m.ID] = m
	return m
}

func sortNewestFirst(msgs []model.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID > msgs[j].ID
		}
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}

// memUserRepo is an in-memory UserRepository for tests.
type memUserRepo struct {
	mu        sync.Mutex
	users     map[int64]model.User
	lookupErr error
}

func newMemUserRepo(users ...model.User) *memUserRepo {
	r := &memUserRepo{users: make(map[int64]model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Lookup(_ context.Context, id int64) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return model.User{}, r.lookupErr
	}
	u, ok := r.users[id]
	if !ok {
		return model.User{}, ErrNoData
	}
	return u, nil
}

// setLanguage changes a stored user's preference mid-test.
func (r *memUserRepo) setLanguage(id int64, language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	u.Language = language
	r.users[id] = u
}

// stubTranslator returns canned translations and counts invocations.
type stubTranslator struct {
	mu      sync.Mutex
	result  string
	err     error
	calls   int
	lastSrc string
	lastDst string
}

func (t *stubTranslator) Translate(_ context.Context, _ string, sourceLang, targetLang string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.lastSrc = sourceLang
	t.lastDst = targetLang
	if t.err != nil {
		return "", t.err
	}
	return t.result, nil
}

func (t *stubTranslator) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// captureLogger records formatted log lines for assertions.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) record(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Debugf(format string, args ...interface{}) { l.record(format, args...) }
func (l *captureLogger) Infof(format string, args ...interface{})  { l.record(format, args...) }
func (l *captureLogger) Warnf(format string, args ...interface{})  { l.record(format, args...) }
func (l *captureLogger) Errorf(format string, args ...interface{}) { l.record(format, args...) }
func (l *captureLogger) Info(message string)                       { l.record("%s", message) }

// contains reports whether any recorded line contains substr.
func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// recordingSink captures peripheral actions handed off by the messenger.
type recordingSink struct {
	uploads   []UploadDocumentAction
	requests  []RequestDocumentAction
	invoices  []CreateInvoiceAction
	statuses  []UpdateDocumentStatusAction
	returnErr error
}

func (s *recordingSink) UploadDocument(_ context.Context, a UploadDocumentAction) error {
	s.uploads = append(s.uploads, a)
	return s.returnErr
}

func (s *recordingSink) RequestDocument(_ context.Context, a RequestDocumentAction) error {
	s.requests = append(s.requests, a)
	return s.returnErr
}

func (s *recordingSink) CreateInvoice(_ context.Context, a CreateInvoiceAction) error {
	s.invoices = append(s.invoices, a)
	return s.returnErr
}

func (s *recordingSink) UpdateDocumentStatus(_ context.Context, a UpdateDocumentStatusAction) error {
	s.statuses = append(s.statuses, a)
	return s.returnErr
}
