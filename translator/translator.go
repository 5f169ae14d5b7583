// Package translator wraps an external machine-translation HTTP API behind a
// small interface the orchestrator can depend on.
//
// The adapter is deliberately dumb: it maps language codes, makes one HTTP
// call with a bounded timeout, and reports failure. It never retries and
// never touches the message store — persistence of translation results is the
// orchestrator's job.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Translator converts text between languages.
type Translator interface {
	// Translate converts text from sourceLang to targetLang.
	// Precondition: sourceLang != targetLang — callers are expected to
	// short-circuit same-language pairs before reaching the adapter.
	// Returns a *ProviderError on credential, transport, or response failure;
	// the caller must not assume the text was translated.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// ProviderError describes a failed provider call: missing credential, network
// error, non-2xx status, or an undecodable response body.
type ProviderError struct {
	// StatusCode is the HTTP status returned by the provider, or 0 when the
	// request never produced a response.
	StatusCode int

	// Message is a human-readable description of the failure.
	Message string

	// Err is the underlying error (if any).
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("translation provider: %s: %v", e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("translation provider: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("translation provider: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// providerCodes maps internal lowercase language codes to the provider's
// two-letter uppercase codes. Unmapped codes fall back to DefaultTargetCode.
var providerCodes = map[string]string{
	"en": "EN",
	"tr": "TR",
	"de": "DE",
	"fr": "FR",
	"es": "ES",
}

// DefaultTargetCode is the provider code used for unmapped internal codes.
const DefaultTargetCode = "EN"

// ProviderCode translates an internal language code into the provider's code
// set, falling back to DefaultTargetCode for unknown codes.
func ProviderCode(internal string) string {
	if code, ok := providerCodes[strings.ToLower(strings.TrimSpace(internal))]; ok {
		return code
	}
	return DefaultTargetCode
}

// defaultTimeout bounds every provider request. The orchestrator imposes no
// timeout of its own, so the adapter must.
const defaultTimeout = 10 * time.Second

// HTTPTranslator is a Translator backed by the provider's REST endpoint.
//
// Thread safety: safe for concurrent use.
type HTTPTranslator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// HTTPOption configures an HTTPTranslator.
type HTTPOption func(*HTTPTranslator)

// WithHTTPClient replaces the default HTTP client. The caller owns the
// client's timeout when this option is used.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTranslator) {
		t.client = client
	}
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(t *HTTPTranslator) {
		t.client.Timeout = timeout
	}
}

// NewHTTPTranslator creates a Translator calling the provider at endpoint,
// authenticating with apiKey as a bearer credential.
func NewHTTPTranslator(endpoint, apiKey string, opts ...HTTPOption) *HTTPTranslator {
	t := &HTTPTranslator{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// translateRequest is the provider's request body.
type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// translateResponse is the provider's response body.
type translateResponse struct {
	Translations []struct {
		Text                   string `json:"text"`
		DetectedSourceLanguage string `json:"detected_source_language"`
	} `json:"translations"`
}

// Translate implements Translator.
func (t *HTTPTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if t.apiKey == "" {
		return "", &ProviderError{Message: "missing API credential"}
	}

	body, err := json.Marshal(translateRequest{
		Text:       text,
		SourceLang: ProviderCode(sourceLang),
		TargetLang: ProviderCode(targetLang),
	})
	if err != nil {
		return "", &ProviderError{Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", &ProviderError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for diagnostics, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	if len(decoded.Translations) == 0 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "response contains no translations"}
	}

	return decoded.Translations[0].Text, nil
}
