// Package api provides HTTP handlers for the messaging server REST API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/clientdesk/messaging"
	"github.com/clientdesk/messaging/model"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	messenger    *messaging.Messenger
	orchestrator *messaging.Orchestrator
	logger       messaging.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	messenger *messaging.Messenger,
	orchestrator *messaging.Orchestrator,
	logger messaging.Logger,
) *Handler {
	return &Handler{
		messenger:    messenger,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// SendRequest represents a send message request.
type SendRequest struct {
	SenderID    int64  `json:"senderID"`
	RecipientID int64  `json:"recipientID"`
	Body        string `json:"body"`
	MessageType string `json:"messageType"`
}

// ActionRequest represents a message action request. The payload shape
// depends on the action name.
type ActionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HandleSend handles POST /api/v1/messages
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	// Validate request
	if req.SenderID == 0 || req.RecipientID == 0 {
		h.respondError(w, http.StatusBadRequest, "senderID and recipientID are required", "VALIDATION_ERROR")
		return
	}

	msg, err := h.messenger.Send(r.Context(), messaging.SendRequest{
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
		MessageType: model.MessageType(req.MessageType),
	})
	if err != nil {
		if msgErr, ok := err.(*messaging.Error); ok && msgErr.Code == messaging.ErrCodeValidation {
			h.respondError(w, http.StatusBadRequest, msgErr.Message, msgErr.Code)
			return
		}
		h.logger.Errorf("Failed to send message: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to send message", "SEND_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusCreated, msg, "Message sent successfully")
}

// HandleAction handles POST /api/v1/actions
//
// The request carries an action name plus a payload whose shape is
// determined by the name. Send-message actions are executed inline;
// everything else is forwarded to the configured action sink.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if req.Action == "" {
		h.respondError(w, http.StatusBadRequest, "action is required", "VALIDATION_ERROR")
		return
	}

	action, err := messaging.DecodeAction(req.Action, req.Payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	msg, err := h.messenger.Do(r.Context(), action)
	if err != nil {
		if msgErr, ok := err.(*messaging.Error); ok && msgErr.Code == messaging.ErrCodeValidation {
			h.respondError(w, http.StatusBadRequest, msgErr.Message, msgErr.Code)
			return
		}
		h.logger.Errorf("Failed to perform action %s: %v", req.Action, err)
		h.respondError(w, http.StatusInternalServerError, "Failed to perform action", "ACTION_ERROR")
		return
	}

	// msg is non-nil only for send_message actions
	if msg != nil {
		h.respondSuccess(w, http.StatusCreated, msg, "Message sent successfully")
		return
	}
	h.respondSuccess(w, http.StatusOK, nil, "Action performed successfully")
}

// HandleThread handles GET /api/v1/threads
func (h *Handler) HandleThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	// Parse query parameters
	participantA, _ := strconv.ParseInt(r.URL.Query().Get("participantA"), 10, 64)
	participantB, _ := strconv.ParseInt(r.URL.Query().Get("participantB"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if participantA == 0 || participantB == 0 {
		h.respondError(w, http.StatusBadRequest, "participantA and participantB are required", "VALIDATION_ERROR")
		return
	}

	msgs, err := h.messenger.ListThread(r.Context(), participantA, participantB, limit)
	if err != nil {
		h.logger.Errorf("Failed to list thread: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to list thread", "LIST_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, msgs, "")
}

// HandleInbox handles GET /api/v1/inbox
func (h *Handler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	recipientID, _ := strconv.ParseInt(r.URL.Query().Get("recipientID"), 10, 64)
	if recipientID == 0 {
		h.respondError(w, http.StatusBadRequest, "recipientID is required", "VALIDATION_ERROR")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := messaging.Filter{
		MessageType: model.MessageType(r.URL.Query().Get("messageType")),
		UnreadOnly:  r.URL.Query().Get("unreadOnly") == "true",
		Limit:       limit,
	}

	msgs, err := h.messenger.ListByRecipient(r.Context(), recipientID, filter)
	if err != nil {
		h.logger.Errorf("Failed to list inbox: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to list inbox", "LIST_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, msgs, "")
}

// HandleMessageVerb dispatches POST /api/v1/messages/:id/<verb> requests.
func (h *Handler) HandleMessageVerb(w http.ResponseWriter, r *http.Request) {
	pathParts := splitPath(r.URL.Path)
	if len(pathParts) < 5 {
		h.respondError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
		return
	}

	switch pathParts[4] {
	case "read":
		h.HandleMarkRead(w, r)
	case "retry-translation":
		h.HandleRetryTranslation(w, r)
	default:
		h.respondError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	}
}

// HandleMarkRead handles POST /api/v1/messages/:id/read
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id, ok := h.messageIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.messenger.MarkRead(r.Context(), id); err != nil {
		h.logger.Errorf("Failed to mark message read: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to mark message read", "UPDATE_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, nil, "Message marked as read")
}

// HandleRetryTranslation handles POST /api/v1/messages/:id/retry-translation
func (h *Handler) HandleRetryTranslation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id, ok := h.messageIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.orchestrator.RetryFailed(r.Context(), id); err != nil {
		if msgErr, ok := err.(*messaging.Error); ok && msgErr.Code == messaging.ErrCodeValidation {
			h.respondError(w, http.StatusConflict, msgErr.Message, msgErr.Code)
			return
		}
		h.logger.Errorf("Failed to retry translation: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to retry translation", "RETRY_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, nil, "Translation retried")
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "0.1.0",
	}

	h.respondSuccess(w, http.StatusOK, health, "")
}

// messageIDFromPath extracts the message ID from paths like
// /api/v1/messages/:id/<verb>. Writes the error response itself on failure.
func (h *Handler) messageIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	// In production, use a router like gorilla/mux or chi
	pathParts := splitPath(r.URL.Path)
	if len(pathParts) < 4 {
		h.respondError(w, http.StatusBadRequest, "Invalid message ID", "INVALID_ID")
		return 0, false
	}

	id, err := strconv.ParseInt(pathParts[3], 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid message ID", "INVALID_ID")
		return 0, false
	}
	return id, true
}

// respondError sends an error response.
func (h *Handler) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Code:    code,
		Message: message,
	})
}

// respondSuccess sends a success response.
func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// splitPath splits URL path by "/"
func splitPath(path string) []string {
	parts := []string{}
	var current string
	for _, c := range path {
		if c == '/' {
			if current != "" {
				parts = append(parts, current)
			}
			current = ""
		} else {
			current += string(c)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}
