package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/query"
)

// DefaultMaxUploadBytes bounds the size of an uploaded document.
const DefaultMaxUploadBytes int64 = 20 << 20

// Service is the chat service consumed by the handlers.
type Service interface {
	CreateSession(ctx context.Context) (*core.ChatSession, error)
	GetSession(ctx context.Context, id string) (*core.ChatSession, error)
	ListSessions(ctx context.Context) ([]*core.ChatSession, error)
	RenameSession(ctx context.Context, id, name string) (*core.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	IngestDocument(ctx context.Context, id, filename string, raw []byte) (*ingestion.Result, error)
	Ask(ctx context.Context, id, question string) (*query.Answer, error)
}

// Handler serves the chat API.
type Handler struct {
	svc            Service
	maxUploadBytes int64
	requestTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxUploadBytes bounds uploaded document size.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithRequestTimeout cancels requests that run longer than d. Zero disables the timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.requestTimeout = d
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler for svc.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{
		svc:            svc,
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type messageView struct {
	Role      core.Role `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// newMessageViews never returns nil, so an empty transcript encodes as [].
func newMessageViews(msgs []core.Message) []messageView {
	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = messageView{Role: m.Role, Text: m.Text, Timestamp: m.Timestamp}
	}
	return views
}

// chatView is the wire form of a session.
type chatView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	PDF       string        `json:"pdf,omitempty"`
	Filename  string        `json:"filename,omitempty"`
	Messages  []messageView `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func newChatView(s *core.ChatSession) chatView {
	v := chatView{
		ID:        s.ID,
		Name:      s.Name,
		Messages:  newMessageViews(s.Messages),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Document != nil {
		v.PDF = s.Document.Text
		v.Filename = s.Document.Filename
	}
	return v
}

// chatSummary omits transcript and document text for list responses.
type chatSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasDocument bool      `json:"hasDocument"`
	Messages    int       `json:"messageCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type chatResponse struct {
	Chat chatView `json:"chat"`
}

type chatsResponse struct {
	Chats []chatSummary `json:"chats"`
}

type uploadResponse struct {
	Message string   `json:"message"`
	PDF     string   `json:"pdf"`
	Chat    chatView `json:"chat"`
}

type askRequest struct {
	ChatID   string `json:"chatId"`
	Question string `json:"question"`
}

type askResponse struct {
	Answer   string        `json:"answer"`
	Messages []messageView `json:"messages"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateChat starts an empty session.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.CreateSession(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, chatResponse{Chat: newChatView(session)})
}

// ListChats returns session summaries, newest first.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := chatsResponse{Chats: make([]chatSummary, 0, len(sessions))}
	for _, s := range sessions {
		out.Chats = append(out.Chats, chatSummary{
			ID:          s.ID,
			Name:        s.Name,
			HasDocument: s.HasDocument(),
			Messages:    len(s.Messages),
			UpdatedAt:   s.UpdatedAt,
		})
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

// GetChat returns one session with its transcript.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, chatResponse{Chat: newChatView(session)})
}

// RenameChat changes a session's display name.
func (h *Handler) RenameChat(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.writeMessage(w, r, http.StatusBadRequest, msgNameRequired)
		return
	}
	session, err := h.svc.RenameSession(r.Context(), chi.URLParam(r, "chatID"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, chatResponse{Chat: newChatView(session)})
}

// DeleteChat removes a session and its document.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), chi.URLParam(r, "chatID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, messageResponse{Message: msgChatDeleted})
}

// UploadDocument ingests the multipart "file" field into a session.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeMessage(w, r, http.StatusRequestEntityTooLarge, msgFileTooLarge)
			return
		}
		h.writeMessage(w, r, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, msgNoFile)
		return
	}
	if len(raw) == 0 {
		h.writeMessage(w, r, http.StatusBadRequest, msgNoFile)
		return
	}

	result, err := h.svc.IngestDocument(r.Context(), chi.URLParam(r, "chatID"), header.Filename, raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, uploadResponse{
		Message: msgDocumentIngested,
		PDF:     result.StoredText,
		Chat:    newChatView(result.Session),
	})
}

// Ask answers a question about the session's document.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.ChatID) == "" || strings.TrimSpace(req.Question) == "" {
		h.writeMessage(w, r, http.StatusBadRequest, msgAskRequired)
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.ChatID, req.Question)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, askResponse{Answer: answer.Text, Messages: newMessageViews(answer.Messages)})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "err", err)
	} else {
		logger.Debug("request rejected", "status", status, "err", err)
	}
	h.writeMessage(w, r, status, msg)
}

func (h *Handler) writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, errorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
}
