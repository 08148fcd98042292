package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/szooyang/ai-project01/internal/errors"
	customMiddleware "github.com/szooyang/ai-project01/internal/middleware"
	api "github.com/szooyang/ai-project01/pkg/contracts/api/v1"
)

// SessionHandler opens, inspects and closes sessions.
type SessionHandler struct {
	store        SessionStoreInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store SessionStoreInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SessionHandler {
	return &SessionHandler{
		store:        store,
		logger:       logger.With(slog.String("component", "session_handler")),
		errorHandler: errorHandler,
	}
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Open(r.Context())
	w.Header().Set(customMiddleware.SessionHeader, sess.ID)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.Success(sess.ID, api.SessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
	}))
}

// Current handles GET /api/sessions/current. It must run behind the
// Sessions middleware.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sess := customMiddleware.SessionFromContext(r.Context())
	if sess == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
		return
	}
	render.JSON(w, r, api.Success(sess.ID, sess.Selection()))
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.Close(r.Context(), id) {
		h.errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
		return
	}
	h.logger.InfoContext(r.Context(), "session closed by client", slog.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}
