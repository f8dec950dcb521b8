package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/edgard/bookmarkbot/internal/database"
)

// SavedAtLayout formats saved_at in API responses and CSV exports.
const SavedAtLayout = "2006-01-02 15:04:05"

// bookmarkResponse is the JSON form of a bookmark. Missing values are null
// and is_read is 0 or 1.
type bookmarkResponse struct {
	ID                int64   `json:"id"`
	URL               string  `json:"url"`
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	ImageURL          *string `json:"image_url"`
	Domain            *string `json:"domain"`
	SavedAt           string  `json:"saved_at"`
	TelegramUserID    *int64  `json:"telegram_user_id"`
	TelegramMessageID *int64  `json:"telegram_message_id"`
	CommentsURL       *string `json:"comments_url"`
	IsRead            int     `json:"is_read"`
}

type listResponse struct {
	Bookmarks []bookmarkResponse `json:"bookmarks"`
	Total     int                `json:"total"`
	HasMore   bool               `json:"has_more"`
}

func newBookmarkResponse(b database.Bookmark, loc *time.Location) bookmarkResponse {
	return bookmarkResponse{
		ID:                b.ID,
		URL:               b.URL,
		Title:             stringPtr(b.Title.String, b.Title.Valid),
		Description:       stringPtr(b.Description.String, b.Description.Valid),
		ImageURL:          stringPtr(b.ImageURL.String, b.ImageURL.Valid),
		Domain:            stringPtr(b.Domain.String, b.Domain.Valid),
		SavedAt:           b.SavedAt.In(loc).Format(SavedAtLayout),
		TelegramUserID:    int64Ptr(b.TelegramUserID.Int64, b.TelegramUserID.Valid),
		TelegramMessageID: int64Ptr(b.TelegramMessageID.Int64, b.TelegramMessageID.Valid),
		CommentsURL:       stringPtr(b.CommentsURL.String, b.CommentsURL.Valid),
		IsRead:            boolInt(b.IsRead),
	}
}

func stringPtr(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

func int64Ptr(v int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps store errors to HTTP statuses. Unexpected errors are logged
// and answered with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrValidation):
		h.logger.DebugContext(r.Context(), "Rejected request", "path", r.URL.Path, "error", err)
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "Bookmark not found")
	case errors.Is(err, database.ErrConflict):
		h.logger.WarnContext(r.Context(), "Conflicting request", "path", r.URL.Path, "error", err)
		writeErrorMessage(w, http.StatusConflict, "URL already exists")
	default:
		h.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "An internal error occurred")
	}
}
