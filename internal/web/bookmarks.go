package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/bookmarkbot/internal/database"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// ListBookmarks returns one page of the user's bookmarks with the total
// number of matches.
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	opts, err := h.listOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.store.ListBookmarks(r.Context(), userID, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	total, err := h.store.CountBookmarks(r.Context(), userID, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := listResponse{
		Bookmarks: make([]bookmarkResponse, 0, len(items)),
		Total:     total,
		HasMore:   opts.Offset+len(items) < total,
	}
	for _, b := range items {
		resp.Bookmarks = append(resp.Bookmarks, newBookmarkResponse(b, h.loc))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listOptions(r *http.Request) (database.ListOptions, error) {
	q := r.URL.Query()
	opts := database.ListOptions{
		Filter: database.Filter(strings.ToLower(strings.TrimSpace(q.Get("filter_type")))),
		Search: strings.TrimSpace(q.Get("search_query")),
		Sort:   database.SortOrder(strings.ToLower(strings.TrimSpace(q.Get("sort_order")))),
		Limit:  h.cfg.DefaultPageSize,
	}
	if opts.Filter == "all" {
		opts.Filter = database.FilterAll
	}
	if opts.Sort == "" {
		opts.Sort = database.SortDesc
	}
	opts.HideRead, _ = strconv.ParseBool(q.Get("hide_read"))

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("%w: limit must be a positive integer", database.ErrValidation)
		}
		opts.Limit = min(n, h.cfg.MaxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("%w: offset must be a non-negative integer", database.ErrValidation)
		}
		opts.Offset = n
	}
	return opts, nil
}

type createRequest struct {
	URL               string `json:"url" validate:"required"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ImageURL          string `json:"image_url"`
	CommentsURL       string `json:"comments_url"`
	TelegramUserID    *int64 `json:"telegram_user_id"`
	TelegramMessageID *int64 `json:"telegram_message_id"`
}

// CreateBookmark stores a manually added bookmark and returns it with 201.
func (h *Handler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := h.validate.Struct(req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "URL is required")
		return
	}

	b, err := h.store.CreateBookmark(r.Context(), userID, database.NewBookmark{
		URL:               req.URL,
		Title:             req.Title,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		CommentsURL:       req.CommentsURL,
		TelegramUserID:    nullInt64(req.TelegramUserID),
		TelegramMessageID: nullInt64(req.TelegramMessageID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookmarkResponse(*b, h.loc))
}

// GetBookmark returns one bookmark.
func (h *Handler) GetBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	b, err := h.store.GetBookmark(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookmarkResponse(*b, h.loc))
}

// UpdateBookmark applies the allow-listed fields of a JSON object and
// returns the updated bookmark. Other keys are ignored.
func (h *Handler) UpdateBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if err := decodeBody(w, r, &fields); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}
	patch, err := patchFromJSON(fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if patch.IsEmpty() {
		writeErrorMessage(w, http.StatusBadRequest, "No valid fields to update")
		return
	}

	b, err := h.store.UpdateBookmark(r.Context(), userID, id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookmarkResponse(*b, h.loc))
}

// MarkRead sets the read flag; without a body the bookmark is marked read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	read := true
	var req struct {
		IsRead *flexBool `json:"is_read"`
	}
	switch err := decodeBody(w, r, &req); {
	case errors.Is(err, errEmptyBody):
	case err != nil:
		writeErrorMessage(w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	case req.IsRead != nil:
		read = bool(*req.IsRead)
	}

	state, err := h.store.SetRead(r.Context(), userID, id, read)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "is_read": boolInt(state)})
}

// DeleteBookmark removes a bookmark. Missing bookmarks are reported deleted too.
func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteBookmark(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func bookmarkID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid bookmark ID")
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON body of at most maxBodyBytes into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, dst)
}

func bodyErrorMessage(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errEmptyBody):
		return "Request body is empty"
	case errors.As(err, &tooLarge):
		return "Request body is too large"
	default:
		return "Invalid JSON body"
	}
}

// patchFromJSON converts the allow-listed keys of an update request into a
// typed patch. A null string clears the column; a null telegram id unsets it.
func patchFromJSON(fields map[string]json.RawMessage) (database.BookmarkPatch, error) {
	var p database.BookmarkPatch

	strField := func(key string, dst **string) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: %s must be a string", database.ErrValidation, key)
		}
		v := ""
		if s != nil {
			v = *s
		}
		*dst = &v
		return nil
	}
	intField := func(key string, dst **sql.NullInt64) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		var n *int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("%w: %s must be an integer", database.ErrValidation, key)
		}
		v := nullInt64(n)
		*dst = &v
		return nil
	}

	for key, dst := range map[string]**string{
		"url":          &p.URL,
		"title":        &p.Title,
		"description":  &p.Description,
		"image_url":    &p.ImageURL,
		"comments_url": &p.CommentsURL,
	} {
		if err := strField(key, dst); err != nil {
			return p, err
		}
	}
	if err := intField("telegram_user_id", &p.TelegramUserID); err != nil {
		return p, err
	}
	if err := intField("telegram_message_id", &p.TelegramMessageID); err != nil {
		return p, err
	}
	if raw, ok := fields["is_read"]; ok {
		var f flexBool
		if err := json.Unmarshal(raw, &f); err != nil {
			return p, fmt.Errorf("%w: is_read must be a boolean", database.ErrValidation)
		}
		v := bool(f)
		p.IsRead = &v
	}
	return p, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil || *v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// flexBool accepts JSON booleans, numbers (non-zero is true) and null.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = flexBool(t)
	case float64:
		*f = t != 0
	default:
		return fmt.Errorf("cannot use %s as a boolean", data)
	}
	return nil
}
