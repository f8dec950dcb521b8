package web

import (
	"net/http"
	"strings"
)

type scrapeRequest struct {
	URL string `json:"url" validate:"required"`
}

// Scrape fetches the metadata of a URL so clients can prefill a new bookmark.
// Fetch failures still produce metadata; the cause is logged.
func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := h.validate.Struct(req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "URL is required")
		return
	}

	res := h.scraper.Extract(r.Context(), req.URL)
	if res.Err != nil {
		h.logger.InfoContext(r.Context(), "Scrape returned placeholder metadata", "url", req.URL, "kind", res.Err.Kind)
	}
	writeJSON(w, http.StatusOK, res.Metadata)
}
