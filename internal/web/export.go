package web

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/edgard/bookmarkbot/internal/database"
)

var csvHeader = []string{
	"id", "url", "title", "description", "image_url", "domain", "saved_at",
	"telegram_user_id", "telegram_message_id", "comments_url", "is_read",
}

var (
	newlineFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
	quoteEscaper     = strings.NewReplacer(`"`, `""`)
)

// ExportCSV writes every bookmark of the user as CSV, newest first. Every
// field is quoted and newlines inside fields become spaces, so each bookmark
// is exactly one line.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	items, err := h.store.ListBookmarks(r.Context(), userID, database.ListOptions{
		Sort:  database.SortDesc,
		Limit: database.NoLimit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.csv"`)
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	writeCSVRow(bw, csvHeader)
	for _, b := range items {
		writeCSVRow(bw, h.csvRecord(b))
	}
	if err := bw.Flush(); err != nil {
		h.logger.ErrorContext(r.Context(), "CSV export interrupted", "user_id", userID, "error", err)
	}
}

func (h *Handler) csvRecord(b database.Bookmark) []string {
	return []string{
		strconv.FormatInt(b.ID, 10),
		b.URL,
		b.Title.String,
		b.Description.String,
		b.ImageURL.String,
		b.Domain.String,
		b.SavedAt.In(h.loc).Format(SavedAtLayout),
		nullIntString(b.TelegramUserID.Int64, b.TelegramUserID.Valid),
		nullIntString(b.TelegramMessageID.Int64, b.TelegramMessageID.Valid),
		b.CommentsURL.String,
		strconv.Itoa(boolInt(b.IsRead)),
	}
}

func nullIntString(v int64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// writeCSVRow writes fields as one RFC 4180 record with every field quoted.
// Write errors surface on the final Flush.
func writeCSVRow(w io.StringWriter, fields []string) {
	for i, f := range fields {
		if i > 0 {
			_, _ = w.WriteString(",")
		}
		_, _ = w.WriteString(`"` + quoteEscaper.Replace(newlineFlattener.Replace(f)) + `"`)
	}
	_, _ = w.WriteString("\r\n")
}
