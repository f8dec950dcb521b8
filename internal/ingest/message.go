package ingest

import (
	"sort"
	"unicode/utf16"

	"github.com/edgard/bookmarkbot/internal/links"
)

// Entity types carrying links.
const (
	EntityURL      = "url"
	EntityTextLink = "text_link"
)

// Entity is a formatted span of a chat message. Offset and Length count
// UTF-16 code units, as delivered by the Telegram Bot API.
type Entity struct {
	Type   string
	Offset int
	Length int
	URL    string // set for text_link entities
}

// Message is the transport independent view of an inbound chat message.
type Message struct {
	Text       string
	Entities   []Entity
	PreviewURL string
	SenderID   int64
	MessageID  int64
}

// Candidates returns the de-duplicated, sorted URLs of msg. Link entities
// win; the preview URL is used only when no entity carried a link, and free
// text tokens only when neither produced anything.
func Candidates(msg Message) []string {
	var found []string
	for _, e := range msg.Entities {
		switch e.Type {
		case EntityURL:
			if s := utf16Slice(msg.Text, e.Offset, e.Length); s != "" {
				found = append(found, s)
			}
		case EntityTextLink:
			if e.URL != "" {
				found = append(found, e.URL)
			}
		}
	}
	if len(found) == 0 && msg.PreviewURL != "" {
		found = append(found, msg.PreviewURL)
	}
	if len(found) == 0 {
		found = links.ExtractURLs(msg.Text)
	}

	seen := make(map[string]struct{}, len(found))
	urls := make([]string, 0, len(found))
	for _, raw := range found {
		u, ok := links.WebURL(raw)
		if !ok || links.NormalizeDomain(u) == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func utf16Slice(text string, offset, length int) string {
	units := utf16.Encode([]rune(text))
	if offset < 0 || length <= 0 || offset+length > len(units) {
		return ""
	}
	return string(utf16.Decode(units[offset : offset+length]))
}
