// Package links provides URL helpers shared by ingestion, the store and the
// metadata extractor: domain normalization, URL token extraction from free
// text and discussion-forum comment link detection.
package links

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultForumHost is the discussion site whose item pages are paired with
// articles and never probed with HEAD requests.
const DefaultForumHost = "news.ycombinator.com"

const trailingPunctuation = ",.!?:;'\""

var numericID = regexp.MustCompile(`^[0-9]+$`)

// NormalizeDomain returns the lower-cased host of rawURL without a leading
// "www.". It returns an empty string when rawURL cannot be parsed or has no
// authority component.
func NormalizeDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	domain := strings.ToLower(u.Host)
	return strings.TrimPrefix(domain, "www.")
}

// EnsureScheme prepends https:// to rawURL when it has no scheme.
func EnsureScheme(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}

// WebURL returns rawURL as an absolute http or https URL. A missing scheme
// becomes https://; any other scheme (mailto:, tg://, ftp://) or a URL without
// a host is rejected.
func WebURL(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	if !strings.Contains(rawURL, "://") {
		if hasOpaqueScheme(rawURL) {
			return "", false
		}
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return rawURL, true
	}
	return "", false
}

// hasOpaqueScheme reports whether s starts with a "scheme:" prefix such as
// mailto: or tel:. A host followed by a port number does not count.
func hasOpaqueScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 || strings.ContainsAny(s[:i], "./?#@") {
		return false
	}
	rest := s[i+1:]
	return rest == "" || rest[0] < '0' || rest[0] > '9'
}

// ExtractURLs scans whitespace separated tokens of text and returns the ones
// that look like URLs, in order of appearance. Scheme-less tokens that look
// like a domain get https:// prepended; tokens with another scheme or without
// a host are skipped.
func ExtractURLs(text string) []string {
	var urls []string
	for _, word := range strings.Fields(text) {
		if len(word) < 3 {
			continue
		}
		word = strings.TrimRight(word, trailingPunctuation)

		if !strings.HasPrefix(word, "http://") && !strings.HasPrefix(word, "https://") {
			if strings.Contains(word, "://") {
				continue
			}
			if !strings.Contains(word, ".") || strings.HasPrefix(word, ".") {
				continue
			}
		}

		u, ok := WebURL(word)
		if !ok {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

// IsForum reports whether rawURL points at forumHost.
func IsForum(rawURL, forumHost string) bool {
	if forumHost == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), forumHost)
}

// CommentsURL returns the canonical item URL when rawURL is a forumHost page
// carrying a numeric id query parameter, and an empty string otherwise.
func CommentsURL(rawURL, forumHost string) string {
	if !IsForum(rawURL, forumHost) {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	id := u.Query().Get("id")
	if !numericID.MatchString(id) {
		return ""
	}
	return "https://" + strings.ToLower(forumHost) + "/item?id=" + id
}
