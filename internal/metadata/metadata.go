// Package metadata fetches a web page and extracts the title, description and
// preview image advertised by its Open Graph, Twitter card and standard meta
// tags. Extraction never fails: every error degrades to a placeholder record.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/edgard/bookmarkbot/internal/links"
)

const (
	// DefaultTimeout bounds every request issued by the extractor.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent mimics a desktop browser; several sites refuse unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// TitleNotFound is used when a page advertises no title at all.
	TitleNotFound = "Title not found"

	maxBodyBytes = 5 << 20
)

// Metadata is the best-effort description of a URL.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Domain      string `json:"domain"`
}

// Kind classifies extraction failures.
type Kind string

const (
	KindRequest Kind = "request"
	KindNetwork Kind = "network"
	KindStatus  Kind = "status"
	KindParse   Kind = "parse"
)

// FetchError describes why a page could not be retrieved or parsed.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result always carries usable Metadata. Err is set when the metadata is a
// placeholder produced from a failure; ContentType is set when the URL was
// detected as a non-HTML resource.
type Result struct {
	Metadata
	ContentType string
	Err         *FetchError
}

// NonHTML reports whether the URL was detected as a non-HTML resource.
func (r Result) NonHTML() bool { return r.ContentType != "" }

// Extractor retrieves page metadata over HTTP.
type Extractor struct {
	client    *http.Client
	logger    *slog.Logger
	userAgent string
	forumHost string
	timeout   time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithUserAgent sets the User-Agent header of outgoing requests.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithForumHost sets the host that must not receive HEAD probes.
func WithForumHost(host string) Option {
	return func(e *Extractor) { e.forumHost = host }
}

// NewExtractor creates an Extractor. Redirects are followed by the default client.
func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Extractor{
		client:    &http.Client{},
		logger:    logger.With("component", "metadata"),
		userAgent: DefaultUserAgent,
		forumHost: links.DefaultForumHost,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the metadata of rawURL. It never returns an error; failures
// are reported through Result.Err with a placeholder title "Error: <domain>".
func (e *Extractor) Extract(ctx context.Context, rawURL string) Result {
	target := links.EnsureScheme(strings.TrimSpace(rawURL))
	domain := links.NormalizeDomain(target)
	log := e.logger.With("url", target)

	if !links.IsForum(target, e.forumHost) {
		contentType, err := e.probe(ctx, target)
		switch {
		case err != nil:
			log.DebugContext(ctx, "HEAD probe failed, falling back to GET", "error", err)
		case contentType != "" && !isHTML(contentType):
			log.InfoContext(ctx, "URL is not an HTML page", "content_type", contentType)
			return Result{
				Metadata: Metadata{
					Title:       fmt.Sprintf("File link (%s)", contentType),
					Description: fmt.Sprintf("The URL points to a non-HTML resource of type %s.", contentType),
					Domain:      domain,
				},
				ContentType: contentType,
			}
		}
	}

	page, ferr := e.fetch(ctx, target)
	if ferr != nil {
		log.WarnContext(ctx, "Metadata extraction failed", "kind", ferr.Kind, "error", ferr)
		return Result{
			Metadata: Metadata{
				Title:       "Error: " + domain,
				Description: ferr.Error(),
				Domain:      domain,
			},
			Err: ferr,
		}
	}

	meta := parseMeta(page)
	meta.Domain = domain
	log.DebugContext(ctx, "Metadata extracted", "title", meta.Title)
	return Result{Metadata: meta}
}

func (e *Extractor) probe(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := e.newRequest(ctx, http.MethodHead, target)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HEAD returned status %d", resp.StatusCode)
	}
	return resp.Header.Get("Content-Type"), nil
}

func (e *Extractor) fetch(ctx context.Context, target string) ([]byte, *FetchError) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := e.newRequest(ctx, http.MethodGet, target)
	if err != nil {
		return nil, &FetchError{Kind: KindRequest, URL: target, Err: err}
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Kind:       KindStatus,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: target, Err: err}
	}
	return body, nil
}

func (e *Extractor) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	return req, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
