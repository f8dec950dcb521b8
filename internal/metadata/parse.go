package metadata

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// metaKey identifies a <meta> tag by attribute and lower-cased value,
// e.g. property=og:title or name=description.
type metaKey struct {
	attr  string
	value string
}

var (
	ogTitle            = metaKey{"property", "og:title"}
	twitterTitle       = metaKey{"name", "twitter:title"}
	ogDescription      = metaKey{"property", "og:description"}
	twitterDescription = metaKey{"name", "twitter:description"}
	plainDescription   = metaKey{"name", "description"}
	ogImage            = metaKey{"property", "og:image"}
	twitterImage       = metaKey{"name", "twitter:image"}
)

// document collects the first occurrence of every interesting tag.
type document struct {
	metas map[metaKey]string
	title string
	found bool
}

func (d *document) first(keys ...metaKey) (string, bool) {
	for _, k := range keys {
		if v, ok := d.metas[k]; ok {
			return v, true
		}
	}
	return "", false
}

func parseMeta(body []byte) Metadata {
	doc := scan(body)

	title, ok := doc.first(ogTitle, twitterTitle)
	if !ok && doc.found {
		title, ok = doc.title, true
	}
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		title = TitleNotFound
	}

	description, _ := doc.first(ogDescription, twitterDescription, plainDescription)
	image, _ := doc.first(ogImage, twitterImage)

	return Metadata{
		Title:       title,
		Description: strings.TrimSpace(description),
		ImageURL:    strings.TrimSpace(image),
	}
}

func scan(body []byte) *document {
	doc := &document{metas: make(map[metaKey]string)}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return doc
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				doc.addMeta(n)
			case atom.Title:
				if !doc.found && !inSVG(n) {
					doc.title = textContent(n)
					doc.found = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc
}

func (d *document) addMeta(n *html.Node) {
	var name, property, content string
	hasContent := false
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "name":
			name = strings.ToLower(strings.TrimSpace(a.Val))
		case "property":
			property = strings.ToLower(strings.TrimSpace(a.Val))
		case "content":
			content = a.Val
			hasContent = true
		}
	}
	if !hasContent {
		return
	}
	for _, k := range []metaKey{{"property", property}, {"name", name}} {
		if k.value == "" {
			continue
		}
		if _, seen := d.metas[k]; !seen {
			d.metas[k] = content
		}
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func inSVG(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Svg {
			return true
		}
	}
	return false
}
