package sandbox

import (
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DOM is a read-mostly view of the parsed portal page exposed to scripts
// as `document`.
type DOM struct {
	doc   *goquery.Document
	url   *url.URL
	title string
	mu    sync.RWMutex
}

// Element is a snapshot of a matched node
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
}

// NewDOM wraps an already parsed document
func NewDOM(doc *goquery.Document, pageURL string) *DOM {
	d := &DOM{doc: doc}
	if doc != nil {
		d.title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			d.url = u
		}
	}
	return d
}

// ParseDOM parses HTML into a DOM
func ParseDOM(r io.Reader, pageURL string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return NewDOM(doc, pageURL), nil
}

// Title returns the document title
func (d *DOM) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// SetTitle updates the title, as `document.title = ...` does
func (d *DOM) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

// URL returns the page URL, or an empty string for inline pages
func (d *DOM) URL() string {
	if d.url == nil {
		return ""
	}
	return d.url.String()
}

// Origin returns scheme://host of the page, or "null" for inline pages
func (d *DOM) Origin() string {
	if d.url == nil || d.url.Scheme == "" || d.url.Host == "" {
		return "null"
	}
	return d.url.Scheme + "://" + d.url.Host
}

// Query returns snapshots of every element matching a CSS selector.
// Invalid selectors match nothing.
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.doc == nil || strings.TrimSpace(selector) == "" {
		return nil
	}

	var out []*Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, newElement(s))
	})
	return out
}

// QueryOne returns the first match or nil
func (d *DOM) QueryOne(selector string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.doc == nil || strings.TrimSpace(selector) == "" {
		return nil
	}
	s := d.doc.Find(selector).First()
	if s.Length() == 0 {
		return nil
	}
	return newElement(s)
}

// GetElementByID looks up an element by id attribute
func (d *DOM) GetElementByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.doc == nil || id == "" {
		return nil
	}
	var found *Element
	d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = newElement(s)
			return false
		}
		return true
	})
	return found
}

func newElement(s *goquery.Selection) *Element {
	elem := &Element{
		TagName:     strings.ToUpper(goquery.NodeName(s)),
		TextContent: s.Text(),
		Attributes:  make(map[string]string),
	}
	if node := s.Get(0); node != nil {
		for _, attr := range node.Attr {
			elem.Attributes[attr.Key] = attr.Val
		}
	}
	elem.ID = elem.Attributes["id"]
	elem.ClassName = elem.Attributes["class"]
	return elem
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) (string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// SetAttribute sets attribute value on the snapshot
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[name] = value
	switch name {
	case "id":
		e.ID = value
	case "class":
		e.ClassName = value
	}
}
