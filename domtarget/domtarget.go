// Package domtarget provides tplmgr targets addressing nodes of a parsed HTML document.
// Rendered fragments are appended as child nodes of every element matching a CSS
// selector, optionally passing through a bluemonday sanitising policy first.
package domtarget

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/skosovsky/tplmgr"
)

// Sentinel errors for document operations.
var (
	ErrParse   = errors.New("domtarget: failed to parse HTML")
	ErrNoMatch = errors.New("domtarget: selector matched no elements")
)

// Document is an HTML document that rendered fragments can be appended to.
// Appends and serialisation are serialised by a mutex; goquery selections are not goroutine safe.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML document from s.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HTML serialises the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// InnerHTML returns the inner HTML of the first element matching selector.
func (d *Document) InnerHTML(selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return sel.First().Html()
}

// Option configures a Target.
type Option func(*Target)

// WithPolicy sanitises every fragment with p before it is inserted.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(t *Target) {
		t.policy = p
	}
}

// UGCPolicy returns bluemonday's policy for user generated content, suitable for WithPolicy.
func UGCPolicy() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
}

// Target appends fragments to every element of a Document matching a selector.
type Target struct {
	doc      *Document
	selector string
	policy   *bluemonday.Policy
}

var _ tplmgr.Target = (*Target)(nil)

// Select returns a Target for selector. The selector is evaluated on every Append,
// so elements added by earlier appends can be targeted.
func (d *Document) Select(selector string, opts ...Option) *Target {
	t := &Target{doc: d, selector: selector}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append parses html as a fragment and appends it to each matched element.
// Returns ErrNoMatch when the selector matches nothing.
func (t *Target) Append(html string) error {
	if t.policy != nil {
		html = t.policy.Sanitize(html)
	}
	t.doc.mu.Lock()
	defer t.doc.mu.Unlock()
	sel := t.doc.doc.Find(t.selector)
	if sel.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrNoMatch, t.selector)
	}
	sel.AppendHtml(html)
	return nil
}
