// Package dom is a small HTML document model with attribute, class list and
// click listener support. Documents are parsed and rendered with
// golang.org/x/net/html.
package dom

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document wraps a parsed HTML tree. It is safe for concurrent use; click
// listeners run without the document lock held.
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	listeners map[*html.Node][]func(*Element)
}

// Element is a handle on one element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// New returns an empty <html><head></head><body></body></html> document.
func New() *Document {
	doc, err := Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	if err != nil {
		// The literal above always parses.
		panic(err)
	}
	return doc
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root, listeners: make(map[*html.Node][]func(*Element))}, nil
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Root returns the document element (<html>).
func (d *Document) Root() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n := findFirst(d.root, atom.Html); n != nil {
		return d.wrap(n)
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n := findFirst(d.root, atom.Body); n != nil {
		return d.wrap(n)
	}
	return nil
}

// CreateElement returns a detached element with the given tag.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))})
}

// QueryAll returns every element carrying the named attribute, in document order.
func (d *Document) QueryAll(name string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasAttr(n, name) {
			out = append(out, d.wrap(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, name)
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return hasAttr(e.node, name)
}

// SetAttr sets or replaces the named attribute.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, name, value)
}

// RemoveAttr deletes the named attribute if present.
func (e *Element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.node, name)
}

// Data returns the value of the data-<name> attribute.
func (e *Element) Data(name string) (string, bool) {
	return e.Attr("data-" + name)
}

// Classes returns the class list tokens.
func (e *Element) Classes() []string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return classes(e.node)
}

// HasClass reports whether token is in the class list.
func (e *Element) HasClass(token string) bool {
	return slices.Contains(e.Classes(), token)
}

// AddClass appends token to the class list unless already present.
func (e *Element) AddClass(token string) {
	if token == "" {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	current := classes(e.node)
	if slices.Contains(current, token) {
		return
	}
	setClasses(e.node, append(current, token))
}

// RemoveClass removes every occurrence of token from the class list.
func (e *Element) RemoveClass(token string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	current := classes(e.node)
	kept := slices.DeleteFunc(slices.Clone(current), func(c string) bool { return c == token })
	if len(kept) == len(current) {
		return
	}
	setClasses(e.node, kept)
}

// Text returns the concatenated, trimmed text content.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.TrimSpace(b.String())
}

// SetText replaces the children with a single text node.
func (e *Element) SetText(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// AppendChild attaches child as the last child of e.
func (e *Element) AppendChild(child *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	e.node.AppendChild(child.node)
}

// OnClick registers fn to run when the element is clicked.
func (e *Element) OnClick(fn func(*Element)) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.doc.listeners[e.node] = append(e.doc.listeners[e.node], fn)
}

// Click dispatches a click to the element's listeners in registration order.
// It reports whether any listener ran.
func (e *Element) Click() bool {
	e.doc.mu.RLock()
	fns := slices.Clone(e.doc.listeners[e.node])
	e.doc.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
	return len(fns) > 0
}

// Is reports whether e and other refer to the same node.
func (e *Element) Is(other *Element) bool {
	return other != nil && e.node == other.node
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
}

func classes(n *html.Node) []string {
	v, _ := attr(n, "class")
	return strings.Fields(v)
}

func setClasses(n *html.Node, tokens []string) {
	if len(tokens) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(tokens, " "))
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := attr(n, name)
	return ok
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}
