// Package htmldom is an in-memory DOM built on golang.org/x/net/html.
//
// It implements the pkg/dom interfaces closely enough to host weave
// components outside a browser: markup is parsed with the HTML5 parser,
// custom elements are upgraded and receive connected/disconnected
// callbacks, and events bubble from target to root.
//
//	doc := htmldom.NewDocument()
//	body := doc.Body()
//	_ = body.SetInnerHTML(`<button id="save">Save</button>`)
//	btn := doc.QuerySelector("#save")
//	btn.AddEventListener("click", dom.NewListener(func(e *dom.Event) { ... }))
//	btn.Dispatch(dom.NewEvent("click"))
//
// A Document is not safe for concurrent use.
package htmldom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/weave/pkg/dom"
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

type definition struct {
	name    string
	extends string
	ctor    dom.Constructor
}

type customRecord struct {
	name      string
	ce        dom.CustomElement
	connected bool
}

// Document is an in-memory HTML document with a custom-element registry.
type Document struct {
	root      *html.Node
	defs      map[string]*definition
	customs   map[*html.Node]*customRecord
	retired   retiredSet
	listeners map[*html.Node]map[string][]*dom.Listener
}

var _ dom.Document = (*Document)(nil)

// NewDocument returns an empty HTML page.
func NewDocument() *Document {
	doc, err := Parse(strings.NewReader(blankPage))
	if err != nil {
		panic(fmt.Sprintf("htmldom: parse blank page: %v", err))
	}
	return doc
}

// Parse builds a document from a full HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: parse document: %w", err)
	}
	return &Document{
		root:      root,
		defs:      make(map[string]*definition),
		customs:   make(map[*html.Node]*customRecord),
		listeners: make(map[*html.Node]map[string][]*dom.Listener),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(page string) (*Document, error) {
	return Parse(strings.NewReader(page))
}

// Define registers a custom element. Elements already in the document that
// carry the name are upgraded and connected immediately.
func (d *Document) Define(name string, ctor dom.Constructor, extends string) error {
	name = strings.ToLower(name)
	if !validCustomName(name) || ctor == nil {
		return fmt.Errorf("%w: %q", dom.ErrInvalidName, name)
	}
	if _, ok := d.defs[name]; ok {
		return fmt.Errorf("%w: %q", dom.ErrAlreadyDefined, name)
	}
	d.defs[name] = &definition{name: name, extends: strings.ToLower(extends), ctor: ctor}
	d.upgradeTree(d.root)
	d.connectTree(d.root)
	return nil
}

// Defined reports whether name has been defined.
func (d *Document) Defined(name string) bool {
	_, ok := d.defs[strings.ToLower(name)]
	return ok
}

// CreateElement creates a detached element. Defined names are upgraded
// before CreateElement returns; customized built-ins get their base tag and
// an is attribute.
func (d *Document) CreateElement(name string) (dom.Element, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("htmldom: empty tag name")
	}
	n := &html.Node{Type: html.ElementNode, Data: name, DataAtom: atom.Lookup([]byte(name))}
	if def, ok := d.defs[name]; ok && def.extends != "" {
		n.Data = def.extends
		n.DataAtom = atom.Lookup([]byte(def.extends))
		n.Attr = append(n.Attr, html.Attribute{Key: "is", Val: name})
	}
	d.upgrade(n)
	return d.wrap(n), nil
}

// QuerySelector returns the first element in the document matching selector.
func (d *Document) QuerySelector(selector string) dom.Element {
	if found := queryAll(d.root, selector, 1); len(found) > 0 {
		return d.wrap(found[0])
	}
	return nil
}

// QuerySelectorAll returns every element in the document matching selector.
func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	return d.wrapAll(queryAll(d.root, selector, 0))
}

// Body returns the body element.
func (d *Document) Body() dom.Element {
	if n := d.findAtom(atom.Body); n != nil {
		return d.wrap(n)
	}
	return nil
}

// DocumentElement returns the html element.
func (d *Document) DocumentElement() Element {
	return d.wrap(d.findAtom(atom.Html))
}

// HTML serializes the whole document.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}

// ListenerCount returns the number of listeners attached anywhere,
// including on nodes that have been removed from the document.
func (d *Document) ListenerCount() int {
	total := 0
	for _, byType := range d.listeners {
		for _, ls := range byType {
			total += len(ls)
		}
	}
	return total
}

// CustomCount returns the number of custom element instances the document
// still tracks, connected or not.
func (d *Document) CustomCount() int { return len(d.customs) }

func (d *Document) findAtom(a atom.Atom) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return found
}

func (d *Document) wrap(n *html.Node) Element {
	return Element{doc: d, node: n}
}

func (d *Document) wrapAll(nodes []*html.Node) []dom.Element {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]dom.Element, len(nodes))
	for i, n := range nodes {
		out[i] = d.wrap(n)
	}
	return out
}

func (d *Document) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// validCustomName applies the custom element naming rule: lower-case,
// starting with a letter, containing a hyphen.
func validCustomName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' || !strings.Contains(name, "-") {
		return false
	}
	for _, r := range name {
		if r >= 'A' && r <= 'Z' || r == ' ' || r == '>' || r == '/' {
			return false
		}
	}
	return true
}
