package htmldom

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
)

// Element is a handle on an element node. Handles are small values; two
// handles on the same node compare equal.
type Element struct {
	doc  *Document
	node *html.Node
}

var _ dom.Element = Element{}

// Node returns the underlying html node.
func (e Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e Element) Document() *Document { return e.doc }

// TagName returns the lower-case tag name.
func (e Element) TagName() string { return e.node.Data }

// Attr returns the value of the named attribute.
func (e Element) Attr(name string) (string, bool) {
	return lookupAttr(e.node, strings.ToLower(name))
}

// Attrs returns a copy of the attribute list.
func (e Element) Attrs() []html.Attribute {
	return slices.Clone(e.node.Attr)
}

// SetAttr sets the named attribute.
func (e Element) SetAttr(name, value string) {
	name = strings.ToLower(name)
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr removes the named attribute.
func (e Element) RemoveAttr(name string) {
	name = strings.ToLower(name)
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool { return a.Key == name })
}

// Parent returns the parent element, or nil.
func (e Element) Parent() dom.Element {
	if p := elementParent(e.node); p != nil {
		return e.doc.wrap(p)
	}
	return nil
}

// Children returns the element children in document order.
func (e Element) Children() []dom.Element {
	var out []dom.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// QuerySelector returns the first descendant matching selector, or nil.
func (e Element) QuerySelector(selector string) dom.Element {
	if found := queryAll(e.node, selector, 1); len(found) > 0 {
		return e.doc.wrap(found[0])
	}
	return nil
}

// QuerySelectorAll returns every descendant matching selector.
func (e Element) QuerySelectorAll(selector string) []dom.Element {
	return e.doc.wrapAll(queryAll(e.node, selector, 0))
}

// Matches reports whether the element itself matches selector.
func (e Element) Matches(selector string) bool {
	return matchesAny(parseSelectorList(selector), e.node)
}

// AppendChild moves child to the end of this element's children. Moving a
// connected element disconnects and reconnects it.
func (e Element) AppendChild(child dom.Element) error {
	c, ok := child.(Element)
	if !ok || c.doc != e.doc {
		return dom.ErrForeignNode
	}
	for p := e.node; p != nil; p = p.Parent {
		if p == c.node {
			return dom.ErrHierarchy
		}
	}
	e.doc.detach(c.node)
	e.doc.insert(e.node, c.node)
	return nil
}

// RemoveChildren removes every child node, disconnecting custom elements.
func (e Element) RemoveChildren() {
	for e.node.FirstChild != nil {
		e.doc.detach(e.node.FirstChild)
	}
}

// Remove detaches the element from its parent.
func (e Element) Remove() {
	e.doc.detach(e.node)
}

// SetInnerHTML replaces the children with the parsed markup.
func (e Element) SetInnerHTML(markup string) error {
	context := &html.Node{Type: html.ElementNode, Data: e.node.Data, DataAtom: e.node.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("htmldom: parse fragment for <%s>: %w", e.node.Data, err)
	}
	e.RemoveChildren()
	for _, n := range nodes {
		e.doc.insert(e.node, n)
	}
	return nil
}

// SetTextContent replaces the children with a single text node.
func (e Element) SetTextContent(text string) {
	e.RemoveChildren()
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// InnerHTML serializes the children.
func (e Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// OuterHTML serializes the element itself.
func (e Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, e.node); err != nil {
		return ""
	}
	return buf.String()
}

// TextContent returns the concatenated text of the subtree.
func (e Element) TextContent() string {
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
	walk(e.node)
	return sb.String()
}

// AddEventListener attaches l for eventType.
func (e Element) AddEventListener(eventType string, l *dom.Listener) {
	if l == nil {
		return
	}
	byType := e.doc.listeners[e.node]
	if byType == nil {
		byType = make(map[string][]*dom.Listener)
		e.doc.listeners[e.node] = byType
	}
	if slices.Contains(byType[eventType], l) {
		return
	}
	byType[eventType] = append(byType[eventType], l)
}

// RemoveEventListener detaches l for eventType.
func (e Element) RemoveEventListener(eventType string, l *dom.Listener) {
	byType := e.doc.listeners[e.node]
	if byType == nil {
		return
	}
	byType[eventType] = slices.DeleteFunc(byType[eventType], func(x *dom.Listener) bool { return x == l })
	if len(byType[eventType]) == 0 {
		delete(byType, eventType)
	}
	if len(byType) == 0 {
		delete(e.doc.listeners, e.node)
	}
}

// ListenerCount returns the number of listeners attached for eventType,
// or for every type when eventType is empty.
func (e Element) ListenerCount(eventType string) int {
	byType := e.doc.listeners[e.node]
	if eventType != "" {
		return len(byType[eventType])
	}
	total := 0
	for _, ls := range byType {
		total += len(ls)
	}
	return total
}

// Dispatch delivers ev to the element and then to each ancestor until
// propagation is stopped. A panicking listener is reported and does not
// prevent the remaining listeners from running.
func (e Element) Dispatch(ev *dom.Event) {
	if ev == nil {
		return
	}
	ev.Target = e
	for n := e.node; n != nil; n = elementParent(n) {
		current := e.doc.wrap(n)
		ev.CurrentTarget = current
		for _, l := range slices.Clone(e.doc.listeners[n][ev.Type]) {
			errors.Guard("htmldom.dispatch", errors.KindEvent, n.Data, func() { l.Handle(ev) })
		}
		if ev.PropagationStopped() {
			return
		}
	}
}

// IsConnected reports whether the element is attached to its document.
func (e Element) IsConnected() bool {
	return e.doc.contains(e.node)
}

// Custom returns the custom element upgraded onto this node, or nil.
func (e Element) Custom() dom.CustomElement {
	if rec := e.doc.customs[e.node]; rec != nil && rec.ce != nil {
		return rec.ce
	}
	return nil
}
