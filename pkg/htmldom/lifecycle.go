package htmldom

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"

	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
)

// definitionFor finds the definition matching n, either an autonomous
// custom element by tag or a customized built-in by its is attribute.
func (d *Document) definitionFor(n *html.Node) *definition {
	if n.Type != html.ElementNode {
		return nil
	}
	if is, ok := lookupAttr(n, "is"); ok {
		if def, ok := d.defs[is]; ok && def.extends == n.Data {
			return def
		}
	}
	if def, ok := d.defs[n.Data]; ok && def.extends == "" {
		return def
	}
	return nil
}

// upgrade constructs the custom element for n if it is defined and not yet
// upgraded.
func (d *Document) upgrade(n *html.Node) {
	if _, done := d.customs[n]; done || d.retired.has(n) {
		return
	}
	def := d.definitionFor(n)
	if def == nil {
		return
	}
	rec := &customRecord{name: def.name}
	d.customs[n] = rec
	errors.Guard("htmldom.upgrade", errors.KindHost, def.name, func() {
		rec.ce = def.ctor(d.wrap(n))
	})
}

func (d *Document) upgradeTree(root *html.Node) {
	for _, n := range preorder(root) {
		d.upgrade(n)
	}
}

// connectTree fires ConnectedCallback for every upgraded element under
// root (inclusive) that is in the document and not yet connected. The node
// list is captured first so elements rendered by a callback are connected
// by their own insertion, not twice.
func (d *Document) connectTree(root *html.Node) {
	if !d.contains(root) {
		return
	}
	for _, n := range preorder(root) {
		rec := d.customs[n]
		if rec == nil || rec.connected || rec.ce == nil || !d.contains(n) {
			continue
		}
		rec.connected = true
		errors.Guard("htmldom.connected", errors.KindHost, rec.name, rec.ce.ConnectedCallback)
	}
}

// disconnectTree fires DisconnectedCallback for every connected element
// under root (inclusive). root must already be detached.
func (d *Document) disconnectTree(root *html.Node) {
	for _, n := range preorder(root) {
		rec := d.customs[n]
		if rec == nil || !rec.connected {
			continue
		}
		rec.connected = false
		errors.Guard("htmldom.disconnected", errors.KindHost, rec.name, rec.ce.DisconnectedCallback)
		if r, ok := rec.ce.(dom.Retirer); ok && r.Retired() {
			delete(d.customs, n)
			d.retired.add(n)
		}
	}
}

// retiredSet remembers nodes whose custom element retired without keeping
// the nodes alive. Entries vanish once a node is collected.
type retiredSet struct {
	nodes sync.Map // weak.Pointer[html.Node] -> struct{}
}

func (s *retiredSet) add(n *html.Node) {
	key := weak.Make(n)
	if _, loaded := s.nodes.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	runtime.AddCleanup(n, func(k weak.Pointer[html.Node]) { s.nodes.Delete(k) }, key)
}

func (s *retiredSet) has(n *html.Node) bool {
	_, ok := s.nodes.Load(weak.Make(n))
	return ok
}

// insert appends n under parent, upgrading and connecting as needed.
func (d *Document) insert(parent, n *html.Node) {
	parent.AppendChild(n)
	d.upgradeTree(n)
	d.connectTree(n)
}

// detach removes n from its parent and disconnects it if it was in the
// document.
func (d *Document) detach(n *html.Node) {
	if n.Parent == nil {
		return
	}
	wasConnected := d.contains(n)
	n.Parent.RemoveChild(n)
	if wasConnected {
		d.disconnectTree(n)
	}
}

func preorder(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}
