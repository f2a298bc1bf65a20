package htmldom

import (
	"strings"

	"golang.org/x/net/html"
)

// Supported selector subset:
//   - tag: "button", "*"
//   - #id: "#save"
//   - .class: ".item", ".item.active"
//   - [attr], [attr=val], [attr="val"]
//   - compounds: "li.item[data-id=3]"
//   - descendant and child combinators: "ul li", "ul > li"
//   - selector lists: "button, a.link"

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	key      string
	val      string
	hasValue bool
}

// step is one compound plus the combinator linking it to the previous step.
type step struct {
	compound
	child bool // true for '>', false for descendant
}

type selector []step

func parseSelectorList(list string) []selector {
	var out []selector
	for _, part := range strings.Split(list, ",") {
		if sel := parseSelector(part); len(sel) > 0 {
			out = append(out, sel)
		}
	}
	return out
}

func parseSelector(sel string) selector {
	sel = strings.ReplaceAll(sel, ">", " > ")
	var steps selector
	child := false
	for _, tok := range strings.Fields(sel) {
		if tok == ">" {
			child = true
			continue
		}
		steps = append(steps, step{compound: parseCompound(tok), child: child})
		child = false
	}
	return steps
}

func parseCompound(tok string) compound {
	var c compound
	i := 0
	for i < len(tok) && !isDelimiter(tok[i]) {
		i++
	}
	c.tag = strings.ToLower(tok[:i])
	if c.tag == "*" {
		c.tag = ""
	}
	for i < len(tok) {
		switch tok[i] {
		case '#', '.':
			kind := tok[i]
			j := i + 1
			for j < len(tok) && !isDelimiter(tok[j]) {
				j++
			}
			name := tok[i+1 : j]
			if kind == '#' {
				c.id = name
			} else {
				c.classes = append(c.classes, name)
			}
			i = j
		case '[':
			j := strings.IndexByte(tok[i:], ']')
			if j < 0 {
				j = len(tok) - i
			}
			body := tok[i+1 : i+j]
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				c.attrs = append(c.attrs, attrMatch{
					key:      strings.ToLower(body[:eq]),
					val:      strings.Trim(body[eq+1:], `"'`),
					hasValue: true,
				})
			} else {
				c.attrs = append(c.attrs, attrMatch{key: strings.ToLower(body)})
			}
			i += j + 1
		default:
			i++
		}
	}
	return c
}

func isDelimiter(b byte) bool {
	return b == '#' || b == '.' || b == '['
}

func (c compound) matches(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && getAttr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range c.classes {
			found := false
			for _, cl := range have {
				if cl == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		val, ok := lookupAttr(n, a.key)
		if !ok || (a.hasValue && val != a.val) {
			return false
		}
	}
	return true
}

// matches evaluates the selector right to left against n and its ancestors.
func (s selector) matches(n *html.Node) bool {
	return s.matchAt(n, len(s)-1)
}

func (s selector) matchAt(n *html.Node, i int) bool {
	if !s[i].matches(n) {
		return false
	}
	if i == 0 {
		return true
	}
	if s[i].child {
		return s.matchAt(elementParent(n), i-1)
	}
	for p := elementParent(n); p != nil; p = elementParent(p) {
		if s.matchAt(p, i-1) {
			return true
		}
	}
	return false
}

func matchesAny(sels []selector, n *html.Node) bool {
	for _, s := range sels {
		if s.matches(n) {
			return true
		}
	}
	return false
}

// queryAll collects descendants of root matching any selector, in
// document order. root itself is never included.
func queryAll(root *html.Node, list string, limit int) []*html.Node {
	sels := parseSelectorList(list)
	if len(sels) == 0 {
		return nil
	}
	var out []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && matchesAny(sels, c) {
				out = append(out, c)
				if limit > 0 && len(out) >= limit {
					return false
				}
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
	return out
}

func elementParent(n *html.Node) *html.Node {
	if n == nil || n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
