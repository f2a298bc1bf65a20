package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/dom"
)

// Finder locates elements in the document.
type Finder interface {
	// Evaluate returns all matching descendants of root in document order.
	Evaluate(root dom.Element) []dom.Element
	// Description names the finder in failure messages.
	Description() string
}

// FinderResult holds the elements a Finder matched, in document order.
type FinderResult struct {
	elements []dom.Element
	finder   Finder
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match and panics when there is none.
func (r FinderResult) First() dom.Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.description()))
	}
	return r.elements[0]
}

// FirstOrNil is First without the panic.
func (r FinderResult) FirstOrNil() dom.Element {
	if len(r.elements) == 0 {
		return nil
	}
	return r.elements[0]
}

// At returns the index-th match and panics when index is out of range.
func (r FinderResult) At(index int) dom.Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.description()))
	}
	return r.elements[index]
}

// All returns all matches in document order.
func (r FinderResult) All() []dom.Element {
	return r.elements
}

// Count is the number of matches.
func (r FinderResult) Count() int {
	return len(r.elements)
}

// Exists reports whether anything matched.
func (r FinderResult) Exists() bool {
	return len(r.elements) > 0
}

// Text returns the trimmed text content of the first match.
// Panics if no matches.
func (r FinderResult) Text() string {
	return strings.TrimSpace(r.First().TextContent())
}

// Component returns the component backing the first match, or nil.
// Panics if no matches.
func (r FinderResult) Component() *component.Component {
	return component.Of(r.First())
}

type selectorFinder struct {
	selector string
}

func (f *selectorFinder) Evaluate(root dom.Element) []dom.Element {
	return root.QuerySelectorAll(f.selector)
}

func (f *selectorFinder) Description() string {
	return fmt.Sprintf("BySelector(%q)", f.selector)
}

// BySelector finds elements matching a CSS selector.
func BySelector(selector string) Finder {
	return &selectorFinder{selector: selector}
}

type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root dom.Element) []dom.Element {
	return collectMatches(root, func(e dom.Element) bool {
		return e.TagName() == f.tag
	})
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag finds elements with the given tag name.
func ByTag(tag string) Finder {
	return &tagFinder{tag: strings.ToLower(tag)}
}

type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root dom.Element) []dom.Element {
	return collectMatches(root, func(e dom.Element) bool {
		return strings.TrimSpace(e.TextContent()) == f.text && !childHasText(e, f.text)
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText finds the innermost elements whose trimmed text content equals
// text exactly.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root dom.Element) []dom.Element {
	return collectMatches(root, func(e dom.Element) bool {
		if !strings.Contains(e.TextContent(), f.substring) {
			return false
		}
		for _, c := range e.Children() {
			if strings.Contains(c.TextContent(), f.substring) {
				return false
			}
		}
		return true
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining finds the innermost elements whose text content
// contains substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

type componentFinder struct {
	name string
}

func (f *componentFinder) Evaluate(root dom.Element) []dom.Element {
	return collectMatches(root, func(e dom.Element) bool {
		c := component.Of(e)
		return c != nil && c.Name() == f.name
	})
}

func (f *componentFinder) Description() string {
	return fmt.Sprintf("ByComponent(%q)", f.name)
}

// ByComponent finds elements backed by the component registered as name.
func ByComponent(name string) Finder {
	return &componentFinder{name: strings.ToLower(name)}
}

type predicateFinder struct {
	fn   func(dom.Element) bool
	desc string
}

func (f *predicateFinder) Evaluate(root dom.Element) []dom.Element {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate finds elements for which fn returns true.
func ByPredicate(fn func(dom.Element) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(custom)"}
}

type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root dom.Element) []dom.Element {
	var out []dom.Element
	seen := make(map[dom.Element]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, e := range f.matching.Evaluate(ancestor) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("%s inside %s", f.matching.Description(), f.of.Description())
}

// Descendant finds elements matching matching that are descendants of
// elements matching of.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

func childHasText(e dom.Element, text string) bool {
	for _, c := range e.Children() {
		if strings.TrimSpace(c.TextContent()) == text {
			return true
		}
	}
	return false
}

// collectMatches walks root's descendants in document order.
func collectMatches(root dom.Element, predicate func(dom.Element) bool) []dom.Element {
	var out []dom.Element
	var walk func(dom.Element)
	walk = func(e dom.Element) {
		for _, c := range e.Children() {
			if predicate(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}
