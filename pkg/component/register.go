package component

import (
	"fmt"

	"github.com/go-drift/weave/pkg/dom"
)

// Definition is a component registered with a document.
type Definition struct {
	// Name is the custom element name.
	Name string
	// Extends is the built-in tag a customized built-in extends, or empty.
	Extends string

	ctor Constructor
}

// Register defines name on doc so that every element created or parsed
// with that name is backed by a Component built from ctor. When extends is
// set the component is a customized built-in of that tag.
//
// Register is a thin pass-through to the host registry; defining a name
// twice returns the host's error.
func Register(doc dom.Document, name string, ctor Constructor, extends string) (*Definition, error) {
	if ctor == nil {
		return nil, fmt.Errorf("register %s: nil constructor", name)
	}
	def := &Definition{Name: name, Extends: extends, ctor: ctor}
	err := doc.Define(name, func(host dom.Element) dom.CustomElement {
		return New(host, name, ctor())
	}, extends)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return def, nil
}

// Create makes a detached element for the definition and returns it with
// its component.
func (d *Definition) Create(doc dom.Document) (dom.Element, *Component, error) {
	el, err := doc.CreateElement(d.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", d.Name, err)
	}
	c, ok := el.Custom().(*Component)
	if !ok {
		return nil, nil, fmt.Errorf("create %s: element was not upgraded to a component", d.Name)
	}
	return el, c, nil
}

// Of returns the component backing el, or nil.
func Of(el dom.Element) *Component {
	if el == nil {
		return nil
	}
	c, _ := el.Custom().(*Component)
	return c
}
