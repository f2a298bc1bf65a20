// Package dom defines the host primitives the weave runtime is written
// against: elements, events, the custom-element registry and session
// history.
//
// The runtime never creates or walks DOM nodes on its own; it reads the
// subtree through QuerySelector, swaps children, and attaches listeners.
// pkg/htmldom and pkg/history provide in-memory implementations; a browser
// binding only has to satisfy the same interfaces.
package dom

import "errors"

var (
	// ErrAlreadyDefined is returned when a custom element name is defined twice.
	ErrAlreadyDefined = errors.New("custom element already defined")
	// ErrInvalidName is returned for names that are not valid custom element names.
	ErrInvalidName = errors.New("invalid custom element name")
	// ErrForeignNode is returned when a node from another document is inserted.
	ErrForeignNode = errors.New("node belongs to another document")
	// ErrHierarchy is returned when an insertion would create a cycle.
	ErrHierarchy = errors.New("insertion would create a cycle")
)

// Element is a node in the host document.
//
// Implementations must return an untyped nil from lookups that find
// nothing, and two Element values referring to the same node must compare
// equal so elements can key maps.
type Element interface {
	// TagName returns the lower-case tag name.
	TagName() string
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
	// SetAttr sets the named attribute.
	SetAttr(name, value string)
	// Parent returns the parent element, or nil.
	Parent() Element
	// Children returns the element children in document order.
	Children() []Element
	// QuerySelector returns the first descendant matching selector, or nil.
	QuerySelector(selector string) Element
	// QuerySelectorAll returns every descendant matching selector.
	QuerySelectorAll(selector string) []Element
	// AppendChild moves child to the end of this element's children.
	AppendChild(child Element) error
	// RemoveChildren removes every child node.
	RemoveChildren()
	// Remove detaches the element from its parent.
	Remove()
	// SetInnerHTML replaces the children with the parsed markup.
	SetInnerHTML(markup string) error
	// InnerHTML serializes the children.
	InnerHTML() string
	// TextContent returns the concatenated text of the subtree.
	TextContent() string
	// AddEventListener attaches l for eventType. Adding the same listener
	// twice for the same type has no effect.
	AddEventListener(eventType string, l *Listener)
	// RemoveEventListener detaches l for eventType.
	RemoveEventListener(eventType string, l *Listener)
	// Dispatch delivers e to this element and then to its ancestors.
	Dispatch(e *Event)
	// IsConnected reports whether the element is attached to its document.
	IsConnected() bool
	// Custom returns the custom element upgraded onto this node, or nil.
	Custom() CustomElement
}

// CustomElement receives lifecycle callbacks from the host document.
type CustomElement interface {
	// ConnectedCallback runs after the element is inserted into the document.
	ConnectedCallback()
	// DisconnectedCallback runs after the element is removed from the document.
	DisconnectedCallback()
}

// Retirer is implemented by custom elements whose disconnection is final.
// Once Retired reports true after DisconnectedCallback, the document drops
// the instance and never upgrades its node again.
type Retirer interface {
	Retired() bool
}

// Constructor builds the custom element for a freshly created host node.
type Constructor func(host Element) CustomElement

// Document is the host document together with its custom-element registry.
type Document interface {
	// Define registers ctor under name. When extends is non-empty the
	// element is a customized built-in of that tag.
	Define(name string, ctor Constructor, extends string) error
	// Defined reports whether name has been defined.
	Defined(name string) bool
	// CreateElement creates a detached element, upgrading it if name is defined.
	CreateElement(name string) (Element, error)
	// QuerySelector returns the first element in the document matching selector.
	QuerySelector(selector string) Element
	// Body returns the body element.
	Body() Element
}

// History is the host's session history and location.
type History interface {
	// Path returns the current location path.
	Path() string
	// PushState adds a history entry for path without reloading and
	// without notifying popstate listeners.
	PushState(data any, path string)
	// OnPopState registers fn for back/forward navigation.
	OnPopState(fn func(path string)) (remove func())
}
