// fastview implements a builder pattern to implement simple views:
// given an input data format, apply a transformation to a view-model,
// and then multiplex that data to one or more views. Views publish element
// updates, which the page's bootstrap script applies to the dom by element id.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attrib keys or one of the reserved keys below, values are the strings to which these are set.
	// Example: ('transform','rotate(3)') means 'set attribute transform to rotate(3)'.
	Ops []Op
}

// Reserved op keys, which the page applies as dom properties rather than attributes.
// Form inputs need 'value' as a property: setting the attribute does not move a slider
// once the user has touched it.
const (
	TextContent = "textContent"
	Value       = "value"
)

// Op is a key and value. For example an svg attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent implements server side views: Parse to add their initial form to the
// page template, and Updates to obtain the chan by which ele-updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse parses the view-component and adds it to the passed parent template, thus inheriting
	// or possibly extending its definition (func-map, etc). It returns the template name.
	Parse(*template.Template) (string, error)
}
