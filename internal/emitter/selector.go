package emitter

import "strings"

// LocatorKind is the typed locator strategy a selector maps to.
type LocatorKind string

const (
	LocatorID    LocatorKind = "id"
	LocatorClass LocatorKind = "class"
	LocatorCSS   LocatorKind = "css"
)

// Locator is a classified selector.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// ClassifySelector maps a selector to a typed locator by its leading
// character only: '#' is an id, '.' is a class, anything else is css.
// It does not parse CSS.
func ClassifySelector(selector string) Locator {
	switch {
	case strings.HasPrefix(selector, "#"):
		return Locator{Kind: LocatorID, Value: selector[1:]}
	case strings.HasPrefix(selector, "."):
		return Locator{Kind: LocatorClass, Value: selector[1:]}
	default:
		return Locator{Kind: LocatorCSS, Value: selector}
	}
}
