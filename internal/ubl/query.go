package ubl

import (
	"strings"

	"github.com/beevik/etree"
)

// QName identifies an element by namespace URI and local name. Prefix is
// the conventional binding, accepted when a document leaves it undeclared.
type QName struct {
	URI    string
	Prefix string
	Local  string
}

// CBCName returns the qualified name of a basic component
func CBCName(local string) QName {
	return QName{URI: NamespaceCBC, Prefix: PrefixCBC, Local: local}
}

// CACName returns the qualified name of an aggregate component
func CACName(local string) QName {
	return QName{URI: NamespaceCAC, Prefix: PrefixCAC, Local: local}
}

// Matches reports whether el has this name
func (q QName) Matches(el *etree.Element) bool {
	if el == nil || el.Tag != q.Local {
		return false
	}
	if uri := el.NamespaceURI(); uri != "" {
		return uri == q.URI
	}
	return el.Space == q.Prefix
}

// String returns the conventional prefixed form
func (q QName) String() string {
	return q.Prefix + ":" + q.Local
}

// FindChild returns the first direct child named q
func FindChild(el *etree.Element, q QName) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if q.Matches(c) {
			return c
		}
	}
	return nil
}

// FindChildren returns every direct child named q
func FindChildren(el *etree.Element, q QName) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if q.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// FindPath walks direct children step by step
func FindPath(el *etree.Element, path ...QName) *etree.Element {
	for _, q := range path {
		el = FindChild(el, q)
		if el == nil {
			return nil
		}
	}
	return el
}

// FindDescendant returns the first descendant named q in document order
func FindDescendant(el *etree.Element, q QName) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if q.Matches(c) {
			return c
		}
		if found := FindDescendant(c, q); found != nil {
			return found
		}
	}
	return nil
}

// Text returns the trimmed text of el, or "" when el is nil
func Text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
