package ubl

import (
	"github.com/beevik/etree"
)

// WriteOptions controls serialization
type WriteOptions struct {
	// Indent is the number of spaces per level; negative disables indentation
	Indent int
}

// DefaultWriteOptions returns two-space indentation
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Indent: 2}
}

// ToDocument converts a node tree into an etree document
func ToDocument(root *Node, opts WriteOptions) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	build(&doc.Element, root)
	if opts.Indent >= 0 {
		doc.Indent(opts.Indent)
	}
	return doc
}

// Serialize renders a node tree as an XML string
func Serialize(root *Node, opts WriteOptions) (string, error) {
	return ToDocument(root, opts).WriteToString()
}

func build(parent *etree.Element, n *Node) {
	el := parent.CreateElement(n.Tag())
	for _, a := range n.Attrs {
		el.CreateAttr(a.Name, a.Value)
	}
	if n.Text != "" {
		el.SetText(n.Text)
	}
	for _, c := range n.Children {
		build(el, c)
	}
}
