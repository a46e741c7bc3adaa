// Package ubl describes UBL 2.1 invoice documents as a small declarative
// node tree and serializes that tree with one generic writer.
package ubl

// Fixed namespace bindings of the invoice dialect
const (
	NamespaceInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	PrefixCAC = "cac"
	PrefixCBC = "cbc"

	RootElement = "Invoice"
)

// Attr is a single element attribute
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document schema. Prefix is empty for the
// default namespace.
type Node struct {
	Prefix   string
	Local    string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// CAC creates an aggregate component
func CAC(local string, children ...*Node) *Node {
	return &Node{Prefix: PrefixCAC, Local: local, Children: compact(children)}
}

// CBC creates a basic component carrying text
func CBC(local, text string, attrs ...Attr) *Node {
	return &Node{Prefix: PrefixCBC, Local: local, Text: text, Attrs: attrs}
}

// Invoice creates the document root with every namespace bound
func Invoice(children ...*Node) *Node {
	return &Node{
		Local: RootElement,
		Attrs: []Attr{
			{Name: "xmlns", Value: NamespaceInvoice},
			{Name: "xmlns:" + PrefixCAC, Value: NamespaceCAC},
			{Name: "xmlns:" + PrefixCBC, Value: NamespaceCBC},
		},
		Children: compact(children),
	}
}

// Add appends non-nil children and returns n
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, compact(children)...)
	return n
}

// Tag returns the qualified element name
func (n *Node) Tag() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// compact drops nil entries so optional blocks can be passed inline
func compact(nodes []*Node) []*Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
