// Package xml reads and writes OpenLyrics song documents, the XML exchange format used by
// worship presentation software, and provides the XPath helpers the reader is built on.
//
// Documents are checked with Validate before they are parsed: DOCTYPE declarations are
// rejected outright and only the predefined XML entities are expanded, so no external or
// recursive entity is ever resolved.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult contains the result of XML validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Line    int
	Message string
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks that data is well-formed XML without a DOCTYPE declaration.
// Undeclared entities are errors because entity expansion is disabled.
func Validate(data []byte) ValidationResult {
	result := ValidationResult{Valid: true}
	fail := func(line int, msg string) ValidationResult {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Line: line, Message: msg})
		return result
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return result
		}
		if err != nil {
			line, _ := decoder.InputPos()
			return fail(line, err.Error())
		}
		if _, ok := tok.(xml.Directive); ok {
			line, _ := decoder.InputPos()
			return fail(line, "DOCTYPE declarations are not allowed")
		}
	}
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath returns the nodes matching expr, evaluated relative to n.
func (n *Node) XPath(expr string) ([]*Node, error) {
	compiled, err := compile(expr)
	if err != nil {
		return nil, err
	}
	nodes := xmlquery.QuerySelectorAll(n.node, compiled)
	result := make([]*Node, len(nodes))
	for i, found := range nodes {
		result[i] = &Node{node: found}
	}
	return result, nil
}

// XPathFirst returns the first node matching expr relative to n, or nil.
func (n *Node) XPathFirst(expr string) (*Node, error) {
	compiled, err := compile(expr)
	if err != nil {
		return nil, err
	}
	found := xmlquery.QuerySelector(n.node, compiled)
	if found == nil {
		return nil, nil
	}
	return &Node{node: found}, nil
}

// compiled caches expressions; the song reader evaluates the same few for every document.
var compiled sync.Map // string -> *xpath.Expr

func compile(expr string) (*xpath.Expr, error) {
	if e, ok := compiled.Load(expr); ok {
		return e.(*xpath.Expr), nil
	}
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	compiled.Store(expr, e)
	return e, nil
}

// Name returns the local element name.
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns all text content of the node and its descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Attr returns the value of a specific attribute.
func (n *Node) Attr(name string) string {
	if n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}
