// Package artifact models a generated TAK XML document as a navigable
// element tree. Parsing failure is the first critical validation stage, so
// the parser reports syntax errors verbatim rather than repairing anything.
package artifact

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is one XML element: tag, attributes, text content and child elements.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Parse decodes an XML document string into its root node.
func Parse(text string) (*Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))

	var root *Node
	var stack []*Node
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("XML syntax error: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &Node{Tag: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, attr := range t.Attr {
				node.Attrs[attr.Name.Local] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("XML syntax error: multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("XML syntax error: unexpected closing tag </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += strings.TrimSpace(string(t))
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("XML syntax error: document has no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("XML syntax error: unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	return root, nil
}

// Attr returns the named attribute value, empty if absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Find returns the first descendant (or self) with the given tag,
// depth-first in document order.
func (n *Node) Find(tag string) *Node {
	if n == nil {
		return nil
	}
	if n.Tag == tag {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant (or self) with the given tag, in document
// order.
func (n *Node) FindAll(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	if n.Tag == tag {
		out = append(out, n)
	}
	for _, child := range n.Children {
		out = append(out, child.FindAll(tag)...)
	}
	return out
}

// Walk visits every element depth-first in document order.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// ChildrenByTag returns the direct children with the given tag.
func (n *Node) ChildrenByTag(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, child := range n.Children {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}
