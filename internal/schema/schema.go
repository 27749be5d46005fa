// Package schema consumes the TAK XML Schema document for two purposes:
// structural validation of generated artifacts, and extraction of the named
// schema fragment for a concept type (used as prompt context).
//
// The validation is structural: declared root elements, required child
// elements and required attributes. It is deliberately not a full XSD
// processor; the business-logic layer covers the semantic ground.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"takforge/domain/artifact"
	"takforge/domain/core"
)

// Schema is a compiled structural view of the XSD document.
type Schema struct {
	doc      *artifact.Node
	elements map[string]*elementDecl
}

// elementDecl is the structural contract of one declared element.
type elementDecl struct {
	Name          string
	Optional      bool
	RequiredAttrs []string
	Children      []*elementDecl
	node          *artifact.Node
}

// New compiles a schema from the XSD document text.
func New(xsdText string) (*Schema, error) {
	doc, err := artifact.Parse(xsdText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSchemaUnreadable, err)
	}
	if doc.Tag != "schema" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <schema>", core.ErrSchemaUnreadable, doc.Tag)
	}

	s := &Schema{doc: doc, elements: make(map[string]*elementDecl)}
	for _, el := range doc.ChildrenByTag("element") {
		decl := buildDecl(el, false)
		if decl.Name != "" {
			s.elements[decl.Name] = decl
		}
	}
	return s, nil
}

// buildDecl compiles one xs:element declaration, recursing through its inline
// complexType. Children under a choice group are treated as optional.
func buildDecl(el *artifact.Node, inChoice bool) *elementDecl {
	decl := &elementDecl{
		Name:     el.Attr("name"),
		Optional: inChoice || el.Attr("minOccurs") == "0",
		node:     el,
	}
	for _, ct := range el.ChildrenByTag("complexType") {
		collectContent(ct, decl, inChoice)
	}
	return decl
}

// collectContent gathers attribute and child-element declarations from a
// complexType content model.
func collectContent(n *artifact.Node, decl *elementDecl, inChoice bool) {
	for _, child := range n.Children {
		switch child.Tag {
		case "attribute":
			if child.Attr("use") == "required" {
				decl.RequiredAttrs = append(decl.RequiredAttrs, child.Attr("name"))
			}
		case "sequence", "all":
			collectContent(child, decl, inChoice)
		case "choice":
			collectContent(child, decl, true)
		case "element":
			decl.Children = append(decl.Children, buildDecl(child, inChoice))
		}
	}
}

// RootTags lists the declared top-level element names, sorted.
func (s *Schema) RootTags() []string {
	tags := make([]string, 0, len(s.elements))
	for tag := range s.elements {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Validate checks an artifact document against the structural contract of its
// root element. Violations come back as ordered human-readable strings; an
// undeclared root is itself a violation.
func (s *Schema) Validate(doc *artifact.Node) []string {
	decl, ok := s.elements[doc.Tag]
	if !ok {
		return []string{fmt.Sprintf("root element <%s> is not declared by the schema", doc.Tag)}
	}
	var violations []string
	validateNode(doc, decl, doc.Tag, &violations)
	return violations
}

// validateNode checks one element against its declaration, recursing into
// declared children that are present.
func validateNode(node *artifact.Node, decl *elementDecl, path string, violations *[]string) {
	for _, attr := range decl.RequiredAttrs {
		if _, ok := node.Attrs[attr]; !ok {
			*violations = append(*violations,
				fmt.Sprintf("<%s> is missing required attribute '%s'", path, attr))
		}
	}
	for _, childDecl := range decl.Children {
		present := node.ChildrenByTag(childDecl.Name)
		if len(present) == 0 {
			if !childDecl.Optional {
				*violations = append(*violations,
					fmt.Sprintf("<%s> is missing required element <%s>", path, childDecl.Name))
			}
			continue
		}
		for _, child := range present {
			validateNode(child, childDecl, path+"/"+childDecl.Name, violations)
		}
	}
}

// ExtractFragment returns the schema fragment declaring the given concept
// type, re-serialized as indented XML. Used to anchor generation prompts to
// the exact structural contract.
func (s *Schema) ExtractFragment(conceptType core.ConceptType) (string, error) {
	decl, ok := s.elements[string(conceptType)]
	if !ok {
		return "", fmt.Errorf("%w: concept type '%s'", core.ErrFragmentNotFound, conceptType)
	}
	var b strings.Builder
	render(decl.node, &b, 0)
	return b.String(), nil
}

// render serializes a node subtree with two-space indentation. The xs prefix
// is restored so fragments read like the source schema.
func render(n *artifact.Node, b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString("<xs:" + n.Tag)

	attrs := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)
	for _, name := range attrs {
		fmt.Fprintf(b, " %s=%q", name, n.Attrs[name])
	}

	if len(n.Children) == 0 && n.Text == "" {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">\n")
	for _, child := range n.Children {
		render(child, b, depth+1)
	}
	b.WriteString(indent + "</xs:" + n.Tag + ">\n")
}
