package parser

import (
	"context"
	"encoding/json"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Danoha/lexemite/pkg/engine"
)

// JSONDocument is a JSON text parsed for source locations. The document is
// parsed as a parenthesized JavaScript expression, so every span is shifted
// back by the one byte of the opening parenthesis.
type JSONDocument struct {
	result *ParseResult
	value  *sitter.Node
}

// ParseJSON parses src for location lookups.
func (p *Parser) ParseJSON(ctx context.Context, src []byte, path string) (*JSONDocument, error) {
	wrapped := make([]byte, 0, len(src)+2)
	wrapped = append(wrapped, '(')
	wrapped = append(wrapped, src...)
	wrapped = append(wrapped, ')')

	result, err := p.Parse(ctx, wrapped, LangJavaScript, path)
	if err != nil {
		return nil, err
	}

	doc := &JSONDocument{result: result}
	if paren := FirstNodeOfType(result.Tree.RootNode(), "parenthesized_expression"); paren != nil && paren.NamedChildCount() > 0 {
		doc.value = paren.NamedChild(0)
	}
	return doc, nil
}

// Close releases the underlying tree.
func (d *JSONDocument) Close() {
	d.result.Close()
}

// Find returns the location of the value at path. String segments select
// object members and numeric segments select array items.
func (d *JSONDocument) Find(path ...string) (*engine.Location, bool) {
	node := d.lookup(path)
	if node == nil {
		return nil, false
	}
	return d.shift(Location(node)), true
}

// HasError reports whether the text is not well-formed.
func (d *JSONDocument) HasError() bool {
	return d.value == nil || d.result.Tree.RootNode().HasError()
}

// Keys returns the member names of the object at path in document order.
func (d *JSONDocument) Keys(path ...string) []string {
	node := d.lookup(path)
	if node == nil || node.Type() != "object" {
		return nil
	}
	var keys []string
	for i := range int(node.NamedChildCount()) {
		if pair := node.NamedChild(i); pair.Type() == "pair" {
			keys = append(keys, d.text(pair.ChildByFieldName("key")))
		}
	}
	return keys
}

// String returns the string value at path.
func (d *JSONDocument) String(path ...string) (string, bool) {
	node := d.lookup(path)
	if node == nil || node.Type() != "string" {
		return "", false
	}
	return d.text(node), true
}

// JSONString is a string value found in a document with the path leading to it.
type JSONString struct {
	Value string
	Path  []string
}

// Strings returns every string value at or below path in document order.
func (d *JSONDocument) Strings(path ...string) []JSONString {
	var out []JSONString
	var collect func(node *sitter.Node, at []string)
	collect = func(node *sitter.Node, at []string) {
		switch node.Type() {
		case "string":
			out = append(out, JSONString{Value: d.text(node), Path: at})
		case "array":
			for i := range int(node.NamedChildCount()) {
				collect(node.NamedChild(i), appendPath(at, strconv.Itoa(i)))
			}
		case "object":
			for i := range int(node.NamedChildCount()) {
				pair := node.NamedChild(i)
				if pair.Type() != "pair" {
					continue
				}
				if value := pair.ChildByFieldName("value"); value != nil {
					collect(value, appendPath(at, d.text(pair.ChildByFieldName("key"))))
				}
			}
		}
	}
	if node := d.lookup(path); node != nil {
		collect(node, path)
	}
	return out
}

func appendPath(path []string, segment string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), segment)
}

func (d *JSONDocument) lookup(path []string) *sitter.Node {
	node := d.value
	for _, field := range path {
		if node == nil {
			return nil
		}
		switch node.Type() {
		case "object":
			node = d.member(node, field)
		case "array":
			i, err := strconv.Atoi(field)
			if err != nil || i < 0 || i >= int(node.NamedChildCount()) {
				return nil
			}
			node = node.NamedChild(i)
		default:
			return nil
		}
	}
	return node
}

// text decodes a string literal, escapes included, or returns the raw text
// of any other node.
func (d *JSONDocument) text(node *sitter.Node) string {
	raw := GetNodeText(node, d.result.Source)
	var s string
	if node != nil && node.Type() == "string" && json.Unmarshal([]byte(raw), &s) == nil {
		return s
	}
	if s, ok := StringValue(node, d.result.Source); ok {
		return s
	}
	return raw
}

func (d *JSONDocument) member(object *sitter.Node, name string) *sitter.Node {
	for i := range int(object.NamedChildCount()) {
		pair := object.NamedChild(i)
		if pair.Type() == "pair" && d.text(pair.ChildByFieldName("key")) == name {
			return pair.ChildByFieldName("value")
		}
	}
	return nil
}

func (d *JSONDocument) shift(loc *engine.Location) *engine.Location {
	if loc.StartByte > 0 {
		loc.StartByte--
	}
	if loc.EndByte > 0 {
		loc.EndByte--
	}
	if loc.Start.Row == 0 && loc.Start.Column > 0 {
		loc.Start.Column--
	}
	if loc.End.Row == 0 && loc.End.Column > 0 {
		loc.End.Column--
	}
	return loc
}
