// Package jsts extracts module imports and exports from JavaScript and
// TypeScript syntax trees.
package jsts

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/parser"
)

// DefaultSpecifier is the binding name of a default export.
const DefaultSpecifier = "default"

// FindImports returns the imports of a parsed file in document order.
// Dynamic import() and require() calls with a string literal argument bind
// nothing locally and import the whole module.
func FindImports(result *parser.ParseResult) []engine.ImportRecord {
	var imports []engine.ImportRecord
	src := result.Source

	parser.Walk(result.Tree.RootNode(), src, func(node *sitter.Node, src []byte) bool {
		switch node.Type() {
		case "import_statement":
			imports = append(imports, importStatement(node, src)...)
			return false
		case "call_expression":
			if rec, ok := dynamicImport(node, src); ok {
				imports = append(imports, rec)
			}
		}
		return true
	})
	return imports
}

func importStatement(node *sitter.Node, src []byte) []engine.ImportRecord {
	loc := parser.Location(node)

	// import x = require("y")
	if clause := childOfType(node, "import_require_clause"); clause != nil {
		moduleID, ok := parser.StringValue(childOfType(clause, "string"), src)
		if !ok {
			return nil
		}
		return []engine.ImportRecord{{
			ModuleID:       moduleID,
			LocalSpecifier: parser.GetNodeText(childOfType(clause, "identifier"), src),
			Location:       loc,
		}}
	}

	moduleID, ok := parser.StringValue(node.ChildByFieldName("source"), src)
	if !ok {
		return nil
	}

	clause := childOfType(node, "import_clause")
	if clause == nil {
		return []engine.ImportRecord{{ModuleID: moduleID, Location: loc}}
	}

	var out []engine.ImportRecord
	for i := range int(clause.NamedChildCount()) {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			out = append(out, engine.ImportRecord{
				ModuleID:          moduleID,
				ExternalSpecifier: DefaultSpecifier,
				LocalSpecifier:    parser.GetNodeText(child, src),
				Location:          loc,
			})
		case "namespace_import":
			out = append(out, engine.ImportRecord{
				ModuleID:       moduleID,
				LocalSpecifier: parser.GetNodeText(childOfType(child, "identifier"), src),
				Location:       loc,
			})
		case "named_imports":
			for j := range int(child.NamedChildCount()) {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := specifierName(spec.ChildByFieldName("name"), src)
				if name == "" {
					continue
				}
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = specifierName(alias, src)
				}
				out = append(out, engine.ImportRecord{
					ModuleID:          moduleID,
					ExternalSpecifier: name,
					LocalSpecifier:    local,
					Location:          loc,
				})
			}
		}
	}
	return out
}

func dynamicImport(node *sitter.Node, src []byte) (engine.ImportRecord, bool) {
	callee := parser.GetNodeText(node.ChildByFieldName("function"), src)
	if callee != "import" && callee != "require" {
		return engine.ImportRecord{}, false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return engine.ImportRecord{}, false
	}
	moduleID, ok := parser.StringValue(args.NamedChild(0), src)
	if !ok {
		return engine.ImportRecord{}, false
	}
	return engine.ImportRecord{ModuleID: moduleID, Location: parser.Location(node)}, true
}

// FindExports returns the exports of a parsed file in document order.
// Export records with an empty ExportedSpecifier stand for "export * from".
func FindExports(result *parser.ParseResult) []engine.ExportRecord {
	var exports []engine.ExportRecord
	root := result.Tree.RootNode()
	for _, node := range parser.FindNodesByType(root, result.Source, "export_statement") {
		exports = append(exports, exportStatement(node, result.Source)...)
	}
	return exports
}

func exportStatement(node *sitter.Node, src []byte) []engine.ExportRecord {
	loc := parser.Location(node)
	local := func(name string) engine.ExportRecord {
		return engine.ExportRecord{ExportedSpecifier: name, Location: loc}
	}

	if hasToken(node, "default") {
		return []engine.ExportRecord{local(DefaultSpecifier)}
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		var out []engine.ExportRecord
		for _, name := range declarationNames(decl, src) {
			out = append(out, local(name))
		}
		return out
	}

	moduleID, fromModule := parser.StringValue(node.ChildByFieldName("source"), src)
	reexport := func(exported, external string) engine.ExportRecord {
		rec := local(exported)
		if fromModule {
			rec.Source = &engine.ExportSource{ModuleID: moduleID, ExternalSpecifier: external}
		}
		return rec
	}

	if clause := childOfType(node, "export_clause"); clause != nil {
		var out []engine.ExportRecord
		for i := range int(clause.NamedChildCount()) {
			spec := clause.NamedChild(i)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := specifierName(spec.ChildByFieldName("name"), src)
			if name == "" {
				continue
			}
			exported := name
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = specifierName(alias, src)
			}
			out = append(out, reexport(exported, name))
		}
		return out
	}

	if ns := childOfType(node, "namespace_export"); ns != nil {
		var name string
		for i := range int(ns.NamedChildCount()) {
			if name = specifierName(ns.NamedChild(i), src); name != "" {
				break
			}
		}
		if name == "" {
			return nil
		}
		return []engine.ExportRecord{reexport(name, "")}
	}

	if fromModule && hasToken(node, "*") {
		return []engine.ExportRecord{reexport("", "")}
	}
	return nil
}

func declarationNames(decl *sitter.Node, src []byte) []string {
	switch decl.Type() {
	case "ambient_declaration":
		for i := range int(decl.NamedChildCount()) {
			if names := declarationNames(decl.NamedChild(i), src); len(names) > 0 {
				return names
			}
		}
		return nil
	case "function_declaration",
		"generator_function_declaration",
		"function_signature",
		"class_declaration",
		"abstract_class_declaration",
		"interface_declaration",
		"type_alias_declaration",
		"enum_declaration",
		"internal_module",
		"module":
		name := decl.ChildByFieldName("name")
		if name == nil || name.Type() == "string" {
			return nil
		}
		return []string{parser.GetNodeText(name, src)}
	case "variable_declaration", "lexical_declaration":
		var names []string
		for i := range int(decl.NamedChildCount()) {
			child := decl.NamedChild(i)
			if child.Type() == "variable_declarator" {
				names = bindingNames(child.ChildByFieldName("name"), src, names)
			}
		}
		return names
	}
	return nil
}

// bindingNames appends the identifiers bound by a declarator name, which
// may be a destructuring pattern.
func bindingNames(node *sitter.Node, src []byte, names []string) []string {
	if node == nil {
		return names
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return append(names, parser.GetNodeText(node, src))
	case "pair_pattern":
		return bindingNames(node.ChildByFieldName("value"), src, names)
	case "assignment_pattern", "object_assignment_pattern":
		return bindingNames(node.ChildByFieldName("left"), src, names)
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := range int(node.NamedChildCount()) {
			names = bindingNames(node.NamedChild(i), src, names)
		}
	}
	return names
}

// specifierName returns an identifier or a string literal module export name.
func specifierName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	if s, ok := parser.StringValue(node, src); ok {
		return s
	}
	return parser.GetNodeText(node, src)
}

func childOfType(node *sitter.Node, typ string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := range int(node.NamedChildCount()) {
		if child := node.NamedChild(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// hasToken reports whether node has an anonymous child token of the given type.
func hasToken(node *sitter.Node, typ string) bool {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == typ {
			return true
		}
	}
	return false
}
