package componenttree

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Analysis is the result of statically analyzing one source file.
type Analysis struct {
	// Imports lists every static import/require specifier in source order.
	Imports []string
	// ExportsComponent reports whether the file exports something that looks
	// like a renderable component.
	ExportsComponent bool
	// DisplayName is the exported component's identifier when determinable.
	DisplayName string
}

// Analyze extracts import specifiers and classifies component exports for a
// JS/TS/JSX/TSX file. The heuristic is conservative and never panics on
// malformed input; a hard parse failure is returned as an error so the caller
// can record an unparseable-source leaf.
func Analyze(content []byte, filePath string) (Analysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(filePath))

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Analysis{}, fmt.Errorf("failed to parse %s: empty syntax tree", filePath)
	}

	a := &analyzer{content: content}
	a.collectTopLevelDeclarations(root)

	analysis := Analysis{Imports: a.collectImports(root)}
	analysis.DisplayName, analysis.ExportsComponent = a.componentExport(root)
	return analysis, nil
}

func languageFor(filePath string) *sitter.Language {
	switch filepath.Ext(filePath) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	default:
		// The javascript grammar covers both .js and .jsx.
		return javascript.GetLanguage()
	}
}

type analyzer struct {
	content []byte
	// declarations maps top-level identifiers to the node holding their value
	// (function body, class body, arrow function, ...).
	declarations map[string]*sitter.Node
}

// collectImports walks the AST in document order and gathers static import
// specifiers: import/export-from statements and require calls with a literal
// argument. Dynamic import() and computed requires are skipped.
func (a *analyzer) collectImports(root *sitter.Node) []string {
	var imports []string

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}

		switch n.Type() {
		case "import_statement", "export_statement":
			if source := n.ChildByFieldName("source"); source != nil {
				if spec := cleanSpecifier(source.Content(a.content)); spec != "" {
					imports = append(imports, spec)
				}
			}
		case "call_expression":
			if spec, ok := a.requireSpecifier(n); ok {
				imports = append(imports, spec)
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	return imports
}

// requireSpecifier extracts the literal argument of a require(...) call.
func (a *analyzer) requireSpecifier(call *sitter.Node) (string, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" || fn.Content(a.content) != "require" {
		return "", false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		arg := args.Child(i)
		if arg != nil && arg.Type() == "string" {
			return cleanSpecifier(arg.Content(a.content)), true
		}
	}
	// Computed argument, not statically resolvable.
	return "", false
}

func (a *analyzer) collectTopLevelDeclarations(root *sitter.Node) {
	a.declarations = make(map[string]*sitter.Node)

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "export_statement" {
			for j := 0; j < int(child.ChildCount()); j++ {
				a.recordDeclaration(child.Child(j))
			}
			continue
		}
		a.recordDeclaration(child)
	}
}

func (a *analyzer) recordDeclaration(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "class_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			a.declarations[name.Content(a.content)] = n
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.ChildCount()); i++ {
			declarator := n.Child(i)
			if declarator == nil || declarator.Type() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			value := declarator.ChildByFieldName("value")
			if name != nil && value != nil {
				a.declarations[name.Content(a.content)] = value
			}
		}
	}
}

// componentExport decides whether the file exports a component and, when
// determinable, the component's identifier. An export counts as a component
// when its declaration renders markup (JSX or createElement-style calls) and
// its identifier is capitalized, following the usual component convention.
func (a *analyzer) componentExport(root *sitter.Node) (string, bool) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "export_statement":
			if name, ok := a.classifyExport(child, root); ok {
				return name, true
			}
		case "expression_statement":
			if name, ok := a.classifyCommonJSExport(child, root); ok {
				return name, true
			}
		}
	}
	return "", false
}

func (a *analyzer) classifyExport(export *sitter.Node, root *sitter.Node) (string, bool) {
	for i := 0; i < int(export.ChildCount()); i++ {
		child := export.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_declaration", "class_declaration", "generator_function_declaration":
			name := ""
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				name = nameNode.Content(a.content)
			}
			if a.rendersMarkup(child) && (name == "" || isCapitalized(name)) {
				return name, true
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(child.ChildCount()); j++ {
				declarator := child.Child(j)
				if declarator == nil || declarator.Type() != "variable_declarator" {
					continue
				}
				nameNode := declarator.ChildByFieldName("name")
				value := declarator.ChildByFieldName("value")
				if nameNode == nil || value == nil {
					continue
				}
				name := nameNode.Content(a.content)
				if isCapitalized(name) && a.rendersMarkup(value) {
					return name, true
				}
			}
		case "identifier":
			// export default Header / export { Header }
			name := child.Content(a.content)
			if !isCapitalized(name) {
				continue
			}
			if decl, ok := a.declarations[name]; ok {
				if a.rendersMarkup(decl) {
					return name, true
				}
				continue
			}
			// Declaration not found (re-export, destructuring): fall back to
			// whether the file renders markup at all.
			if a.rendersMarkup(root) {
				return name, true
			}
		case "arrow_function", "function_expression", "function", "class", "parenthesized_expression", "call_expression":
			// export default () => <div/> and wrapped variants.
			if a.rendersMarkup(child) {
				return "", true
			}
		case "export_clause":
			if name, ok := a.classifyExportClause(child); ok {
				return name, true
			}
		}
	}
	return "", false
}

func (a *analyzer) classifyExportClause(clause *sitter.Node) (string, bool) {
	for i := 0; i < int(clause.ChildCount()); i++ {
		specifier := clause.Child(i)
		if specifier == nil || specifier.Type() != "export_specifier" {
			continue
		}
		nameNode := specifier.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(a.content)
		if !isCapitalized(name) {
			continue
		}
		if decl, ok := a.declarations[name]; ok && a.rendersMarkup(decl) {
			return name, true
		}
	}
	return "", false
}

// classifyCommonJSExport handles module.exports = X and exports.X = Y.
func (a *analyzer) classifyCommonJSExport(statement *sitter.Node, root *sitter.Node) (string, bool) {
	assignment := statement.NamedChild(0)
	if assignment == nil || assignment.Type() != "assignment_expression" {
		return "", false
	}
	left := assignment.ChildByFieldName("left")
	right := assignment.ChildByFieldName("right")
	if left == nil || right == nil {
		return "", false
	}
	leftText := left.Content(a.content)
	if leftText != "module.exports" && !strings.HasPrefix(leftText, "module.exports.") &&
		!strings.HasPrefix(leftText, "exports.") {
		return "", false
	}

	switch right.Type() {
	case "identifier":
		name := right.Content(a.content)
		if !isCapitalized(name) {
			return "", false
		}
		if decl, ok := a.declarations[name]; ok {
			return name, a.rendersMarkup(decl)
		}
		return name, a.rendersMarkup(root)
	default:
		if a.rendersMarkup(right) {
			return "", true
		}
	}
	return "", false
}

// markupCallees are function names treated as markup construction when called.
var markupCallees = map[string]bool{
	"React.createElement": true,
	"createElement":       true,
	"h":                   true,
	"jsx":                 true,
	"jsxs":                true,
}

// rendersMarkup reports whether the subtree contains JSX nodes or
// createElement-style calls.
func (a *analyzer) rendersMarkup(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil {
			if markupCallees[fn.Content(a.content)] {
				return true
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if a.rendersMarkup(n.Child(i)) {
			return true
		}
	}
	return false
}

func isCapitalized(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// cleanSpecifier removes quotes from an import path string.
func cleanSpecifier(raw string) string {
	return strings.TrimSpace(strings.Trim(raw, "'\""))
}
