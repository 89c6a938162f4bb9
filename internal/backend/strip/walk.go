package strip

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/OliverJAsh/plugin-typescript/internal/diag"
)

// stripper walks one parse tree, blanking type-only spans in out and
// collecting diagnostics. Blanking writes spaces over every byte except
// newlines, so line and column positions of surviving code never move.
type stripper struct {
	identity string
	src      []byte
	out      []byte
	diags    []diag.Diagnostic
}

func newStripper(identity string, src []byte) *stripper {
	out := make([]byte, len(src))
	copy(out, src)
	return &stripper{identity: identity, src: src, out: out}
}

func (s *stripper) walk(n *sitter.Node) {
	if n.IsMissing() {
		s.diag(n, 1005, fmt.Sprintf("'%s' expected.", n.Type()))
		return
	}

	switch n.Type() {
	case "ERROR":
		s.diag(n, 1128, "Declaration or statement expected.")
		return

	case "type_annotation", "type_parameters", "type_arguments", "implements_clause":
		s.blank(n.StartByte(), n.EndByte())
		return

	case "type_alias_declaration", "interface_declaration", "ambient_declaration",
		"function_signature", "abstract_method_signature", "index_signature":
		s.blank(n.StartByte(), n.EndByte())
		return

	case "enum_declaration":
		s.diag(n, 1294, "TypeScript enum declarations are not erasable.")
		return

	case "internal_module", "module":
		s.diag(n, 1294, "namespace declarations are not erasable.")
		return

	case "decorator":
		s.diag(n, 1294, "decorators are not erasable.")
		return

	case "as_expression", "satisfies_expression":
		// Keep the operand, blank the operator and the type.
		if op := n.Child(1); op != nil {
			s.blank(op.StartByte(), n.EndByte())
		}
		if expr := n.Child(0); expr != nil {
			s.walk(expr)
		}
		return

	case "non_null_expression":
		if bang := n.Child(int(n.ChildCount()) - 1); bang != nil && bang.Type() == "!" {
			s.blank(bang.StartByte(), bang.EndByte())
		}
		if expr := n.Child(0); expr != nil {
			s.walk(expr)
		}
		return

	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			switch decl.Type() {
			case "type_alias_declaration", "interface_declaration", "ambient_declaration", "function_signature":
				s.blank(n.StartByte(), n.EndByte())
				return
			}
		}
		if c := n.Child(1); c != nil && c.Type() == "type" {
			s.blank(n.StartByte(), n.EndByte())
			return
		}
		if c := n.Child(1); c != nil && c.Type() == "=" {
			s.diag(n, 1294, "export assignments are not erasable.")
			return
		}

	case "import_statement":
		if c := n.Child(1); c != nil && c.Type() == "type" {
			s.blank(n.StartByte(), n.EndByte())
			return
		}
		if req := namedChildOfType(n, "import_require_clause"); req != nil {
			s.rewriteImportEquals(n)
			return
		}
		s.stripTypeSpecifiers(n)
		return

	case "method_definition", "public_field_definition":
		s.blankTokens(n, "accessibility_modifier", "override_modifier", "readonly", "?", "!")

	case "required_parameter", "optional_parameter":
		if first := n.Child(0); first != nil && first.Type() == "this" {
			s.blankWithComma(n)
			return
		}
		if mod := s.parameterProperty(n); mod != "" {
			s.diag(n, 1294, fmt.Sprintf("parameter properties ('%s') are not erasable.", mod))
			return
		}
		s.blankTokens(n, "?")

	case "variable_declarator":
		s.blankTokens(n, "!")

	case "abstract_class_declaration":
		s.blankTokens(n, "abstract")
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		s.walk(n.Child(i))
	}
}

// blank overwrites [start, end) with spaces, preserving line breaks.
func (s *stripper) blank(start, end uint32) {
	for i := start; i < end && int(i) < len(s.out); i++ {
		if s.out[i] != '\n' && s.out[i] != '\r' {
			s.out[i] = ' '
		}
	}
}

// blankWithComma blanks a list element together with its separating comma.
func (s *stripper) blankWithComma(n *sitter.Node) {
	s.blank(n.StartByte(), n.EndByte())
	if next := n.NextSibling(); next != nil && next.Type() == "," {
		s.blank(next.StartByte(), next.EndByte())
	} else if prev := n.PrevSibling(); prev != nil && prev.Type() == "," {
		s.blank(prev.StartByte(), prev.EndByte())
	}
}

// blankTokens blanks direct children whose type matches any of types.
func (s *stripper) blankTokens(n *sitter.Node, types ...string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				s.blank(c.StartByte(), c.EndByte())
			}
		}
	}
}

// rewriteImportEquals turns an import-equals statement into a const
// declaration in place: the six bytes of the import keyword become
// "const " and everything after the = is already runnable.
func (s *stripper) rewriteImportEquals(stmt *sitter.Node) {
	kw := stmt.Child(0)
	if kw == nil || kw.Type() != "import" {
		return
	}
	copy(s.out[kw.StartByte():kw.EndByte()], "const ")
}

// stripTypeSpecifiers blanks inline type-only specifiers in a value
// import, e.g. the "type B" of import { type B, C }.
func (s *stripper) stripTypeSpecifiers(stmt *sitter.Node) {
	clause := namedChildOfType(stmt, "import_clause")
	if clause == nil {
		return
	}
	named := namedChildOfType(clause, "named_imports")
	if named == nil {
		return
	}
	for i := 0; i < int(named.ChildCount()); i++ {
		spec := named.Child(i)
		if spec.Type() != "import_specifier" {
			continue
		}
		if first := spec.Child(0); first != nil && first.Type() == "type" {
			s.blankWithComma(spec)
		}
	}
}

// parameterProperty returns the modifier text that makes a constructor
// parameter a parameter property, or "" when it is a plain parameter.
func (s *stripper) parameterProperty(param *sitter.Node) string {
	for i := 0; i < int(param.ChildCount()); i++ {
		c := param.Child(i)
		switch c.Type() {
		case "accessibility_modifier", "readonly", "override_modifier":
			return c.Content(s.src)
		}
	}
	return ""
}

func namedChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func (s *stripper) diag(n *sitter.Node, code int, message string) {
	start := n.StartPoint()
	s.diags = append(s.diags, diag.Diagnostic{
		Identity: s.identity,
		Category: diag.Error,
		Code:     code,
		Message:  message,
		Line:     int(start.Row) + 1,
		Col:      int(start.Column) + 1,
	})
}
