package arbor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Declaration-level lookups over a parsed file. These are pure structural
// queries: on malformed or partial input they return empty results, never an
// error. The node kinds are the tree-sitter Java grammar's.

// typeDeclarationKinds are the node types that introduce a named type.
var typeDeclarationKinds = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// FindAllClasses returns every type declaration in the file, outermost first.
func (f *SourceFile) FindAllClasses() []*sitter.Node {
	return f.Query(`[
	  (class_declaration) @decl
	  (interface_declaration) @decl
	  (enum_declaration) @decl
	  (record_declaration) @decl
	  (annotation_type_declaration) @decl
	] @decl`).Returning("decl").Nodes()
}

// ClassNameNode returns the identifier node naming a type declaration.
func (f *SourceFile) ClassNameNode(class *sitter.Node) *sitter.Node {
	if class == nil {
		return nil
	}
	return class.ChildByFieldName("name")
}

// ClassName returns the declared name of a type declaration.
func (f *SourceFile) ClassName(class *sitter.Node) string {
	return f.TextOf(f.ClassNameNode(class))
}

// FindClassByName returns the type declaration with the given name, or nil.
func (f *SourceFile) FindClassByName(name string) *sitter.Node {
	for _, class := range f.FindAllClasses() {
		if f.ClassName(class) == name {
			return class
		}
	}
	return nil
}

// PublicClass returns the file's public top-level type declaration. When no
// declaration carries a public modifier it falls back to the first one.
func (f *SourceFile) PublicClass() *sitter.Node {
	classes := f.FindAllClasses()
	for _, class := range classes {
		for i := 0; i < int(class.NamedChildCount()); i++ {
			child := class.NamedChild(i)
			if child.Type() == "modifiers" && strings.Contains(f.TextOf(child), "public") {
				return class
			}
		}
	}
	if len(classes) > 0 {
		return classes[0]
	}
	return nil
}

// ClassFields returns the field declarations directly inside class's body,
// excluding fields of nested types.
func (f *SourceFile) ClassFields(class *sitter.Node) []*sitter.Node {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var fields []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "field_declaration" {
			fields = append(fields, child)
		}
	}
	return fields
}

// ClassMethods returns the method declarations directly inside class's body.
func (f *SourceFile) ClassMethods(class *sitter.Node) []*sitter.Node {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var methods []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "method_declaration" {
			methods = append(methods, child)
		}
	}
	return methods
}

// FindMethodsByName returns class's methods declared with the given name.
// Overloads come back together; callers that need one arity filter further.
func (f *SourceFile) FindMethodsByName(class *sitter.Node, name string) []*sitter.Node {
	var out []*sitter.Node
	for _, m := range f.ClassMethods(class) {
		if f.TextOf(m.ChildByFieldName("name")) == name {
			out = append(out, m)
		}
	}
	return out
}

// MethodNameNode returns the identifier naming a method declaration.
func (f *SourceFile) MethodNameNode(method *sitter.Node) *sitter.Node {
	if method == nil {
		return nil
	}
	return method.ChildByFieldName("name")
}

// FieldNameNode returns the identifier naming the first declarator of a
// field declaration.
func (f *SourceFile) FieldNameNode(field *sitter.Node) *sitter.Node {
	decl := field.ChildByFieldName("declarator")
	if decl == nil {
		return nil
	}
	return decl.ChildByFieldName("name")
}

// FieldTypeNode returns the type node of a field declaration.
func (f *SourceFile) FieldTypeNode(field *sitter.Node) *sitter.Node {
	return field.ChildByFieldName("type")
}

// FormalParameters returns the formal_parameter nodes of a method or
// constructor declaration.
func (f *SourceFile) FormalParameters(method *sitter.Node) []*sitter.Node {
	params := method.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		if child.Type() == "formal_parameter" || child.Type() == "spread_parameter" {
			out = append(out, child)
		}
	}
	return out
}

// LocalVariableDeclarations returns every local_variable_declaration in the
// subtree rooted at scope (typically a method declaration).
func (f *SourceFile) LocalVariableDeclarations(scope *sitter.Node) []*sitter.Node {
	return f.Query(`(local_variable_declaration) @decl`).Within(scope).Returning("decl").Nodes()
}

// MethodInvocations returns every method_invocation in the subtree rooted at
// scope, or in the whole file when scope is nil.
func (f *SourceFile) MethodInvocations(scope *sitter.Node) []*sitter.Node {
	return f.Query(`(method_invocation) @call`).Within(scope).Returning("call").Nodes()
}

// InvocationNameNode returns the invoked method name of a method_invocation.
func (f *SourceFile) InvocationNameNode(invocation *sitter.Node) *sitter.Node {
	if invocation == nil {
		return nil
	}
	return invocation.ChildByFieldName("name")
}

// InvocationReceiver returns the receiver expression of a method_invocation,
// or nil for bare calls like foo().
func (f *SourceFile) InvocationReceiver(invocation *sitter.Node) *sitter.Node {
	if invocation == nil {
		return nil
	}
	return invocation.ChildByFieldName("object")
}

// ObjectCreations returns every object_creation_expression under scope.
func (f *SourceFile) ObjectCreations(scope *sitter.Node) []*sitter.Node {
	return f.Query(`(object_creation_expression) @new`).Within(scope).Returning("new").Nodes()
}

// IsMainMethod reports whether method is a runnable Java entry point:
// public static void main with a single String[] or String... parameter.
func (f *SourceFile) IsMainMethod(method *sitter.Node) bool {
	if method == nil || method.Type() != "method_declaration" {
		return false
	}
	if f.TextOf(method.ChildByFieldName("name")) != "main" {
		return false
	}
	if f.TextOf(method.ChildByFieldName("type")) != "void" {
		return false
	}
	modifiers := ""
	for i := 0; i < int(method.NamedChildCount()); i++ {
		if c := method.NamedChild(i); c.Type() == "modifiers" {
			modifiers = f.TextOf(c)
		}
	}
	if !strings.Contains(modifiers, "public") || !strings.Contains(modifiers, "static") {
		return false
	}
	params := f.FormalParameters(method)
	if len(params) != 1 {
		return false
	}
	if params[0].Type() == "spread_parameter" {
		// spread_parameter has no named type field; its first named child
		// after any modifiers is the element type.
		elem := params[0].NamedChild(0)
		if elem != nil && elem.Type() == "modifiers" {
			elem = params[0].NamedChild(1)
		}
		return f.TextOf(elem) == "String"
	}
	return f.TextOf(params[0].ChildByFieldName("type")) == "String[]"
}

// HasMainMethod reports whether any method in the file is a main entry point.
func (f *SourceFile) HasMainMethod() bool {
	for _, class := range f.FindAllClasses() {
		for _, m := range f.ClassMethods(class) {
			if f.IsMainMethod(m) {
				return true
			}
		}
	}
	return false
}

// sameNode reports whether two handles denote the same node in the current
// tree. Handles are compared by kind and span, not pointer identity.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type() == b.Type() && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
