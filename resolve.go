package arbor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ResolveReceiverType resolves the static type name of a call receiver by
// scanning the lexical scopes around it, innermost binding wins:
//
//  1. `this` resolves to the enclosing class name.
//  2. Formal parameters of the enclosing method or constructor.
//  3. Local variable declarations that precede the receiver and whose block
//     still encloses it. An inner block's declaration shadows an outer one.
//  4. Fields of the enclosing class (locals and parameters shadow fields).
//  5. A name bound by no declaration but matching a type declared in the
//     file is a static receiver and resolves to itself.
//
// Anything else resolves to "". No inheritance or cross-file lookup happens
// here; the caller compares the result against a known declaring type.
func ResolveReceiverType(f *SourceFile, receiver *sitter.Node) string {
	if receiver == nil {
		return ""
	}
	if receiver.Type() == "this" {
		if class := enclosingTypeDeclaration(f, receiver); class != nil {
			return f.ClassName(class)
		}
		return ""
	}
	if receiver.Type() != "identifier" {
		// Chained or computed receivers (field_access, call results) need
		// member-level type lookup, which is out of scope.
		return ""
	}
	name := f.TextOf(receiver)

	callable := enclosingCallable(f, receiver)
	if callable != nil {
		for _, param := range f.FormalParameters(callable) {
			if f.TextOf(param.ChildByFieldName("name")) == name {
				return declaredTypeName(f, param.ChildByFieldName("type"), nil)
			}
		}
		if typeName := resolveLocal(f, callable, receiver, name); typeName != "" {
			return typeName
		}
	}

	if class := enclosingTypeDeclaration(f, receiver); class != nil {
		for _, field := range f.ClassFields(class) {
			if f.TextOf(f.FieldNameNode(field)) == name {
				decl := field.ChildByFieldName("declarator")
				return declaredTypeName(f, f.FieldTypeNode(field), decl)
			}
		}
	}

	if f.FindClassByName(name) != nil {
		return name
	}
	return ""
}

// resolveLocal finds the innermost local variable declaration of name that is
// in scope at the receiver: declared before it, in a block that encloses it.
func resolveLocal(f *SourceFile, callable, receiver *sitter.Node, name string) string {
	var best *sitter.Node
	for _, decl := range f.LocalVariableDeclarations(callable) {
		declarator := decl.ChildByFieldName("declarator")
		if declarator == nil || f.TextOf(declarator.ChildByFieldName("name")) != name {
			continue
		}
		if decl.StartByte() >= receiver.StartByte() {
			continue
		}
		block := decl.Parent()
		if block == nil || !f.Within(receiver, block) {
			continue
		}
		// Declarations come back in source order, so a later in-scope match
		// is the more deeply nested (or simply later) one and wins.
		best = decl
	}
	if best == nil {
		return ""
	}
	return declaredTypeName(f, best.ChildByFieldName("type"), best.ChildByFieldName("declarator"))
}

// enclosingCallable returns the method or constructor declaration containing
// node, or nil at class or file level.
func enclosingCallable(f *SourceFile, node *sitter.Node) *sitter.Node {
	if m := f.ParentOfType(node, "method_declaration"); m != nil {
		return m
	}
	return f.ParentOfType(node, "constructor_declaration")
}

// enclosingTypeDeclaration returns the innermost type declaration containing
// node, or nil.
func enclosingTypeDeclaration(f *SourceFile, node *sitter.Node) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		if typeDeclarationKinds[n.Type()] {
			return n
		}
	}
	return nil
}

// declaredTypeName normalizes a type node to a bare type name: generic types
// collapse to their base identifier, primitives resolve to their own name.
// A `var` declaration is resolved through its object-creation initializer
// when declarator is supplied.
func declaredTypeName(f *SourceFile, typeNode, declarator *sitter.Node) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "generic_type":
		for i := 0; i < int(typeNode.NamedChildCount()); i++ {
			child := typeNode.NamedChild(i)
			if child.Type() == "type_identifier" || child.Type() == "scoped_type_identifier" {
				return f.TextOf(child)
			}
		}
		return f.TextOf(typeNode)
	case "type_identifier":
		name := f.TextOf(typeNode)
		if name == "var" && declarator != nil {
			if value := declarator.ChildByFieldName("value"); value != nil && value.Type() == "object_creation_expression" {
				return declaredTypeName(f, value.ChildByFieldName("type"), nil)
			}
			return ""
		}
		return name
	default:
		// Primitive and array types resolve to their literal spelling.
		return f.TextOf(typeNode)
	}
}
