package arbor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Structural detection of JPA persistence annotations. This is pattern
// matching over the tree plus the import list, not annotation resolution:
// an @Entity only counts when the persistence package is actually visible
// in the file.

var persistencePackages = []string{"jakarta.persistence", "javax.persistence"}

// hasPersistenceImport reports whether the file can see the given
// persistence annotation class, via either vendor package.
func hasPersistenceImport(f *SourceFile, annotation string) bool {
	for _, pkg := range persistencePackages {
		if f.HasImport(pkg+"."+annotation) || f.HasWildcardImport(pkg) {
			return true
		}
	}
	return false
}

// classAnnotations returns the annotation nodes attached to a type
// declaration's modifier list.
func classAnnotations(f *SourceFile, class *sitter.Node) []*sitter.Node {
	if class == nil {
		return nil
	}
	var annotations []*sitter.Node
	for i := 0; i < int(class.NamedChildCount()); i++ {
		child := class.NamedChild(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			mod := child.NamedChild(j)
			if mod.Type() == "marker_annotation" || mod.Type() == "annotation" {
				annotations = append(annotations, mod)
			}
		}
	}
	return annotations
}

// annotationName returns the name of an annotation node, without arguments.
func annotationName(f *SourceFile, annotation *sitter.Node) string {
	if name := annotation.ChildByFieldName("name"); name != nil {
		return f.TextOf(name)
	}
	return strings.TrimPrefix(f.TextOf(annotation), "@")
}

// EntityAnnotation returns the @Entity annotation node of the file's public
// class, or nil when the class is not a JPA entity.
func (f *SourceFile) EntityAnnotation() *sitter.Node {
	if !hasPersistenceImport(f, "Entity") {
		return nil
	}
	for _, annotation := range classAnnotations(f, f.PublicClass()) {
		name := annotationName(f, annotation)
		if name == "Entity" || strings.HasSuffix(name, ".Entity") {
			return annotation
		}
	}
	return nil
}

// IsJPAEntity reports whether the file's public class is a JPA entity.
func (f *SourceFile) IsJPAEntity() bool {
	return f.EntityAnnotation() != nil
}

// EntityName returns the persistence name of the entity: the name argument
// of @Entity when present, else the class name. Empty when the file is not
// an entity.
func (f *SourceFile) EntityName() string {
	annotation := f.EntityAnnotation()
	if annotation == nil {
		return ""
	}
	if args := annotation.ChildByFieldName("arguments"); args != nil {
		for _, pair := range f.Query(`(element_value_pair key: (identifier) @key value: (string_literal) @value)`).Within(args).Captures() {
			if f.TextOf(pair["key"]) == "name" {
				return strings.Trim(f.TextOf(pair["value"]), `"`)
			}
		}
	}
	return f.ClassName(f.PublicClass())
}

// IDField returns the field declaration annotated with @Id on the entity
// class, or nil. The jakarta/javax Id import must be visible.
func (f *SourceFile) IDField() *sitter.Node {
	if !hasPersistenceImport(f, "Id") {
		return nil
	}
	for _, field := range f.ClassFields(f.PublicClass()) {
		for i := 0; i < int(field.NamedChildCount()); i++ {
			child := field.NamedChild(i)
			if child.Type() != "modifiers" {
				continue
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				mod := child.NamedChild(j)
				if mod.Type() != "marker_annotation" && mod.Type() != "annotation" {
					continue
				}
				name := annotationName(f, mod)
				if name == "Id" || strings.HasSuffix(name, ".Id") {
					return field
				}
			}
		}
	}
	return nil
}

// IDFieldType returns the declared type of the entity's @Id field, or "".
func (f *SourceFile) IDFieldType() string {
	field := f.IDField()
	if field == nil {
		return ""
	}
	return declaredTypeName(f, f.FieldTypeNode(field), field.ChildByFieldName("declarator"))
}
