package arbor

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// IdentifierKind classifies what a cursor position names. It is a closed
// set: the rename engine refuses positions it cannot classify instead of
// guessing.
type IdentifierKind int

const (
	KindUnknown IdentifierKind = iota
	KindClass
	KindMethod
	KindField
	KindParameter
	KindLocal
)

func (k IdentifierKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindParameter:
		return "parameter"
	case KindLocal:
		return "local variable"
	default:
		return "unknown"
	}
}

// IdentifierKindAt classifies the identifier under a 1-based cursor
// position and returns it with its node. A position outside the tree fails
// with ErrNotFound; one that lands on anything other than a classifiable
// identifier fails with ErrAmbiguousKind.
func IdentifierKindAt(f *SourceFile, line, column int) (IdentifierKind, *sitter.Node, error) {
	node := f.NodeAt(line, column)
	if node == nil {
		return KindUnknown, nil, fmt.Errorf("%w: no node at %d:%d", ErrNotFound, line, column)
	}
	kind := classifyIdentifier(f, node)
	if kind == KindUnknown {
		return KindUnknown, nil, fmt.Errorf("%w: %s node at %d:%d", ErrAmbiguousKind, node.Type(), line, column)
	}
	return kind, node, nil
}

func classifyIdentifier(f *SourceFile, node *sitter.Node) IdentifierKind {
	if node.Type() == "type_identifier" {
		return KindClass
	}
	if node.Type() != "identifier" {
		return KindUnknown
	}
	parent := node.Parent()
	if parent == nil {
		return KindUnknown
	}
	switch parent.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return KindClass
	case "method_declaration":
		return KindMethod
	case "method_invocation":
		// Only the invoked name classifies as a method; a receiver
		// identifier is a variable usage we cannot pin down alone.
		if sameNode(parent.ChildByFieldName("name"), node) {
			return KindMethod
		}
		return KindUnknown
	case "formal_parameter", "spread_parameter":
		return KindParameter
	case "variable_declarator":
		grandparent := parent.Parent()
		if grandparent == nil {
			return KindUnknown
		}
		switch grandparent.Type() {
		case "field_declaration":
			return KindField
		case "local_variable_declaration":
			return KindLocal
		}
	}
	return KindUnknown
}

// edit is one staged text replacement. Offsets are in the coordinates of
// the file's text at staging time.
type edit struct {
	file       *SourceFile
	start, end uint32
	text       string
}

// Renamer stages edits across files and applies them transactionally per
// file, back to front, so earlier offsets stay valid while later spans are
// spliced. Every splice re-parses, so no stale node is ever consulted.
type Renamer struct {
	edits []edit
}

// NewRenamer returns an empty edit collector.
func NewRenamer() *Renamer { return &Renamer{} }

func (r *Renamer) stageNode(f *SourceFile, node *sitter.Node, text string) {
	r.edits = append(r.edits, edit{file: f, start: node.StartByte(), end: node.EndByte(), text: text})
}

// apply performs all staged edits and returns the modified files in the
// order they were first staged, plus the number of replacements made.
// Duplicate stages of the same span collapse to one; distinct spans that
// overlap are an internal inconsistency and abort the whole operation
// before any file is touched.
func (r *Renamer) apply() ([]*SourceFile, int, error) {
	perFile := map[*SourceFile][]edit{}
	var order []*SourceFile
	for _, e := range r.edits {
		if _, seen := perFile[e.file]; !seen {
			order = append(order, e.file)
		}
		perFile[e.file] = append(perFile[e.file], e)
	}

	total := 0
	type applied struct {
		file  *SourceFile
		edits []edit
	}
	var plan []applied
	for _, f := range order {
		edits := perFile[f]
		sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
		deduped := edits[:0]
		for i, e := range edits {
			if i > 0 && e.start == edits[i-1].start && e.end == edits[i-1].end {
				continue
			}
			deduped = append(deduped, e)
		}
		for i := 1; i < len(deduped); i++ {
			if deduped[i].end > deduped[i-1].start {
				return nil, 0, fmt.Errorf("%w: overlapping edits [%d,%d) and [%d,%d) in %s",
					ErrInvariantViolation, deduped[i].start, deduped[i].end,
					deduped[i-1].start, deduped[i-1].end, f.Path())
			}
		}
		plan = append(plan, applied{file: f, edits: deduped})
	}

	var modified []*SourceFile
	for _, p := range plan {
		for _, e := range p.edits {
			if err := p.file.Replace(e.start, e.end, e.text); err != nil {
				return nil, 0, err
			}
			total++
		}
		if len(p.edits) > 0 {
			modified = append(modified, p.file)
		}
	}
	return modified, total, nil
}

// RenameResult reports what a rename changed. Files appear in the order
// they were first edited; nothing is saved to disk until the caller does.
type RenameResult struct {
	OldName       string
	NewName       string
	Kind          IdentifierKind
	ModifiedFiles []*SourceFile
	Occurrences   int
}

// RenameMethodAndUsages renames a method declaration and every invocation
// of it whose receiver resolves to the declaring type. candidates is the
// set of files to scan for call sites; the declaring file is always
// included. Invocations with no receiver expression, or whose receiver
// resolves to a different (or no) type, are left untouched.
func RenameMethodAndUsages(declFile *SourceFile, method *sitter.Node, newName string, candidates []*SourceFile) (*RenameResult, error) {
	if method != nil && method.Type() == "identifier" {
		method = declFile.ParentOfType(method, "method_declaration")
	}
	if method == nil || method.Type() != "method_declaration" {
		return nil, fmt.Errorf("%w: not a method declaration", ErrAmbiguousKind)
	}
	nameNode := declFile.MethodNameNode(method)
	if nameNode == nil {
		return nil, fmt.Errorf("%w: method has no name", ErrAmbiguousKind)
	}
	oldName := declFile.TextOf(nameNode)
	declaringClass := enclosingTypeDeclaration(declFile, method)
	if declaringClass == nil {
		return nil, fmt.Errorf("%w: method outside any type declaration", ErrAmbiguousKind)
	}
	declaringType := declFile.ClassName(declaringClass)

	r := NewRenamer()
	r.stageNode(declFile, nameNode, newName)

	for _, f := range withDeclaringFile(declFile, candidates) {
		for _, call := range f.MethodInvocations(nil) {
			callName := f.InvocationNameNode(call)
			if f.TextOf(callName) != oldName {
				continue
			}
			receiver := f.InvocationReceiver(call)
			if receiver == nil {
				continue
			}
			if ResolveReceiverType(f, receiver) != declaringType {
				continue
			}
			r.stageNode(f, callName, newName)
		}
	}

	modified, count, err := r.apply()
	if err != nil {
		return nil, fmt.Errorf("rename method %s: %w", oldName, err)
	}
	return &RenameResult{
		OldName: oldName, NewName: newName, Kind: KindMethod,
		ModifiedFiles: modified, Occurrences: count,
	}, nil
}

// RenameClassAndUsages renames a type declaration together with its usages:
// field, parameter, and local variable types, object creations, import
// statements in other packages, variables conventionally named after the
// type, and the declaring file itself when its basename matches the class.
func RenameClassAndUsages(declFile *SourceFile, class *sitter.Node, newName string, candidates []*SourceFile) (*RenameResult, error) {
	if class != nil && (class.Type() == "identifier" || class.Type() == "type_identifier") {
		if decl := enclosingTypeDeclaration(declFile, class); decl != nil && sameNode(declFile.ClassNameNode(decl), class) {
			class = decl
		}
	}
	if class == nil || !typeDeclarationKinds[class.Type()] {
		return nil, fmt.Errorf("%w: not a type declaration", ErrAmbiguousKind)
	}
	nameNode := declFile.ClassNameNode(class)
	oldName := declFile.TextOf(nameNode)
	pkg := declFile.PackageName()
	oldFqn, newFqn := joinFqn(pkg, oldName), joinFqn(pkg, newName)

	r := NewRenamer()
	r.stageNode(declFile, nameNode, newName)

	for _, f := range withDeclaringFile(declFile, candidates) {
		if f != declFile && !f.IsClassImported(oldFqn) {
			continue
		}
		stageTypeUsages(r, f, class, oldName, newName, f == declFile)
		stageVariableRenames(r, f, oldName, newName)
	}

	modified, count, err := r.apply()
	if err != nil {
		return nil, fmt.Errorf("rename class %s: %w", oldName, err)
	}

	// Import rewrites happen after the splice pass since UpdateImport edits
	// through the re-parsed tree itself.
	for _, f := range withDeclaringFile(declFile, candidates) {
		if f == declFile || f.PackageName() == pkg {
			continue
		}
		changed, err := f.UpdateImport(oldFqn, newFqn)
		if err != nil {
			return nil, fmt.Errorf("rename class %s: update import in %s: %w", oldName, f.Path(), err)
		}
		if changed {
			count++
			modified = appendUniqueFile(modified, f)
		}
	}

	if declFile.Path() != "" && declFile.BaseName() == oldName {
		if err := declFile.RenameFile(newName); err != nil {
			return nil, fmt.Errorf("rename class %s: %w", oldName, err)
		}
	}

	return &RenameResult{
		OldName: oldName, NewName: newName, Kind: KindClass,
		ModifiedFiles: modified, Occurrences: count,
	}, nil
}

// stageTypeUsages stages every type_identifier usage of oldName in f.
// The caller has already established that the class is visible in f.
func stageTypeUsages(r *Renamer, f *SourceFile, class *sitter.Node, oldName, newName string, isDeclFile bool) {
	for _, node := range f.Query(`(type_identifier) @type`).Returning("type").Nodes() {
		if f.TextOf(node) != oldName {
			continue
		}
		if isDeclFile && sameNode(node, f.ClassNameNode(class)) {
			continue
		}
		r.stageNode(f, node, newName)
	}
	// Static calls (Calculator.add()) parse the receiver as a plain
	// identifier. It names the class when no variable declaration binds it.
	for _, call := range f.MethodInvocations(nil) {
		receiver := f.InvocationReceiver(call)
		if receiver == nil || receiver.Type() != "identifier" || f.TextOf(receiver) != oldName {
			continue
		}
		resolved := ResolveReceiverType(f, receiver)
		if resolved == oldName || resolved == "" {
			r.stageNode(f, receiver, newName)
		}
	}
}

// stageVariableRenames stages renames of variables that follow the naming
// convention for the old type, e.g. `user` of type User becomes `customer`
// when User becomes Customer, and `users` for collections of it.
func stageVariableRenames(r *Renamer, f *SourceFile, oldTypeName, newTypeName string) {
	stage := func(declarator, typeNode *sitter.Node, scope *sitter.Node) {
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil || typeNode == nil {
			return
		}
		typeText := f.TextOf(typeNode)
		isCollection := IsCollectionType(typeText)
		base := declaredTypeName(f, typeNode, declarator)
		if isCollection {
			base = collectionElementType(f, typeNode)
		}
		if base != oldTypeName {
			return
		}
		current := f.TextOf(nameNode)
		next := GenerateNewVariableName(current, oldTypeName, newTypeName, isCollection)
		if next == current {
			return
		}
		r.stageNode(f, nameNode, next)
		if scope != nil {
			stageIdentifierUsages(r, f, scope, nameNode, current, next)
		}
	}

	for _, class := range f.FindAllClasses() {
		for _, field := range f.ClassFields(class) {
			stage(field.ChildByFieldName("declarator"), f.FieldTypeNode(field), class)
		}
		for _, method := range f.ClassMethods(class) {
			for _, local := range f.LocalVariableDeclarations(method) {
				stage(local.ChildByFieldName("declarator"), local.ChildByFieldName("type"), method)
			}
			for _, param := range f.FormalParameters(method) {
				stage(param, param.ChildByFieldName("type"), method)
			}
		}
	}
}

// stageIdentifierUsages stages plain identifier references to a renamed
// variable inside its scope, skipping the declarator itself.
func stageIdentifierUsages(r *Renamer, f *SourceFile, scope, declNameNode *sitter.Node, oldName, newName string) {
	for _, id := range f.Query(`(identifier) @id`).Returning("id").Nodes() {
		if f.TextOf(id) != oldName || sameNode(id, declNameNode) {
			continue
		}
		if !f.Within(id, scope) {
			continue
		}
		// Field accesses through an explicit receiver (x.user) name a
		// member of another object, not this variable. this.user does
		// refer to it when the renamed declaration is a field.
		if parent := id.Parent(); parent != nil && parent.Type() == "field_access" &&
			sameNode(parent.ChildByFieldName("field"), id) {
			if obj := parent.ChildByFieldName("object"); obj == nil || obj.Type() != "this" {
				continue
			}
		}
		r.stageNode(f, id, newName)
	}
}

// collectionElementType extracts the element type name of a generic
// collection type node, e.g. User from List<User>.
func collectionElementType(f *SourceFile, typeNode *sitter.Node) string {
	if typeNode.Type() != "generic_type" {
		return ""
	}
	for i := 0; i < int(typeNode.NamedChildCount()); i++ {
		child := typeNode.NamedChild(i)
		if child.Type() == "type_arguments" && child.NamedChildCount() > 0 {
			return f.TextOf(child.NamedChild(0))
		}
	}
	return ""
}

// RenameVariableAndUsages renames a field, parameter, or local variable
// together with its references. Fields are renamed across their declaring
// class (including this.name accesses); parameters and locals across their
// enclosing method or constructor.
func RenameVariableAndUsages(f *SourceFile, node *sitter.Node, newName string) (*RenameResult, error) {
	kind := classifyIdentifier(f, node)
	var scope *sitter.Node
	switch kind {
	case KindField:
		scope = enclosingTypeDeclaration(f, node)
	case KindParameter:
		scope = enclosingCallable(f, node)
	case KindLocal:
		// A local's references live in its declaring block; a same-named
		// variable in a sibling block is a different declaration.
		if decl := f.ParentOfType(node, "local_variable_declaration"); decl != nil {
			scope = decl.Parent()
		}
		if scope == nil {
			scope = enclosingCallable(f, node)
		}
	default:
		return nil, fmt.Errorf("%w: %s is not a variable declaration", ErrAmbiguousKind, node.Type())
	}
	if scope == nil {
		return nil, fmt.Errorf("%w: declaration has no enclosing scope", ErrAmbiguousKind)
	}
	oldName := f.TextOf(node)

	r := NewRenamer()
	r.stageNode(f, node, newName)
	stageIdentifierUsages(r, f, scope, node, oldName, newName)

	modified, count, err := r.apply()
	if err != nil {
		return nil, fmt.Errorf("rename %s %s: %w", kind, oldName, err)
	}
	return &RenameResult{
		OldName: oldName, NewName: newName, Kind: kind,
		ModifiedFiles: modified, Occurrences: count,
	}, nil
}

func withDeclaringFile(declFile *SourceFile, candidates []*SourceFile) []*SourceFile {
	out := []*SourceFile{declFile}
	for _, f := range candidates {
		if f != declFile {
			out = append(out, f)
		}
	}
	return out
}

func appendUniqueFile(files []*SourceFile, f *SourceFile) []*SourceFile {
	for _, existing := range files {
		if existing == f {
			return files
		}
	}
	return append(files, f)
}

func joinFqn(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
