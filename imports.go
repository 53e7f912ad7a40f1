package arbor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Import consistency: keep a file's import list coherent when declarations
// move or get renamed across packages. All operations are idempotent; adding
// an import that is already present (exactly or through a wildcard) changes
// nothing.

// PackageName returns the file's declared package, or "" for the default
// package.
func (f *SourceFile) PackageName() string {
	node := f.Query(`(package_declaration (scoped_identifier) @pkg)`).Returning("pkg").First()
	if node == nil {
		node = f.Query(`(package_declaration (identifier) @pkg)`).Returning("pkg").First()
	}
	return f.TextOf(node)
}

// importDeclarations returns every import_declaration node in source order.
func (f *SourceFile) importDeclarations() []*sitter.Node {
	return f.Query(`(import_declaration) @imp`).Returning("imp").Nodes()
}

// importPath extracts the dotted path of an import declaration, without the
// keyword, a `static` modifier, or the trailing `.*`. The second result
// reports whether it was a wildcard import.
func (f *SourceFile) importPath(imp *sitter.Node) (string, bool) {
	text := strings.TrimSpace(f.TextOf(imp))
	text = strings.TrimPrefix(text, "import")
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "static"))
	if strings.HasSuffix(text, ".*") {
		return strings.TrimSuffix(text, ".*"), true
	}
	return text, false
}

// HasImport reports whether fqn is imported exactly.
func (f *SourceFile) HasImport(fqn string) bool {
	for _, imp := range f.importDeclarations() {
		if path, wildcard := f.importPath(imp); !wildcard && path == fqn {
			return true
		}
	}
	return false
}

// HasWildcardImport reports whether the package is imported with a wildcard.
func (f *SourceFile) HasWildcardImport(pkg string) bool {
	for _, imp := range f.importDeclarations() {
		if path, wildcard := f.importPath(imp); wildcard && path == pkg {
			return true
		}
	}
	return false
}

// IsClassImported reports whether the class named by fqn is visible in this
// file: declared in the same package (two files without a package
// declaration share the default package), imported exactly, or covered by
// a wildcard import of its package.
func (f *SourceFile) IsClassImported(fqn string) bool {
	pkg := packageOf(fqn)
	if pkg == f.PackageName() {
		return true
	}
	return f.HasImport(fqn) || (pkg != "" && f.HasWildcardImport(pkg))
}

// AddImport inserts `import fqn;` unless an existing exact or covering
// wildcard import already makes it redundant. The statement lands after the
// last import, after the package declaration, or at the top of the file,
// whichever applies first.
func (f *SourceFile) AddImport(fqn string) error {
	if f.HasImport(fqn) {
		return nil
	}
	if pkg := packageOf(fqn); pkg != "" && f.HasWildcardImport(pkg) {
		return nil
	}
	return f.insertImport(fmt.Sprintf("import %s;", fqn))
}

// AddWildcardImport inserts `import pkg.*;` unless already present.
func (f *SourceFile) AddWildcardImport(pkg string) error {
	if f.HasWildcardImport(pkg) {
		return nil
	}
	return f.insertImport(fmt.Sprintf("import %s.*;", pkg))
}

func (f *SourceFile) insertImport(statement string) error {
	imports := f.importDeclarations()
	if len(imports) > 0 {
		return f.InsertAfter(imports[len(imports)-1], "\n"+statement)
	}
	if pkg := f.Query(`(package_declaration) @pkg`).Returning("pkg").First(); pkg != nil {
		return f.InsertAfter(pkg, "\n\n"+statement)
	}
	return f.InsertAt(0, statement+"\n")
}

// UpdateImport rewrites an exact import of oldFqn to newFqn. It reports
// whether an edit happened: false when the old import is absent or when a
// wildcard already covers the new name, making a rewrite pointless.
func (f *SourceFile) UpdateImport(oldFqn, newFqn string) (bool, error) {
	if pkg := packageOf(newFqn); pkg != "" && f.HasWildcardImport(pkg) {
		return false, nil
	}
	for _, imp := range f.importDeclarations() {
		if path, wildcard := f.importPath(imp); !wildcard && path == oldFqn {
			if err := f.ReplaceNode(imp, fmt.Sprintf("import %s;", newFqn)); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// packageOf returns the package part of a fully qualified class name, or ""
// when the name has no dots.
func packageOf(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}
