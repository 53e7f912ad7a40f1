package arbor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// SourceFile owns the source text of one Java file and the concrete syntax
// tree derived from it. Exactly one live tree exists per file: every text
// replacement re-parses before the next query, so node handles taken before
// an edit are never consulted after it.
type SourceFile struct {
	parser *sitter.Parser
	path   string
	src    []byte
	tree   *sitter.Tree

	// pendingPath is a rename-on-disk staged until Save.
	pendingPath string
	modified    bool
}

// NewSourceFile parses source text that is not (yet) backed by a file.
func NewSourceFile(source string) *SourceFile {
	f := &SourceFile{parser: newJavaParser()}
	f.setSource([]byte(source))
	return f
}

// LoadSourceFile reads and parses the file at path. A missing or unreadable
// file is a fatal I/O error, not something callers are expected to recover
// from locally.
func LoadSourceFile(path string) (*SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}
	f := &SourceFile{parser: newJavaParser(), path: path}
	f.setSource(content)
	return f, nil
}

func newJavaParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return p
}

// setSource replaces the text and re-derives the tree. This is the single
// choke point that keeps text and tree in sync.
func (f *SourceFile) setSource(src []byte) {
	if f.tree != nil {
		f.tree.Close()
	}
	tree, err := f.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		// ParseCtx fails only on a cancelled context; with Background it
		// cannot, but guard anyway rather than carry a nil tree.
		panic(fmt.Sprintf("arbor: parse: %v", err))
	}
	f.src = src
	f.tree = tree
}

// Path returns the on-disk path, or "" for text-only files.
func (f *SourceFile) Path() string { return f.path }

// Text returns the current source text.
func (f *SourceFile) Text() string { return string(f.src) }

// Source returns the current source bytes. Callers must not mutate them.
func (f *SourceFile) Source() []byte { return f.src }

// Root returns the root node of the current tree.
func (f *SourceFile) Root() *sitter.Node { return f.tree.RootNode() }

// Modified reports whether the file has unsaved edits.
func (f *SourceFile) Modified() bool { return f.modified }

// TextOf returns the source text covered by node.
func (f *SourceFile) TextOf(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(f.src)
}

// TextOfRange returns the text between two byte offsets.
func (f *SourceFile) TextOfRange(start, end uint32) string {
	if start > end || int(end) > len(f.src) {
		return ""
	}
	return string(f.src[start:end])
}

// Replace splices newText over [start, end) and re-parses. Offsets are in
// the coordinates of the text as it is at call time; after Replace returns,
// all previously obtained nodes are stale and must be re-queried.
func (f *SourceFile) Replace(start, end uint32, newText string) error {
	if start > end || int(end) > len(f.src) {
		return fmt.Errorf("replace [%d,%d) out of range for %d bytes", start, end, len(f.src))
	}
	var b strings.Builder
	b.Grow(len(f.src) - int(end-start) + len(newText))
	b.Write(f.src[:start])
	b.WriteString(newText)
	b.Write(f.src[end:])
	f.setSource([]byte(b.String()))
	f.modified = true
	return nil
}

// ReplaceNode splices newText over the span of node.
func (f *SourceFile) ReplaceNode(node *sitter.Node, newText string) error {
	return f.Replace(node.StartByte(), node.EndByte(), newText)
}

// InsertBefore inserts text at the start position of node.
func (f *SourceFile) InsertBefore(node *sitter.Node, text string) error {
	return f.Replace(node.StartByte(), node.StartByte(), text)
}

// InsertAfter inserts text at the end position of node.
func (f *SourceFile) InsertAfter(node *sitter.Node, text string) error {
	return f.Replace(node.EndByte(), node.EndByte(), text)
}

// InsertAt inserts text at a byte offset.
func (f *SourceFile) InsertAt(offset uint32, text string) error {
	return f.Replace(offset, offset, text)
}

// NodeAt returns the smallest named node covering the 1-based line/column
// cursor position, or nil when the position is outside the file. Columns
// follow editor conventions (the cursor sits on the character it reports).
func (f *SourceFile) NodeAt(line, column int) *sitter.Node {
	if line <= 0 || column <= 0 {
		return nil
	}
	point := sitter.Point{Row: uint32(line - 1), Column: uint32(column)}
	root := f.tree.RootNode()
	end := root.EndPoint()
	if point.Row > end.Row || (point.Row == end.Row && point.Column > end.Column) {
		return nil
	}
	return root.NamedDescendantForPointRange(point, point)
}

// ParentOfType walks up from node and returns the first ancestor (or node
// itself) of the given kind, or nil.
func (f *SourceFile) ParentOfType(node *sitter.Node, kind string) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		if n.Type() == kind {
			return n
		}
	}
	return nil
}

// ChildOfType descends the first-named-child chain from node and returns
// the first node of the given kind, or nil.
func (f *SourceFile) ChildOfType(node *sitter.Node, kind string) *sitter.Node {
	for n := node; n != nil; n = n.NamedChild(0) {
		if n != node && n.Type() == kind {
			return n
		}
		if n.NamedChildCount() == 0 {
			return nil
		}
	}
	return nil
}

// Within reports whether node's span lies inside container's span.
func (f *SourceFile) Within(node, container *sitter.Node) bool {
	if node == nil || container == nil {
		return false
	}
	return node.StartByte() >= container.StartByte() && node.EndByte() <= container.EndByte()
}

// RenameFile stages a rename of the backing file within its directory.
// Names without an extension get ".java" appended. The rename takes effect
// on Save.
func (f *SourceFile) RenameFile(newName string) error {
	if f.path == "" {
		return fmt.Errorf("cannot rename a file that has no path")
	}
	if !strings.Contains(newName, ".") {
		newName += ".java"
	}
	f.pendingPath = filepath.Join(filepath.Dir(f.path), newName)
	f.modified = true
	return nil
}

// Save writes the current text back to disk atomically (temp file plus
// rename), applying any staged file rename first.
func (f *SourceFile) Save() error {
	if f.path == "" {
		return fmt.Errorf("cannot save a file that has no path")
	}
	if f.pendingPath != "" {
		if err := os.Rename(f.path, f.pendingPath); err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadableSource, err)
		}
		f.path = f.pendingPath
		f.pendingPath = ""
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, f.src, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}
	f.modified = false
	return nil
}

// SaveAs writes the current text to a new path and rebinds the file to it.
func (f *SourceFile) SaveAs(path string) error {
	f.path = path
	f.pendingPath = ""
	return f.Save()
}

// BaseName returns the file name without directory or extension.
func (f *SourceFile) BaseName() string {
	if f.path == "" {
		return ""
	}
	base := filepath.Base(f.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Close releases the parser and tree. Safe to call more than once.
func (f *SourceFile) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
	if f.parser != nil {
		f.parser.Close()
		f.parser = nil
	}
}
