package arbor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/jward/arbor/internal/project"
	"github.com/jward/arbor/internal/store"
)

// Engine orchestrates project-wide operations: source discovery, the class
// index cache, cross-file renames, and new-file generation. One Engine
// serves one request; it holds no locks and shares no state.
type Engine struct {
	store     *store.Store
	cachePath string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCachePath enables the SQLite class index cache at the given path.
// Without it every project operation re-parses from scratch.
func WithCachePath(path string) Option {
	return func(e *Engine) {
		e.cachePath = path
	}
}

// New creates an Engine, opening and migrating the cache when configured.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cachePath != "" {
		s, err := store.NewStore(e.cachePath)
		if err != nil {
			return nil, fmt.Errorf("arbor: open cache: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("arbor: migrate cache: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's cache resources.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Store returns the underlying cache store, or nil when caching is off.
func (e *Engine) Store() *store.Store {
	return e.store
}

// JavaFiles returns the relative paths of the project's Java sources.
func (e *Engine) JavaFiles(root string) ([]string, error) {
	return project.Files(root)
}

// LoadProject parses every Java source under root. The returned files are
// keyed by their absolute paths, in discovery order.
func (e *Engine) LoadProject(ctx context.Context, root string) ([]*SourceFile, error) {
	paths, err := project.Files(root)
	if err != nil {
		return nil, fmt.Errorf("arbor: discover sources: %w", err)
	}
	files := make([]*SourceFile, 0, len(paths))
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := LoadSourceFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("arbor: load %s: %w", rel, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// ScanProject refreshes the class index cache for root. Files whose content
// hash is unchanged are skipped without parsing.
func (e *Engine) ScanProject(ctx context.Context, root string) error {
	if e.store == nil {
		return nil
	}
	paths, err := project.Files(root)
	if err != nil {
		return fmt.Errorf("arbor: discover sources: %w", err)
	}
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := filepath.Join(root, rel)
		content, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("arbor: read %s: %w", rel, err)
		}
		hash := store.ContentHash(content)
		existing, err := e.store.FileByPath(abs)
		if err != nil {
			return fmt.Errorf("arbor: cache lookup %s: %w", rel, err)
		}
		if existing != nil && existing.Hash == hash {
			continue
		}
		f := NewSourceFile(string(content))
		record := &store.File{
			Path:    abs,
			Hash:    hash,
			Package: f.PackageName(),
			HasMain: f.HasMainMethod(),
		}
		var classes []*store.Class
		for _, class := range f.FindAllClasses() {
			classes = append(classes, &store.Class{
				Name:   f.ClassName(class),
				Kind:   class.Type(),
				Public: sameNode(class, f.PublicClass()),
				Entity: f.IsJPAEntity() && sameNode(class, f.PublicClass()),
			})
		}
		if _, err := e.store.ReplaceFile(record, classes); err != nil {
			return fmt.Errorf("arbor: cache %s: %w", rel, err)
		}
		f.Close()
	}
	return nil
}

// FindClassAcrossProject locates the file declaring the named class. With a
// cache it consults the refreshed index; without one it parses the project.
// A miss returns ErrNotFound, carrying the closest known class name when one
// is plausibly a typo.
func (e *Engine) FindClassAcrossProject(ctx context.Context, root, className string) (string, error) {
	if e.store != nil {
		if err := e.ScanProject(ctx, root); err != nil {
			return "", err
		}
		_, paths, err := e.store.ClassesByName(className)
		if err != nil {
			return "", fmt.Errorf("arbor: class lookup: %w", err)
		}
		if len(paths) > 0 {
			return paths[0], nil
		}
		known, err := e.store.ClassNames()
		if err != nil {
			return "", fmt.Errorf("arbor: class names: %w", err)
		}
		return "", notFoundWithSuggestion(className, known)
	}

	files, err := e.LoadProject(ctx, root)
	if err != nil {
		return "", err
	}
	defer closeAll(files)
	var known []string
	for _, f := range files {
		for _, class := range f.FindAllClasses() {
			name := f.ClassName(class)
			if name == className {
				return f.Path(), nil
			}
			known = append(known, name)
		}
	}
	return "", notFoundWithSuggestion(className, known)
}

// MainClass locates the project's entry point: the file whose public class
// declares public static void main(String[] args), and that class's name.
func (e *Engine) MainClass(ctx context.Context, root string) (path, className string, err error) {
	files, err := e.LoadProject(ctx, root)
	if err != nil {
		return "", "", err
	}
	defer closeAll(files)
	for _, f := range files {
		if !f.HasMainMethod() {
			continue
		}
		return f.Path(), f.ClassName(f.PublicClass()), nil
	}
	return "", "", fmt.Errorf("%w: no main method in project", ErrNotFound)
}

// RenameAt renames the declaration under a 1-based cursor position in the
// named file, updating usages across the whole project. Nothing is written
// to disk unless save is true.
func (e *Engine) RenameAt(ctx context.Context, root, file string, line, column int, newName string, save bool) (*RenameResult, error) {
	files, err := e.LoadProject(ctx, root)
	if err != nil {
		return nil, err
	}
	defer closeAll(files)

	target := filepath.Join(root, file)
	var declFile *SourceFile
	for _, f := range files {
		if f.Path() == target || f.Path() == file {
			declFile = f
			break
		}
	}
	if declFile == nil {
		return nil, fmt.Errorf("%w: %s is not part of the project", ErrNotFound, file)
	}

	kind, node, err := IdentifierKindAt(declFile, line, column)
	if err != nil {
		return nil, err
	}

	var result *RenameResult
	switch kind {
	case KindMethod:
		result, err = RenameMethodAndUsages(declFile, node, newName, files)
	case KindClass:
		result, err = RenameClassAndUsages(declFile, node, newName, files)
	case KindField, KindParameter, KindLocal:
		result, err = RenameVariableAndUsages(declFile, node, newName)
	default:
		return nil, fmt.Errorf("%w: cannot rename a %s", ErrAmbiguousKind, kind)
	}
	if err != nil {
		return nil, err
	}

	if save {
		for _, f := range result.ModifiedFiles {
			if err := f.Save(); err != nil {
				return nil, fmt.Errorf("arbor: save %s: %w", f.Path(), err)
			}
		}
		// A class rename may stage a file rename on an otherwise-saved file.
		if declFile.Modified() {
			if err := declFile.Save(); err != nil {
				return nil, fmt.Errorf("arbor: save %s: %w", declFile.Path(), err)
			}
		}
	}
	return result, nil
}

// CreateFile generates a new source file from a template under the
// project's conventional source root and returns its path. For repository
// templates the named entity's @Id field type is resolved from the project
// and the file is named after the derived interface.
func (e *Engine) CreateFile(ctx context.Context, root, pkg, typeName string, template FileTemplate) (string, error) {
	content := template.Render(pkg, typeName)
	if template == TemplateRepository {
		entity := strings.TrimSuffix(typeName, "Repository")
		if entity == "" {
			return "", fmt.Errorf("%w: repository template needs an entity name", ErrNotFound)
		}
		typeName = entity + "Repository"
		idType, err := e.entityIDType(ctx, root, entity)
		if err != nil {
			return "", err
		}
		content = RenderRepository(pkg, entity, idType)
	}
	dir := project.PackageToDir(project.SourceRoot(root), pkg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("arbor: create package dir: %w", err)
	}
	path := filepath.Join(dir, typeName+".java")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("arbor: %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}
	return path, nil
}

// entityIDType resolves the @Id field type of the named entity, falling
// back to Long when the entity or its id field cannot be found.
func (e *Engine) entityIDType(ctx context.Context, root, entity string) (string, error) {
	path, err := e.FindClassAcrossProject(ctx, root, entity)
	if errors.Is(err, ErrNotFound) {
		return "Long", nil
	}
	if err != nil {
		return "", err
	}
	f, err := LoadSourceFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if idType := f.IDFieldType(); idType != "" {
		return idType, nil
	}
	return "Long", nil
}

// notFoundWithSuggestion wraps ErrNotFound, attaching the closest known
// name when it is within plausible typo distance.
func notFoundWithSuggestion(name string, known []string) error {
	best := ""
	bestDist := -1
	for _, candidate := range known {
		dist := edlib.LevenshteinDistance(name, candidate)
		if bestDist == -1 || dist < bestDist {
			bestDist, best = dist, candidate
		}
	}
	if best != "" && bestDist <= 3 && best != name {
		return fmt.Errorf("%w: %s (did you mean %s?)", ErrNotFound, name, best)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func closeAll(files []*SourceFile) {
	for _, f := range files {
		f.Close()
	}
}
