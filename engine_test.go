package arbor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainSource = `package com.example;

public class App {
    public static void main(String[] args) {
        System.out.println("hi");
    }
}
`

// writeProject materializes a project tree under a temp root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newCachedEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(WithCachePath(filepath.Join(t.TempDir(), "index.db")))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNew_WithoutCache(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	assert.Nil(t, e.Store())
	require.NoError(t, e.Close())
}

func TestNew_WithCachePath(t *testing.T) {
	e := newCachedEngine(t)
	require.NotNil(t, e.Store())

	// Migration ran: the store is usable immediately.
	require.NoError(t, e.Store().SetMetadata("schema_check", "ok"))
}

func TestNew_InvalidCachePath(t *testing.T) {
	_, err := New(WithCachePath("/nonexistent/dir/index.db"))
	require.Error(t, err)
}

func TestJavaFiles_FindsOnlyJavaSources(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java":    calculatorSource,
		"sub/Billing.java":   calculatorCallerSource,
		"README.md":          "# not java",
		"build/Gen.java":     "class Gen {}",
		".hidden/Thing.java": "class Thing {}",
	})
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	paths, err := e.JavaFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Calculator.java", filepath.Join("sub", "Billing.java")}, paths)
}

func TestLoadProject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java": calculatorSource,
		"Billing.java":    calculatorCallerSource,
	})
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	files, err := e.LoadProject(context.Background(), root)
	require.NoError(t, err)
	defer closeAll(files)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "Billing.java"), files[0].Path())
	assert.Equal(t, "Billing", files[0].ClassName(files[0].PublicClass()))
}

func TestLoadProject_Cancelled(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.LoadProject(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScanProject_IndexesClasses(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java": calculatorSource,
		"App.java":        mainSource,
	})
	e := newCachedEngine(t)

	require.NoError(t, e.ScanProject(context.Background(), root))

	_, paths, err := e.Store().ClassesByName("Calculator")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(root, "Calculator.java"), paths[0])

	mains, err := e.Store().FilesWithMain()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "App.java")}, mains)
}

func TestScanProject_SkipsUnchangedFiles(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e := newCachedEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ScanProject(ctx, root))
	first, err := e.Store().FileByPath(filepath.Join(root, "Calculator.java"))
	require.NoError(t, err)
	require.NotNil(t, first)

	// An unchanged file keeps its row; a re-index would assign a new id.
	require.NoError(t, e.ScanProject(ctx, root))
	second, err := e.Store().FileByPath(filepath.Join(root, "Calculator.java"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestScanProject_ReindexesChangedFiles(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e := newCachedEngine(t)
	ctx := context.Background()

	require.NoError(t, e.ScanProject(ctx, root))
	path := filepath.Join(root, "Calculator.java")
	first, err := e.Store().FileByPath(path)
	require.NoError(t, err)

	changed := []byte("package com.example;\n\npublic class Calculator {\n}\n")
	require.NoError(t, os.WriteFile(path, changed, 0o644))

	require.NoError(t, e.ScanProject(ctx, root))
	second, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestFindClassAcrossProject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java": calculatorSource,
		"Billing.java":    calculatorCallerSource,
	})

	t.Run("cached", func(t *testing.T) {
		e := newCachedEngine(t)
		path, err := e.FindClassAcrossProject(context.Background(), root, "Calculator")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "Calculator.java"), path)
	})

	t.Run("uncached", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		defer e.Close()
		path, err := e.FindClassAcrossProject(context.Background(), root, "Billing")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "Billing.java"), path)
	})
}

func TestFindClassAcrossProject_SuggestsClosestName(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})

	for _, e := range []*Engine{newCachedEngine(t), mustEngine(t)} {
		_, err := e.FindClassAcrossProject(context.Background(), root, "Calcuator")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "did you mean Calculator?")
	}
}

func TestFindClassAcrossProject_NoSuggestionWhenFarOff(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e := mustEngine(t)

	_, err := e.FindClassAcrossProject(context.Background(), root, "Zyzzyva")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), "did you mean")
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestMainClass(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java": calculatorSource,
		"App.java":        mainSource,
	})
	e := mustEngine(t)

	path, className, err := e.MainClass(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "App.java"), path)
	assert.Equal(t, "App", className)
}

func TestMainClass_Missing(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e := mustEngine(t)

	_, _, err := e.MainClass(context.Background(), root)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRenameAt_MethodAcrossFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java": calculatorSource,
		"Billing.java":    calculatorCallerSource,
	})
	e := mustEngine(t)

	line, col := posOf(t, calculatorSource, "calculateSum")
	res, err := e.RenameAt(context.Background(), root, "Calculator.java", line, col, "computeSum", true)
	require.NoError(t, err)
	assert.Equal(t, KindMethod, res.Kind)
	assert.Len(t, res.ModifiedFiles, 2)

	decl, err := os.ReadFile(filepath.Join(root, "Calculator.java"))
	require.NoError(t, err)
	assert.Contains(t, string(decl), "public int computeSum")

	caller, err := os.ReadFile(filepath.Join(root, "Billing.java"))
	require.NoError(t, err)
	assert.Contains(t, string(caller), "calc.computeSum(a, b)")
	assert.Contains(t, string(caller), "calculator.computeSum(a, b)")
}

func TestRenameAt_DryRunLeavesDiskAlone(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e := mustEngine(t)

	line, col := posOf(t, calculatorSource, "calculateSum")
	res, err := e.RenameAt(context.Background(), root, "Calculator.java", line, col, "computeSum", false)
	require.NoError(t, err)
	assert.Positive(t, res.Occurrences)

	onDisk, err := os.ReadFile(filepath.Join(root, "Calculator.java"))
	require.NoError(t, err)
	assert.Equal(t, calculatorSource, string(onDisk))
}

func TestRenameAt_ClassRenamesDeclaringFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Calculator.java": calculatorSource,
		"Billing.java":    calculatorCallerSource,
	})
	e := mustEngine(t)

	line, col := posOf(t, calculatorSource, "Calculator")
	res, err := e.RenameAt(context.Background(), root, "Calculator.java", line, col, "Adder", true)
	require.NoError(t, err)
	assert.Equal(t, KindClass, res.Kind)

	_, err = os.Stat(filepath.Join(root, "Adder.java"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "Calculator.java"))
	assert.True(t, os.IsNotExist(err))

	caller, err := os.ReadFile(filepath.Join(root, "Billing.java"))
	require.NoError(t, err)
	assert.Contains(t, string(caller), "Adder calc = new Adder()")
}

func TestRenameAt_UnknownFile(t *testing.T) {
	root := writeProject(t, map[string]string{"Calculator.java": calculatorSource})
	e := mustEngine(t)

	_, err := e.RenameAt(context.Background(), root, "Absent.java", 1, 1, "X", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "main", "java"), 0o755))
	e := mustEngine(t)

	path, err := e.CreateFile(context.Background(), root, "com.example.model", "Order", TemplateClass)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "main", "java", "com", "example", "model", "Order.java"), path)

	f, err := LoadSourceFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "com.example.model", f.PackageName())
	assert.Equal(t, "Order", f.ClassName(f.PublicClass()))

	_, err = e.CreateFile(context.Background(), root, "com.example.model", "Order", TemplateClass)
	require.Error(t, err)
}

func TestCreateFile_FlatProjectRoot(t *testing.T) {
	root := t.TempDir()
	e := mustEngine(t)

	path, err := e.CreateFile(context.Background(), root, "com.example", "Note", TemplateRecord)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "com", "example", "Note.java"), path)
}

func TestCreateFile_RepositoryUsesEntityIDType(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Customer.java": `package com.example;

import jakarta.persistence.Entity;
import jakarta.persistence.Id;

@Entity
public class Customer {
    @Id
    private Integer id;
}
`,
	})
	e := mustEngine(t)

	path, err := e.CreateFile(context.Background(), root, "com.example", "CustomerRepository", TemplateRepository)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "com", "example", "CustomerRepository.java"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "public interface CustomerRepository extends JpaRepository<Customer, Integer>")
	assert.Contains(t, string(content), "import org.springframework.data.jpa.repository.JpaRepository;")
	assert.NotContains(t, string(content), "public class")
}

func TestCreateFile_RepositoryDefaultsToLong(t *testing.T) {
	root := t.TempDir()
	e := mustEngine(t)

	// The entity name works with or without the Repository suffix; an
	// unknown entity falls back to a Long id.
	path, err := e.CreateFile(context.Background(), root, "com.example", "Order", TemplateRepository)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "com", "example", "OrderRepository.java"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "public interface OrderRepository extends JpaRepository<Order, Long>")
}
