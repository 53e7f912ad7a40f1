package arbor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageName(t *testing.T) {
	f := NewSourceFile("package com.example.app;\n\nclass A {}\n")
	defer f.Close()
	assert.Equal(t, "com.example.app", f.PackageName())

	g := NewSourceFile("package single;\n\nclass A {}\n")
	defer g.Close()
	assert.Equal(t, "single", g.PackageName())

	h := NewSourceFile("class A {}\n")
	defer h.Close()
	assert.Equal(t, "", h.PackageName())
}

func TestAddImport_AfterExistingImports(t *testing.T) {
	f := NewSourceFile(`package p;

import java.util.List;
import java.util.Map;

class A {}
`)
	defer f.Close()

	require.NoError(t, f.AddImport("java.util.Set"))
	assert.Contains(t, f.Text(), "import java.util.Map;\nimport java.util.Set;")
}

func TestAddImport_AfterPackageDeclaration(t *testing.T) {
	f := NewSourceFile("package p;\n\nclass A {}\n")
	defer f.Close()

	require.NoError(t, f.AddImport("java.util.List"))
	assert.Contains(t, f.Text(), "package p;\n\nimport java.util.List;")
}

func TestAddImport_AtFileStart(t *testing.T) {
	f := NewSourceFile("class A {}\n")
	defer f.Close()

	require.NoError(t, f.AddImport("java.util.List"))
	assert.True(t, strings.HasPrefix(f.Text(), "import java.util.List;\n"))
}

func TestAddImport_Idempotent(t *testing.T) {
	f := NewSourceFile("package p;\n\nimport java.util.List;\n\nclass A {}\n")
	defer f.Close()

	before := f.Text()
	require.NoError(t, f.AddImport("java.util.List"))
	require.NoError(t, f.AddImport("java.util.List"))
	assert.Equal(t, before, f.Text())
	assert.Equal(t, 1, strings.Count(f.Text(), "import java.util.List;"))
}

func TestAddImport_WildcardCovers(t *testing.T) {
	f := NewSourceFile("package p;\n\nimport java.util.*;\n\nclass A {}\n")
	defer f.Close()

	before := f.Text()
	require.NoError(t, f.AddImport("java.util.List"))
	assert.Equal(t, before, f.Text())
}

func TestAddWildcardImport(t *testing.T) {
	f := NewSourceFile("package p;\n\nclass A {}\n")
	defer f.Close()

	require.NoError(t, f.AddWildcardImport("java.util"))
	assert.Contains(t, f.Text(), "import java.util.*;")
	require.NoError(t, f.AddWildcardImport("java.util"))
	assert.Equal(t, 1, strings.Count(f.Text(), "import java.util.*;"))
}

func TestUpdateImport(t *testing.T) {
	f := NewSourceFile("package p;\n\nimport com.old.Thing;\n\nclass A {}\n")
	defer f.Close()

	changed, err := f.UpdateImport("com.old.Thing", "com.nu.Thing")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, f.Text(), "import com.nu.Thing;")
	assert.NotContains(t, f.Text(), "com.old.Thing")
}

func TestUpdateImport_AbsentIsNoop(t *testing.T) {
	f := NewSourceFile("package p;\n\nclass A {}\n")
	defer f.Close()

	changed, err := f.UpdateImport("com.old.Thing", "com.nu.Thing")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateImport_WildcardShortCircuits(t *testing.T) {
	f := NewSourceFile("package p;\n\nimport com.nu.*;\nimport com.old.Thing;\n\nclass A {}\n")
	defer f.Close()

	before := f.Text()
	changed, err := f.UpdateImport("com.old.Thing", "com.nu.Thing")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, f.Text())
}

func TestIsClassImported(t *testing.T) {
	f := NewSourceFile(`package com.example.app;

import com.example.model.Customer;
import com.example.util.*;

class A {}
`)
	defer f.Close()

	assert.True(t, f.IsClassImported("com.example.model.Customer"))
	assert.True(t, f.IsClassImported("com.example.util.Anything"))
	// Same package counts as imported.
	assert.True(t, f.IsClassImported("com.example.app.Sibling"))
	assert.False(t, f.IsClassImported("com.example.model.Order"))
	assert.False(t, f.IsClassImported("Bare"))
}

func TestIsClassImported_DefaultPackage(t *testing.T) {
	f := NewSourceFile("class Helper {}\n")
	defer f.Close()

	// Files without a package declaration share the default package.
	assert.True(t, f.IsClassImported("Other"))
	assert.False(t, f.IsClassImported("com.example.Other"))
}

func TestHasWildcardImport(t *testing.T) {
	f := NewSourceFile("package p;\n\nimport java.util.*;\nimport java.io.File;\n\nclass A {}\n")
	defer f.Close()

	assert.True(t, f.HasWildcardImport("java.util"))
	assert.False(t, f.HasWildcardImport("java.io"))
	assert.True(t, f.HasImport("java.io.File"))
	assert.False(t, f.HasImport("java.util"))
}
