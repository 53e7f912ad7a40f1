package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapesSource = `package com.example.shapes;

import java.util.List;

public class Shapes {
    private List<Circle> circles;
    private String label;

    public void draw(Circle circle) {
        String name = circle.describe();
    }

    public static void main(String[] args) {
        Shapes shapes = new Shapes();
    }

    class Inner {
        private int depth;
    }
}

enum Color {
    RED, GREEN
}
`

func TestFindAllClasses(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	classes := f.FindAllClasses()
	require.Len(t, classes, 3)
	assert.Equal(t, "Shapes", f.ClassName(classes[0]))
	assert.Equal(t, "Inner", f.ClassName(classes[1]))
	assert.Equal(t, "Color", f.ClassName(classes[2]))
}

func TestFindClassByName(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	require.NotNil(t, f.FindClassByName("Color"))
	assert.Equal(t, "enum_declaration", f.FindClassByName("Color").Type())
	assert.Nil(t, f.FindClassByName("Absent"))
}

func TestPublicClass(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	assert.Equal(t, "Shapes", f.ClassName(f.PublicClass()))

	// Falls back to the first class when none is public.
	g := NewSourceFile("class A {}\nclass B {}")
	defer g.Close()
	assert.Equal(t, "A", g.ClassName(g.PublicClass()))
}

func TestClassFields_ExcludesNestedTypes(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	fields := f.ClassFields(f.PublicClass())
	require.Len(t, fields, 2)
	assert.Equal(t, "circles", f.TextOf(f.FieldNameNode(fields[0])))
	assert.Equal(t, "List<Circle>", f.TextOf(f.FieldTypeNode(fields[0])))
	assert.Equal(t, "label", f.TextOf(f.FieldNameNode(fields[1])))
}

func TestClassMethods(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	methods := f.ClassMethods(f.PublicClass())
	require.Len(t, methods, 2)
	assert.Equal(t, "draw", f.TextOf(f.MethodNameNode(methods[0])))

	byName := f.FindMethodsByName(f.PublicClass(), "draw")
	require.Len(t, byName, 1)
	assert.Empty(t, f.FindMethodsByName(f.PublicClass(), "absent"))
}

func TestFormalParameters(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	draw := f.FindMethodsByName(f.PublicClass(), "draw")[0]
	params := f.FormalParameters(draw)
	require.Len(t, params, 1)
	assert.Equal(t, "circle", f.TextOf(params[0].ChildByFieldName("name")))
	assert.Equal(t, "Circle", f.TextOf(params[0].ChildByFieldName("type")))
}

func TestLocalVariableDeclarations(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	draw := f.FindMethodsByName(f.PublicClass(), "draw")[0]
	locals := f.LocalVariableDeclarations(draw)
	require.Len(t, locals, 1)
	decl := locals[0].ChildByFieldName("declarator")
	assert.Equal(t, "name", f.TextOf(decl.ChildByFieldName("name")))
}

func TestMethodInvocations(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Len(t, calls, 1)
	assert.Equal(t, "describe", f.TextOf(f.InvocationNameNode(calls[0])))
	assert.Equal(t, "circle", f.TextOf(f.InvocationReceiver(calls[0])))
}

func TestInvocationReceiver_BareCall(t *testing.T) {
	f := NewSourceFile(calculatorSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Len(t, calls, 1)
	assert.Nil(t, f.InvocationReceiver(calls[0]))
}

func TestObjectCreations(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	news := f.ObjectCreations(nil)
	require.Len(t, news, 1)
	assert.Equal(t, "Shapes", f.TextOf(news[0].ChildByFieldName("type")))
}

func TestIsMainMethod(t *testing.T) {
	f := NewSourceFile(shapesSource)
	defer f.Close()

	methods := f.ClassMethods(f.PublicClass())
	assert.False(t, f.IsMainMethod(methods[0]))
	assert.True(t, f.IsMainMethod(methods[1]))
	assert.True(t, f.HasMainMethod())

	g := NewSourceFile(calculatorSource)
	defer g.Close()
	assert.False(t, g.HasMainMethod())
}

func TestIsMainMethod_WrongShape(t *testing.T) {
	src := `public class A {
    static void main(String[] args) {}
    public static int main2(String[] args) { return 0; }
    public static void main(String[] args, int extra) {}
}`
	f := NewSourceFile(src)
	defer f.Close()
	assert.False(t, f.HasMainMethod())
}

func TestDeclLookups_MalformedInput(t *testing.T) {
	f := NewSourceFile("this is not java at all {{{")
	defer f.Close()

	assert.Empty(t, f.FindAllClasses())
	assert.Nil(t, f.PublicClass())
	assert.Empty(t, f.MethodInvocations(nil))
}
