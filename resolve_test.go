package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resolutionSource = `package com.example;

public class Orders {
    private Printer printer;
    private Logger helper;

    public void process(Logger helper) {
        helper.log();
        this.describe();
        printer.print();
        Registry.lookup();
    }

    public void shadowing() {
        Writer helper = new Writer();
        helper.write();
        if (true) {
            Reader helper2 = new Reader();
            helper2.read();
        }
    }

    public void inference() {
        var auto = new Printer();
        auto.print();
        int count = 0;
        String text = "x";
    }

    public void describe() {}
}

class Registry {
    static void lookup() {}
}
`

func TestResolveReceiverType_Parameter(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	call := f.MethodInvocations(nil)[0]
	require.Equal(t, "helper.log()", f.TextOf(call))
	// The parameter shadows the Logger field of the same name, and both
	// happen to be Logger here; a parameter of a different type would win.
	assert.Equal(t, "Logger", ResolveReceiverType(f, f.InvocationReceiver(call)))
}

func TestResolveReceiverType_This(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Equal(t, "this.describe()", f.TextOf(calls[1]))
	assert.Equal(t, "Orders", ResolveReceiverType(f, f.InvocationReceiver(calls[1])))
}

func TestResolveReceiverType_Field(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Equal(t, "printer.print()", f.TextOf(calls[2]))
	assert.Equal(t, "Printer", ResolveReceiverType(f, f.InvocationReceiver(calls[2])))
}

func TestResolveReceiverType_StaticReceiver(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Equal(t, "Registry.lookup()", f.TextOf(calls[3]))
	assert.Equal(t, "Registry", ResolveReceiverType(f, f.InvocationReceiver(calls[3])))
}

func TestResolveReceiverType_LocalShadowsField(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Equal(t, "helper.write()", f.TextOf(calls[4]))
	// The field says Logger; the local declaration in scope says Writer.
	assert.Equal(t, "Writer", ResolveReceiverType(f, f.InvocationReceiver(calls[4])))
}

func TestResolveReceiverType_InnerBlock(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Equal(t, "helper2.read()", f.TextOf(calls[5]))
	assert.Equal(t, "Reader", ResolveReceiverType(f, f.InvocationReceiver(calls[5])))
}

func TestResolveReceiverType_VarInference(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	calls := f.MethodInvocations(nil)
	require.Equal(t, "auto.print()", f.TextOf(calls[6]))
	assert.Equal(t, "Printer", ResolveReceiverType(f, f.InvocationReceiver(calls[6])))
}

func TestResolveReceiverType_Unresolvable(t *testing.T) {
	f := NewSourceFile(resolutionSource)
	defer f.Close()

	assert.Equal(t, "", ResolveReceiverType(f, nil))

	// A bare call has no receiver to resolve.
	g := NewSourceFile(calculatorSource)
	defer g.Close()
	call := g.MethodInvocations(nil)[0]
	assert.Equal(t, "", ResolveReceiverType(g, g.InvocationReceiver(call)))
}

func TestResolveReceiverType_GenericCollapsesToBase(t *testing.T) {
	src := `public class A {
    private java.util.List<String> names;
    void f(java.util.List<String> items) {}
    void g() {
        List<String> words = null;
        words.clear();
    }
}`
	f := NewSourceFile(src)
	defer f.Close()
	call := f.MethodInvocations(nil)[0]
	assert.Equal(t, "List", ResolveReceiverType(f, f.InvocationReceiver(call)))
}

func TestResolveReceiverType_Primitive(t *testing.T) {
	src := `public class A {
    void f() {
        int count = 0;
        count.hashCode();
    }
}`
	f := NewSourceFile(src)
	defer f.Close()
	call := f.MethodInvocations(nil)[0]
	assert.Equal(t, "int", ResolveReceiverType(f, f.InvocationReceiver(call)))
}

func TestResolveReceiverType_DeclarationAfterUseIgnored(t *testing.T) {
	src := `public class A {
    private Printer tool;
    void f() {
        tool.print();
        Writer tool = new Writer();
    }
}`
	f := NewSourceFile(src)
	defer f.Close()
	call := f.MethodInvocations(nil)[0]
	// The local Writer declaration comes after the call; the field wins.
	assert.Equal(t, "Printer", ResolveReceiverType(f, f.InvocationReceiver(call)))
}
