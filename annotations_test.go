package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entitySource = `package com.example.model;

import jakarta.persistence.Entity;
import jakarta.persistence.Id;

@Entity
public class Customer {
    @Id
    private Long id;

    private String name;
}
`

func TestIsJPAEntity(t *testing.T) {
	f := NewSourceFile(entitySource)
	defer f.Close()

	assert.True(t, f.IsJPAEntity())
	require.NotNil(t, f.EntityAnnotation())
	assert.Equal(t, "Customer", f.EntityName())
}

func TestIsJPAEntity_RequiresImport(t *testing.T) {
	// An @Entity from some other package is not a persistence entity.
	f := NewSourceFile(`package p;

import com.example.custom.Entity;

@Entity
public class A {}
`)
	defer f.Close()
	assert.False(t, f.IsJPAEntity())

	g := NewSourceFile("@Entity\npublic class A {}\n")
	defer g.Close()
	assert.False(t, g.IsJPAEntity())
}

func TestIsJPAEntity_WildcardImport(t *testing.T) {
	f := NewSourceFile(`package p;

import javax.persistence.*;

@Entity
public class A {}
`)
	defer f.Close()
	assert.True(t, f.IsJPAEntity())
}

func TestEntityName_ExplicitName(t *testing.T) {
	f := NewSourceFile(`package p;

import jakarta.persistence.Entity;

@Entity(name = "customers")
public class Customer {}
`)
	defer f.Close()
	assert.Equal(t, "customers", f.EntityName())
}

func TestIDField(t *testing.T) {
	f := NewSourceFile(entitySource)
	defer f.Close()

	field := f.IDField()
	require.NotNil(t, field)
	assert.Equal(t, "id", f.TextOf(f.FieldNameNode(field)))
	assert.Equal(t, "Long", f.IDFieldType())
}

func TestIDField_AbsentWithoutAnnotation(t *testing.T) {
	f := NewSourceFile(`package p;

import jakarta.persistence.Entity;
import jakarta.persistence.Id;

@Entity
public class A {
    private Long id;
}
`)
	defer f.Close()
	assert.Nil(t, f.IDField())
	assert.Equal(t, "", f.IDFieldType())
}

func TestEntityHelpers_NonEntity(t *testing.T) {
	f := NewSourceFile(calculatorSource)
	defer f.Close()

	assert.False(t, f.IsJPAEntity())
	assert.Equal(t, "", f.EntityName())
	assert.Nil(t, f.IDField())
}
