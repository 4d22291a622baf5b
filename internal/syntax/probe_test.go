package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbe_Go(t *testing.T) {
	p := NewProbe()
	defer p.Close()

	src := []byte(`package sample

import "fmt"

type Store struct {
	Name string
}

func New() *Store { return &Store{} }

func (s *Store) Save(name string) error {
	fmt.Println(name)
	return nil
}
`)
	res := p.Parse(context.Background(), "sample/store.go", src)
	require.Equal(t, LangGo, res.Language)

	var names []string
	for _, e := range res.Entities {
		names = append(names, e.Name)
	}
	require.Contains(t, names, "New")
	require.Contains(t, names, "Save")
	require.Contains(t, names, "Store")

	require.Len(t, res.Imports, 1)
	require.Equal(t, "fmt", res.Imports[0].Module)
}

func TestProbe_TypeScriptArrowAdoptsDeclaratorName(t *testing.T) {
	p := NewProbe()
	defer p.Close()

	src := []byte(`import { fetchUser } from "./api";

export const loadUser = (id: string) => {
	return fetchUser(id);
};
`)
	res := p.Parse(context.Background(), "app/user.ts", src)
	require.Equal(t, LangTypeScript, res.Language)

	var names []string
	for _, e := range res.Entities {
		names = append(names, e.Name)
	}
	require.Contains(t, names, "loadUser")

	require.Len(t, res.Imports, 1)
	require.Equal(t, "./api", res.Imports[0].Module)
}

func TestProbe_UnsupportedLanguageYieldsEmpty(t *testing.T) {
	p := NewProbe()
	defer p.Close()

	res := p.Parse(context.Background(), "README.md", []byte("# hello"))
	require.Equal(t, LangUnknown, res.Language)
	require.Empty(t, res.Entities)
	require.Empty(t, res.Imports)
}

func TestProbe_PythonClassAndMethods(t *testing.T) {
	p := NewProbe()
	defer p.Close()

	src := []byte(`import os

class Worker:
    def run(self):
        return os.getcwd()
`)
	res := p.Parse(context.Background(), "worker.py", src)
	require.Equal(t, LangPython, res.Language)

	var kinds = map[string]EntityKind{}
	for _, e := range res.Entities {
		kinds[e.Name] = e.Kind
	}
	require.Equal(t, EntityClass, kinds["Worker"])
	require.Equal(t, EntityMethod, kinds["run"])
}

func TestProbe_RustStructImplAndTrait(t *testing.T) {
	p := NewProbe()
	defer p.Close()

	src := []byte(`use std::fmt;

pub struct Store {
    name: String,
}

impl Store {
    pub fn new() -> Store {
        Store { name: String::new() }
    }
}

pub trait Named {
    fn name(&self) -> &str;
}
`)
	res := p.Parse(context.Background(), "store.rs", src)
	require.Equal(t, LangRust, res.Language)

	hasKind := func(name string, kind EntityKind) bool {
		for _, e := range res.Entities {
			if e.Name == name && e.Kind == kind {
				return true
			}
		}
		return false
	}
	require.True(t, hasKind("Store", EntityStruct), "expected struct_item Store")
	require.True(t, hasKind("Store", EntityClass), "expected impl_item Store")
	require.True(t, hasKind("Named", EntityInterface))
	require.True(t, hasKind("new", EntityFunction))

	require.Len(t, res.Imports, 1)
	require.Equal(t, "std", res.Imports[0].Module)
}

func TestExtractCallSites_MemberAndNew(t *testing.T) {
	p := NewProbe()
	defer p.Close()

	src := []byte(`package sample

func run() {
	a.b.c()
	x := New()
	_ = x
}
`)
	res := p.Parse(context.Background(), "sample/run.go", src)

	var callees []string
	for _, c := range res.Calls {
		callees = append(callees, c.CalleeSymbol)
	}
	require.Contains(t, callees, "c")
	require.Contains(t, callees, "New")
}
