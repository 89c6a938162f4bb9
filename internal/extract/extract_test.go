package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deps(t *testing.T, identity, source string) []Dependency {
	t.Helper()
	got, err := Deps(context.Background(), identity, []byte(source))
	require.NoError(t, err)
	return got
}

func specifiers(ds []Dependency) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Specifier)
	}
	return out
}

func TestDepsImportForms(t *testing.T) {
	src := `
import a from "./a";
import { b } from './b';
import * as c from "./c";
import "./side-effect";
import type { T } from "./types";
export { d } from "./d";
export * from "./e";
import legacy = require("./legacy");
const f = require("./f");
const g = import("./g");
`
	got := specifiers(deps(t, "main.ts", src))
	assert.Equal(t, []string{
		"./a", "./b", "./c", "./side-effect", "./types",
		"./d", "./e", "./legacy", "./f", "./g",
	}, got)
}

func TestDepsReferencesComeFirst(t *testing.T) {
	src := `import { x } from "./x";
/// <reference path="./late.d.ts" />
import { y } from "./y";
`
	got := deps(t, "main.ts", src)
	require.Len(t, got, 3)
	assert.Equal(t, Dependency{Specifier: "./late.d.ts", Origin: OriginReference}, got[0])
	assert.Equal(t, Dependency{Specifier: "./x", Origin: OriginImport}, got[1])
	assert.Equal(t, Dependency{Specifier: "./y", Origin: OriginImport}, got[2])
}

func TestDepsReferenceQuoteStyles(t *testing.T) {
	src := `/// <reference path="./a.d.ts" />
/// <reference path='./b.d.ts'/>
/// <reference types="node" />
`
	got := deps(t, "main.ts", src)
	assert.Equal(t, []string{"./a.d.ts", "./b.d.ts"}, specifiers(got))
	for _, d := range got {
		assert.Equal(t, OriginReference, d.Origin)
	}
}

func TestDepsDuplicatesKeepFirstOccurrence(t *testing.T) {
	src := `
import { a } from "./dup";
import { b } from "./other";
import { c } from "./dup";
`
	got := specifiers(deps(t, "main.ts", src))
	assert.Equal(t, []string{"./dup", "./other"}, got)
}

func TestDepsReferenceWinsOverImport(t *testing.T) {
	src := `/// <reference path="./both.d.ts" />
import { a } from "./both.d.ts";
`
	got := deps(t, "main.ts", src)
	require.Len(t, got, 1)
	assert.Equal(t, OriginReference, got[0].Origin)
}

func TestDepsIgnoresNonImportCalls(t *testing.T) {
	src := `
loader.require("./not-a-dep");
require(variable);
require("./real", "extra");
const ok = require("./real");
`
	got := specifiers(deps(t, "main.ts", src))
	assert.Equal(t, []string{"./real"}, got)
}

func TestDepsEmptySource(t *testing.T) {
	got := deps(t, "main.ts", "const x = 1;")
	assert.Empty(t, got)
}

func TestDepsTSX(t *testing.T) {
	src := `
import * as React from "./react";
export function App() {
	return <div className="app">hello</div>;
}
`
	got := specifiers(deps(t, "app.tsx", src))
	assert.Equal(t, []string{"./react"}, got)
}

func TestDepsNestedRequire(t *testing.T) {
	src := `
function load() {
	if (cond) {
		return require("./lazy");
	}
	return null;
}
`
	got := specifiers(deps(t, "main.ts", src))
	assert.Equal(t, []string{"./lazy"}, got)
}

func TestGrammarForAddresses(t *testing.T) {
	assert.Same(t, GrammarFor("app.tsx"), GrammarFor("http://host/app.tsx?x=1"))
	assert.Same(t, GrammarFor("main.ts"), GrammarFor("http://host/main.ts#frag"))
	assert.NotSame(t, GrammarFor("main.ts"), GrammarFor("app.tsx"))
}
