// Package codegen synthesizes the Python entrypoint source executed by
// each compiled task node. Code is built as a small statement tree and
// rendered by a single indent-aware emitter, so interpolated paths and
// identifiers can never corrupt the generated syntax and the output is
// byte-deterministic.
package codegen

import (
	"strconv"
	"strings"
)

// Stmt is one node of the generated-code tree.
type Stmt interface {
	emit(e *emitter)
}

// Line is a single raw line of code at the current indent level.
type Line string

func (l Line) emit(e *emitter) {
	e.line(string(l))
}

// Blank is an empty line.
type Blank struct{}

func (Blank) emit(e *emitter) {
	e.blank()
}

// Block is a header line followed by an indented body, e.g. a `try:` or
// `def f():` suite.
type Block struct {
	Header string
	Body   []Stmt
}

func (b Block) emit(e *emitter) {
	e.line(b.Header)
	e.indent++
	if len(b.Body) == 0 {
		e.line("pass")
	}
	for _, s := range b.Body {
		s.emit(e)
	}
	e.indent--
}

// Group flattens a statement list, useful for helpers returning several
// statements.
type Group []Stmt

func (g Group) emit(e *emitter) {
	for _, s := range g {
		s.emit(e)
	}
}

type emitter struct {
	b      strings.Builder
	indent int
}

func (e *emitter) line(s string) {
	for i := 0; i < e.indent; i++ {
		e.b.WriteString("    ")
	}
	e.b.WriteString(s)
	e.b.WriteByte('\n')
}

func (e *emitter) blank() {
	e.b.WriteByte('\n')
}

// Render emits the statement tree starting at the given indent level.
func Render(indent int, stmts ...Stmt) string {
	e := &emitter{indent: indent}
	for _, s := range stmts {
		s.emit(e)
	}
	return e.b.String()
}

// pyStr renders a Python string literal. Go's quoting escapes are a subset
// of Python's, so strconv.Quote output is valid Python.
func pyStr(s string) string {
	return strconv.Quote(s)
}

// pyOptStr renders a Python Optional[str] literal.
func pyOptStr(s string) string {
	if s == "" {
		return "None"
	}
	return pyStr(s)
}

// pyStrList renders a Python list of string literals.
func pyStrList(xs []string) string {
	quoted := make([]string, 0, len(xs))
	for _, x := range xs {
		quoted = append(quoted, pyStr(x))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// pyArgv renders the argv list for a subprocess call: the interpreter
// followed by quoted arguments.
func pyArgv(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, "sys.executable")
	for _, a := range args {
		parts = append(parts, pyStr(a))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
