// Package smk models a Snakemake DAG export as an immutable, query-only
// graph. The compiler never mutates these structures; they are loaded once
// from the JSON dump produced by the Snakemake shim and read from there.
package smk

import (
	"sort"
	"strings"
)

// FileRef is a file or directory path as it appears in a rule's input or
// output list, together with its Snakemake annotation flags ("directory",
// "temp", "protected", ...). Identity is path plus flags.
type FileRef struct {
	Path  string
	Flags map[string]bool
}

// IsDirectory reports whether the ref was declared with directory().
func (f FileRef) IsDirectory() bool {
	return f.Flags["directory"]
}

// Equal reports whether two refs name the same file with the same flags.
func (f FileRef) Equal(o FileRef) bool {
	return f.Key() == o.Key()
}

// Key returns a canonical string identity for use as a map key.
// Flags are rendered sorted so two refs with equal flag sets collide.
func (f FileRef) Key() string {
	if len(f.Flags) == 0 {
		return f.Path
	}
	flags := make([]string, 0, len(f.Flags))
	for k, v := range f.Flags {
		if v {
			flags = append(flags, k)
		}
	}
	sort.Strings(flags)
	if len(flags) == 0 {
		return f.Path
	}
	return f.Path + "\x00" + strings.Join(flags, ",")
}

// Entry is one slot of a NamedList: either a single file or a sub-list.
type Entry struct {
	Files  []FileRef
	IsList bool
}

// KeywordEntry is a named NamedList slot, e.g. `reads=...` in a rule.
type KeywordEntry struct {
	Name  string
	Entry Entry
}

// NamedList mirrors Snakemake's Namedlist: ordered positional entries plus
// keyword entries in declaration order.
type NamedList struct {
	Positional []Entry
	Keyword    []KeywordEntry
}

// NameFor returns the keyword name assigned to ref in this list, if any.
// Positional entries never contribute names.
func (n *NamedList) NameFor(ref FileRef) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, kw := range n.Keyword {
		for _, f := range kw.Entry.Files {
			if f.Equal(ref) {
				return kw.Name, true
			}
		}
	}
	return "", false
}

// Job is one node of the DAG: a rule invocation with concrete input and
// output file bindings. Jobs are read-only to the compiler.
type Job struct {
	ID        string
	Name      string
	Input     []FileRef
	Output    []FileRef
	Wildcards map[string]string

	// Named scopes for the rule's declarations, used for parameter name
	// synthesis and for the single-job re-entry payload.
	InputList  NamedList
	OutputList NamedList
	ParamsList NamedList

	Threads   int
	Resources map[string]string
	Log       []string
	Benchmark string
	Rules     []string

	// GroupJobIDs is non-empty when this is a grouped job wrapping several
	// underlying jobs sharing an execution context.
	GroupJobIDs []string
}

// IsGroup reports whether the job is a composite group job.
func (j *Job) IsGroup() bool {
	return len(j.GroupJobIDs) > 0
}

// ProducesFile reports whether ref appears in the job's declared outputs.
func (j *Job) ProducesFile(ref FileRef) bool {
	for _, o := range j.Output {
		if o.Equal(ref) {
			return true
		}
	}
	return false
}
