// Package compiler turns a Snakemake DAG into an executable workflow
// graph: it resolves producer/consumer relationships between jobs, infers
// typed parameter interfaces, and wires task nodes together with bindings.
package compiler

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/helixbio/helix/pkg/smk"
)

// NameForFile derives a parameter name from a file path. Absolute paths
// get the "a_" prefix family and relative paths "r_", so the two can never
// collide. When sanitizing the path loses information, a short hash of the
// original path keeps distinct paths distinct.
func NameForFile(path string) string {
	prefix := "r_"
	if strings.HasPrefix(path, "/") {
		prefix = "a_"
	}
	return prefix + identifierSuffix(path)
}

// NameForValue returns the parameter name for ref, preferring the keyword
// name assigned by the rule author when ref appears in scope. Falls back
// to the path-derived name.
func NameForValue(ref smk.FileRef, scope *smk.NamedList) string {
	if scope != nil {
		if name, ok := scope.NameFor(ref); ok {
			return name
		}
	}
	return NameForFile(ref.Path)
}

// identifierSuffix maps an arbitrary string onto identifier characters.
// The mapping is lossy ("a.b" and "a_b" both sanitize to "a_b"), so a hash
// suffix is appended whenever any character was rewritten.
func identifierSuffix(s string) string {
	var b strings.Builder
	lossy := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			lossy = true
		}
	}
	if !lossy {
		return b.String()
	}
	sum := sha1.Sum([]byte(s))
	return b.String() + "_" + hex.EncodeToString(sum[:])[:8]
}
