package compiler

import (
	"strings"
	"testing"

	"github.com/helixbio/helix/pkg/smk"
)

func TestNameForFile_Prefixes(t *testing.T) {
	if got := NameForFile("/data/reads.fq"); !strings.HasPrefix(got, "a_") {
		t.Errorf("absolute path name = %q, want a_ prefix", got)
	}
	if got := NameForFile("results/out.txt"); !strings.HasPrefix(got, "r_") {
		t.Errorf("relative path name = %q, want r_ prefix", got)
	}
}

func TestNameForFile_CleanPathNoHash(t *testing.T) {
	// Nothing to sanitize: name is the path verbatim, no hash suffix.
	if got := NameForFile("reads_fq"); got != "r_reads_fq" {
		t.Errorf("NameForFile(reads_fq) = %q, want r_reads_fq", got)
	}
}

func TestNameForFile_Injective(t *testing.T) {
	// Both sanitize to the same identifier characters; the hash suffix must
	// keep them apart.
	a := NameForFile("a.b")
	b := NameForFile("a_b")
	if a == b {
		t.Errorf("NameForFile collides: %q == %q", a, b)
	}

	// Same input always yields the same name.
	if again := NameForFile("a.b"); again != a {
		t.Errorf("NameForFile unstable: %q then %q", a, again)
	}
}

func TestNameForValue_PrefersKeyword(t *testing.T) {
	scope := &smk.NamedList{
		Keyword: []smk.KeywordEntry{
			{Name: "reads", Entry: smk.Entry{Files: []smk.FileRef{{Path: "r1.fq"}}}},
		},
	}

	if got := NameForValue(smk.FileRef{Path: "r1.fq"}, scope); got != "reads" {
		t.Errorf("NameForValue = %q, want reads", got)
	}
	if got := NameForValue(smk.FileRef{Path: "other.fq"}, scope); !strings.HasPrefix(got, "r_") {
		t.Errorf("NameForValue fallback = %q, want path-derived r_ name", got)
	}
	if got := NameForValue(smk.FileRef{Path: "x"}, nil); got != "r_x" {
		t.Errorf("NameForValue with nil scope = %q, want r_x", got)
	}
}
