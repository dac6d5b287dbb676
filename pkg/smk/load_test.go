package smk

import (
	"reflect"
	"strings"
	"testing"
)

const sampleExport = `{
  "jobs": [
    {
      "id": "0",
      "name": "align",
      "input": {
        "positional": ["ref.fa"],
        "keyword": [
          {"name": "reads", "value": ["r1.fq", "r2.fq"]}
        ]
      },
      "output": {
        "positional": [],
        "keyword": [
          {"name": "bam", "value": "aligned.bam"},
          {"name": "workdir", "value": {"value": "align_work", "flags": {"directory": true, "temp": true}}}
        ]
      },
      "params": {"positional": [], "keyword": []},
      "wildcards": {"sample": "s1"},
      "threads": 4,
      "resources": {"mem_mb": "8000"},
      "rules": ["align"]
    },
    {
      "id": "1",
      "name": "all",
      "input": {"positional": ["aligned.bam"], "keyword": []},
      "output": {"positional": [], "keyword": []},
      "params": {"positional": [], "keyword": []},
      "rules": ["all"]
    }
  ],
  "dependencies": [
    {"job": "1", "producer": "0", "files": ["aligned.bam"]}
  ],
  "targets": ["1"],
  "externals": ["ref.fa", "r1.fq", "r2.fq"]
}`

func TestLoad(t *testing.T) {
	dag, err := Load(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	align := dag.Job("0")
	if align == nil {
		t.Fatal("job 0 missing")
	}
	if align.Name != "align" || align.Threads != 4 {
		t.Errorf("job 0 = %q threads=%d, want align threads=4", align.Name, align.Threads)
	}

	// Flatten: keyword entries first in declaration order, then positional.
	wantIn := []string{"r1.fq", "r2.fq", "ref.fa"}
	var gotIn []string
	for _, f := range align.Input {
		gotIn = append(gotIn, f.Path)
	}
	if !reflect.DeepEqual(gotIn, wantIn) {
		t.Errorf("input order = %v, want %v", gotIn, wantIn)
	}

	// Annotated output carries its flags.
	var workdir FileRef
	for _, f := range align.Output {
		if f.Path == "align_work" {
			workdir = f
		}
	}
	if !workdir.IsDirectory() || !workdir.Flags["temp"] {
		t.Errorf("workdir flags = %v, want directory and temp", workdir.Flags)
	}

	// Keyword names survive for synthesis.
	if name, ok := align.OutputList.NameFor(ref("aligned.bam")); !ok || name != "bam" {
		t.Errorf("NameFor(aligned.bam) = %q, %v; want bam, true", name, ok)
	}

	// Declared externals are honored; the dep-produced bam is not external.
	if !dag.IsDeclaredExternal(ref("ref.fa")) {
		t.Error("ref.fa should be declared external")
	}
	if dag.IsDeclaredExternal(ref("aligned.bam")) {
		t.Error("aligned.bam should not be declared external")
	}

	if targets := dag.TargetJobs(); len(targets) != 1 || targets[0].ID != "1" {
		t.Errorf("targets = %v, want [1]", targets)
	}
}

func TestLoad_NoExternalsSection(t *testing.T) {
	doc := `{
  "jobs": [{"id": "0", "name": "x",
    "input": {"positional": [], "keyword": []},
    "output": {"positional": [], "keyword": []},
    "params": {"positional": [], "keyword": []},
    "rules": ["x"]}],
  "dependencies": [],
  "targets": ["0"]
}`
	dag, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !dag.IsDeclaredExternal(ref("whatever")) {
		t.Error("export without externals must admit any producer-less input")
	}
}

func TestLoad_BadFileEntry(t *testing.T) {
	doc := `{
  "jobs": [{"id": "0", "name": "x",
    "input": {"positional": [42], "keyword": []},
    "output": {"positional": [], "keyword": []},
    "params": {"positional": [], "keyword": []},
    "rules": ["x"]}],
  "dependencies": [],
  "targets": []
}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("Load accepted a numeric file entry")
	}
}
