package compiler

import (
	"errors"
	"testing"

	"github.com/helixbio/helix/pkg/smk"
	"github.com/helixbio/helix/pkg/wfgraph"
)

func TestResolveJob(t *testing.T) {
	dag := linearDAG(t)
	sortJob := dag.Job("1")

	res, err := ResolveJob(dag, sortJob)
	if err != nil {
		t.Fatalf("ResolveJob: %v", err)
	}

	info, ok := res.DepOutputs[fref("aligned.bam").Key()]
	if !ok {
		t.Fatal("aligned.bam not resolved to its producer")
	}
	if info.JobID != "0" || info.ParamName != "bam" || info.Type != wfgraph.ParamFile {
		t.Errorf("info = %+v, want job 0 param bam File", info)
	}
	if len(res.External) != 0 {
		t.Errorf("externals = %v, want none", res.External)
	}

	// The align job's input has no producer and is declared external.
	res, err = ResolveJob(dag, dag.Job("0"))
	if err != nil {
		t.Fatalf("ResolveJob: %v", err)
	}
	if len(res.External) != 1 || res.External[0].Path != "reads.fq" {
		t.Errorf("externals = %v, want [reads.fq]", res.External)
	}
}

func TestResolveJob_Strict(t *testing.T) {
	jobs := []*smk.Job{
		mkJob("0", "x", list(kw("data", fref("orphan.txt"))), smk.NamedList{}),
	}
	dag, err := smk.New(jobs, nil, nil, []smk.FileRef{})
	if err != nil {
		t.Fatalf("smk.New: %v", err)
	}

	_, err = ResolveJob(dag, dag.Job("0"))
	var unresolved *UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want UnresolvedReferenceError", err)
	}
}

func TestTargetFiles(t *testing.T) {
	dag := linearDAG(t)
	set := TargetFiles(dag)

	if !set[fref("sorted.bam").Key()] {
		t.Error("sorted.bam missing from the target set")
	}
	if set[fref("aligned.bam").Key()] {
		t.Error("aligned.bam is intermediate, not terminal")
	}
}

func TestJobInterface(t *testing.T) {
	dag := linearDAG(t)
	job := dag.Job("1")

	res, err := ResolveJob(dag, job)
	if err != nil {
		t.Fatalf("ResolveJob: %v", err)
	}
	iface, err := JobInterface(job, res)
	if err != nil {
		t.Fatalf("JobInterface: %v", err)
	}

	in, ok := iface.Input("bam")
	if !ok || in.TargetPath != "aligned.bam" || !in.Required {
		t.Errorf("input bam = %+v", in)
	}
	out, ok := iface.Output("sorted")
	if !ok || out.TargetPath != "sorted.bam" {
		t.Errorf("output sorted = %+v", out)
	}
}

func TestJobInterface_DedupesRepeatedRef(t *testing.T) {
	// The same file listed twice collapses into one parameter.
	in := smk.NamedList{
		Keyword: []smk.KeywordEntry{
			kw("db", fref("ref.fa")),
			kw("db", fref("ref.fa")),
		},
	}
	job := mkJob("0", "x", in, smk.NamedList{})

	iface, err := JobInterface(job, Resolution{DepOutputs: map[string]JobOutputInfo{}})
	if err != nil {
		t.Fatalf("JobInterface: %v", err)
	}
	if len(iface.Inputs) != 1 {
		t.Errorf("inputs = %+v, want one deduped parameter", iface.Inputs)
	}
}
