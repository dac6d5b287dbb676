package compiler

import (
	"github.com/helixbio/helix/pkg/smk"
	"github.com/helixbio/helix/pkg/wfgraph"
)

// JobOutputInfo identifies the upstream slot producing a file: the
// producer job, the producer's own output parameter name, and its type.
type JobOutputInfo struct {
	JobID     string
	ParamName string
	Type      wfgraph.ParamType
}

// Resolution classifies one job's inputs: those produced upstream (keyed
// by FileRef.Key) and those supplied from outside the pipeline.
type Resolution struct {
	DepOutputs map[string]JobOutputInfo
	External   []smk.FileRef
}

// ResolveJob determines, for each input of job, whether it is produced by
// an upstream dependency or externally supplied. An input with neither a
// producer nor an external declaration is an UnresolvedReferenceError.
func ResolveJob(dag *smk.DAG, job *smk.Job) (Resolution, error) {
	res := Resolution{DepOutputs: make(map[string]JobOutputInfo)}

	for _, dep := range dag.Dependencies(job.ID) {
		producer := dag.Job(dep.ProducerID)
		for _, o := range producer.Output {
			if !refInSet(o, dep.Files) {
				continue
			}
			res.DepOutputs[o.Key()] = JobOutputInfo{
				JobID:     producer.ID,
				ParamName: NameForValue(o, &producer.OutputList),
				Type:      paramTypeFor(o),
			}
		}
	}

	for _, x := range job.Input {
		if _, ok := res.DepOutputs[x.Key()]; ok {
			continue
		}
		if !dag.IsDeclaredExternal(x) {
			return Resolution{}, &UnresolvedReferenceError{JobID: job.ID, JobName: job.Name, File: x.Path}
		}
		res.External = append(res.External, x)
	}

	return res, nil
}

// TargetFiles returns the set of files the pipeline targets consume, keyed
// by FileRef.Key. An output in this set is terminal: it is surfaced as a
// graph-level output instead of being rewired into another job.
func TargetFiles(dag *smk.DAG) map[string]bool {
	set := make(map[string]bool)
	for _, target := range dag.TargetJobs() {
		for _, x := range target.Input {
			set[x.Key()] = true
		}
	}
	return set
}

func paramTypeFor(ref smk.FileRef) wfgraph.ParamType {
	if ref.IsDirectory() {
		return wfgraph.ParamDirectory
	}
	return wfgraph.ParamFile
}

func refInSet(ref smk.FileRef, set []smk.FileRef) bool {
	for _, f := range set {
		if f.Equal(ref) {
			return true
		}
	}
	return false
}
