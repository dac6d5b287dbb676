package compiler

import (
	"path"
	"sort"
	"strings"

	"github.com/helixbio/helix/pkg/meta"
	"github.com/helixbio/helix/pkg/smk"
	"github.com/helixbio/helix/pkg/wfgraph"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// StorePrefix is the content-store root under which workflow artifacts
// (inputs, entrypoints, specs) live.
const StorePrefix = "/.helix/workflows"

// JobInterface infers the typed parameter interface of one job. Input
// parameters produced upstream inherit the producer's type; externally
// supplied ones are typed by their own directory flag. Every output
// becomes a parameter typed by its directory flag.
func JobInterface(job *smk.Job, res Resolution) (wfgraph.Interface, error) {
	inputs, err := inferParams(job.ID, job.Input, &job.InputList, func(ref smk.FileRef) wfgraph.ParamType {
		if info, ok := res.DepOutputs[ref.Key()]; ok {
			return info.Type
		}
		return paramTypeFor(ref)
	})
	if err != nil {
		return wfgraph.Interface{}, err
	}

	outputs, err := inferParams(job.ID, job.Output, &job.OutputList, paramTypeFor)
	if err != nil {
		return wfgraph.Interface{}, err
	}

	return wfgraph.Interface{Inputs: inputs, Outputs: outputs}, nil
}

// inferParams names and types one side of a job's parameter list. A file
// appearing twice collapses into one parameter; two distinct files mapping
// to the same name is an error.
func inferParams(jobID string, refs []smk.FileRef, scope *smk.NamedList, typeOf func(smk.FileRef) wfgraph.ParamType) ([]wfgraph.TypedParameter, error) {
	byName := make(map[string]smk.FileRef)
	var params []wfgraph.TypedParameter

	for _, x := range refs {
		name := NameForValue(x, scope)
		if prev, ok := byName[name]; ok {
			if prev.Equal(x) {
				continue
			}
			return nil, &DuplicateParamError{JobID: jobID, Param: name, Files: []string{prev.Path, x.Path}}
		}
		byName[name] = x
		params = append(params, wfgraph.TypedParameter{
			Name:       name,
			Type:       typeOf(x),
			Required:   true,
			TargetPath: x.Path,
		})
	}

	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params, nil
}

// GraphOutput pairs a graph-level output parameter with the target file it
// was derived from, for later producer matching.
type GraphOutput struct {
	Param wfgraph.TypedParameter
	File  smk.FileRef
}

// GraphInterface is the inferred pipeline-level interface: typed graph
// inputs with pre-bound content-store literals, graph outputs, and the
// upload manifest for externally supplied files.
type GraphInterface struct {
	Inputs      []wfgraph.TypedParameter
	Outputs     []GraphOutput
	Literals    map[string]wfgraph.Literal
	RemoteFiles []wfgraph.RemoteFile
}

// InferDAGInterface runs interface inference against the whole DAG: every
// target-job input becomes a graph output (typed by its producer's output)
// and every externally supplied job input becomes a required graph input
// with a content-store upload record and literal.
func InferDAGInterface(dag *smk.DAG, m *meta.Metadata) (*GraphInterface, error) {
	gi := &GraphInterface{Literals: make(map[string]wfgraph.Literal)}

	for _, target := range dag.TargetJobs() {
		for _, desired := range target.Input {
			param := NameForValue(desired, &target.InputList)

			producerType, err := producerOutputType(dag, target, desired)
			if err != nil {
				return nil, err
			}
			gi.Outputs = append(gi.Outputs, GraphOutput{
				Param: wfgraph.TypedParameter{
					Name:       param,
					Type:       producerType,
					Required:   true,
					TargetPath: desired.Path,
				},
				File: desired,
			})
		}
	}
	sort.Slice(gi.Outputs, func(i, j int) bool { return gi.Outputs[i].Param.Name < gi.Outputs[j].Param.Name })

	inputFiles := make(map[string]smk.FileRef) // param -> file
	uploaded := make(map[string]bool)          // local path -> already recorded

	for _, job := range dag.Jobs() {
		res, err := ResolveJob(dag, job)
		if err != nil {
			return nil, err
		}
		for _, x := range res.External {
			param := NameForValue(x, &job.InputList)
			if prev, seen := inputFiles[param]; seen {
				if prev.Equal(x) {
					continue
				}
				return nil, &ConflictingInputError{Param: param, Paths: []string{prev.Path, x.Path}}
			}
			inputFiles[param] = x

			remote := inputRemotePath(m.Name, x.Path)
			gi.Literals[param] = wfgraph.Literal{URI: remote, IsDirectory: x.IsDirectory()}
			if !uploaded[x.Path] {
				uploaded[x.Path] = true
				gi.RemoteFiles = append(gi.RemoteFiles, wfgraph.RemoteFile{LocalPath: x.Path, RemotePath: remote})
			}
		}
	}

	params := maps.Keys(inputFiles)
	slices.Sort(params)
	for _, param := range params {
		x := inputFiles[param]
		gi.Inputs = append(gi.Inputs, wfgraph.TypedParameter{
			Name:       param,
			Type:       paramTypeFor(x),
			Required:   true,
			TargetPath: x.Path,
		})
	}
	sort.Slice(gi.RemoteFiles, func(i, j int) bool { return gi.RemoteFiles[i].LocalPath < gi.RemoteFiles[j].LocalPath })

	return gi, nil
}

// producerOutputType finds the upstream output matching a target-job input
// and returns its type. A target input with no producer and no external
// declaration is an unresolved reference.
func producerOutputType(dag *smk.DAG, target *smk.Job, desired smk.FileRef) (wfgraph.ParamType, error) {
	for _, dep := range dag.Dependencies(target.ID) {
		producer := dag.Job(dep.ProducerID)
		for _, o := range producer.Output {
			if o.Equal(desired) {
				return paramTypeFor(o), nil
			}
		}
	}
	for _, job := range dag.Jobs() {
		if job.ProducesFile(desired) {
			return paramTypeFor(desired), nil
		}
	}
	return 0, &UnresolvedReferenceError{JobID: target.ID, JobName: target.Name, File: desired.Path}
}

// inputRemotePath builds the content-store destination for an externally
// supplied input. Leading slashes are trimmed before joining so absolute
// local paths cannot escape the workflow's input prefix.
func inputRemotePath(wfName, localPath string) string {
	return "helix://" + path.Join(StorePrefix, wfName, "inputs", strings.TrimLeft(localPath, "/"))
}
