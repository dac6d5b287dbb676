package compiler

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/helixbio/helix/internal/codegen"
	"github.com/helixbio/helix/pkg/meta"
	"github.com/helixbio/helix/pkg/smk"
	"github.com/helixbio/helix/pkg/wfgraph"
)

// Options configure one compilation.
type Options struct {
	// SnakefilePath is the Snakefile location inside the task container,
	// baked into each generated re-entry command.
	SnakefilePath string

	// RemoteOutputURL overrides the default content-store destination for
	// terminal outputs, logs, and benchmarks.
	RemoteOutputURL string
}

// Compiler walks a DAG in topological order and produces the compiled
// workflow graph. Compilation is single-threaded, performs no I/O, and is
// a pure function of the DAG: the same DAG always yields a byte-identical
// graph and generated source.
type Compiler struct {
	logger *slog.Logger
}

// New creates a Compiler with the given logger.
func New(logger *slog.Logger) *Compiler {
	return &Compiler{logger: logger.With("component", "compiler")}
}

// Compile builds the full workflow graph for dag: one task node per
// non-target job, input bindings against upstream outputs or the global
// input sentinel, graph-level output bindings, and generated entrypoint
// code for every node.
func (c *Compiler) Compile(dag *smk.DAG, m *meta.Metadata, opts Options) (*wfgraph.Graph, error) {
	gi, err := InferDAGInterface(dag, m)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(gi.Outputs); i++ {
		if gi.Outputs[i].Param.Name == gi.Outputs[i-1].Param.Name {
			return nil, &AmbiguousTargetError{
				Param:      gi.Outputs[i].Param.Name,
				Candidates: []string{gi.Outputs[i-1].File.Path, gi.Outputs[i].File.Path},
			}
		}
	}

	targetFiles := TargetFiles(dag)
	genCfg := codegen.Config{
		WorkflowName:    m.Name,
		SnakefilePath:   opts.SnakefilePath,
		RemoteOutputURL: opts.RemoteOutputURL,
	}

	nodeByJob := make(map[string]*wfgraph.TaskNode)
	var nodes []*wfgraph.TaskNode

	for _, layer := range dag.ToposortedLayers() {
		for _, job := range layer {
			if dag.IsTargetJob(job.ID) {
				continue
			}

			node, err := c.compileJob(dag, job, targetFiles, nodeByJob, genCfg)
			if err != nil {
				return nil, err
			}
			nodeByJob[job.ID] = node
			nodes = append(nodes, node)
		}
	}

	outputs, err := resolveGraphOutputs(dag, gi.Outputs, nodeByJob)
	if err != nil {
		return nil, err
	}

	g := &wfgraph.Graph{
		Name:        m.Name,
		Inputs:      gi.Inputs,
		Nodes:       nodes,
		Outputs:     outputs,
		Literals:    gi.Literals,
		RemoteFiles: gi.RemoteFiles,
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("compiled graph failed validation: %w", err)
	}

	c.logger.Debug("compiled workflow",
		"name", g.Name, "nodes", len(g.Nodes), "inputs", len(g.Inputs), "outputs", len(g.Outputs))
	return g, nil
}

func (c *Compiler) compileJob(dag *smk.DAG, job *smk.Job, targetFiles map[string]bool, nodeByJob map[string]*wfgraph.TaskNode, genCfg codegen.Config) (*wfgraph.TaskNode, error) {
	res, err := ResolveJob(dag, job)
	if err != nil {
		return nil, err
	}
	iface, err := JobInterface(job, res)
	if err != nil {
		return nil, err
	}

	isTarget := false
	for _, o := range job.Output {
		if targetFiles[o.Key()] {
			isTarget = true
			break
		}
	}

	refByName := make(map[string]smk.FileRef, len(job.Input))
	for _, x := range job.Input {
		refByName[NameForValue(x, &job.InputList)] = x
	}

	// Interface inputs are sorted by name, so bindings come out sorted too.
	var bindings []wfgraph.Binding
	for _, p := range iface.Inputs {
		ref := refByName[p.Name]
		if info, ok := res.DepOutputs[ref.Key()]; ok {
			bindings = append(bindings, wfgraph.Binding{
				Param:       p.Name,
				SourceNode:  nodeID(info.JobID),
				SourceParam: info.ParamName,
			})
			continue
		}
		bindings = append(bindings, wfgraph.Binding{
			Param:       p.Name,
			SourceNode:  wfgraph.GlobalInputNodeID,
			SourceParam: p.Name,
		})
	}

	var upstream []string
	for _, dep := range dag.Dependencies(job.ID) {
		if _, compiled := nodeByJob[dep.ProducerID]; compiled {
			upstream = append(upstream, nodeID(dep.ProducerID))
		}
	}
	sort.Strings(upstream)

	node := &wfgraph.TaskNode{
		ID:        nodeID(job.ID),
		Name:      fmt.Sprintf("%s_%s", job.Name, job.ID),
		JobID:     job.ID,
		Interface: iface,
		Bindings:  bindings,
		Upstream:  upstream,
		IsTarget:  isTarget,
	}

	code, err := codegen.GenerateTask(node, job, genCfg)
	if err != nil {
		return nil, fmt.Errorf("generate code for node %s: %w", node.ID, err)
	}
	node.Code = code
	return node, nil
}

// resolveGraphOutputs locates, for every declared graph output, the unique
// upstream node/param pair producing its target file. Zero matches is an
// unresolved output; more than one distinct match is an ambiguity. Both
// abort compilation.
func resolveGraphOutputs(dag *smk.DAG, outputs []GraphOutput, nodeByJob map[string]*wfgraph.TaskNode) ([]wfgraph.Binding, error) {
	type candidate struct {
		binding wfgraph.Binding
		jobID   string
	}

	var bindings []wfgraph.Binding
	for _, out := range outputs {
		seen := make(map[string]bool)
		var candidates []candidate

		for _, target := range dag.TargetJobs() {
			for _, dep := range dag.Dependencies(target.ID) {
				producer := dag.Job(dep.ProducerID)
				for _, f := range dep.Files {
					if !f.Equal(out.File) || !producer.ProducesFile(f) {
						continue
					}
					b := wfgraph.Binding{
						Param:       out.Param.Name,
						SourceNode:  nodeID(producer.ID),
						SourceParam: NameForValue(f, &producer.OutputList),
					}
					key := b.SourceNode + "." + b.SourceParam
					if !seen[key] {
						seen[key] = true
						candidates = append(candidates, candidate{binding: b, jobID: producer.ID})
					}
				}
			}
		}

		if len(candidates) != 1 {
			var names []string
			for _, c := range candidates {
				names = append(names, c.binding.SourceNode+"."+c.binding.SourceParam)
			}
			return nil, &AmbiguousTargetError{Param: out.Param.Name, Candidates: names}
		}
		if _, compiled := nodeByJob[candidates[0].jobID]; !compiled {
			return nil, &AmbiguousTargetError{Param: out.Param.Name}
		}
		bindings = append(bindings, candidates[0].binding)
	}
	return bindings, nil
}

func nodeID(jobID string) string {
	return "n" + jobID
}
