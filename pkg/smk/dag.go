package smk

import (
	"fmt"
	"sort"
)

// Dependency records one upstream edge: the producer job and the files
// flowing along the edge (the subset of the producer's outputs that the
// consumer reads).
type Dependency struct {
	ProducerID string
	Files      []FileRef
}

// DAG is the dependency graph of rule invocations. It is constructed once
// by New or Load and exposes query operations only.
type DAG struct {
	jobs    map[string]*Job
	jobIDs  []string // sorted
	deps    map[string][]Dependency
	targets []string // target job ids, declaration order

	// externals lists the files the DAG builder verified to exist outside
	// the pipeline (keyed by FileRef.Key). A nil set means the export
	// predates external declarations; every producer-less input is then
	// assumed external.
	externals map[string]bool
}

// New builds a DAG from jobs, edges, target job ids, and declared external
// files. It validates that every referenced job exists, that job ids are
// unique, and that the edge relation is acyclic. Pass nil externals to
// treat every producer-less input as externally supplied.
func New(jobs []*Job, deps map[string][]Dependency, targets []string, externals []FileRef) (*DAG, error) {
	d := &DAG{
		jobs: make(map[string]*Job, len(jobs)),
		deps: make(map[string][]Dependency, len(deps)),
	}
	if externals != nil {
		d.externals = make(map[string]bool, len(externals))
		for _, f := range externals {
			d.externals[f.Key()] = true
		}
	}

	for _, j := range jobs {
		if j.ID == "" {
			return nil, fmt.Errorf("job %q has empty id", j.Name)
		}
		if _, dup := d.jobs[j.ID]; dup {
			return nil, fmt.Errorf("duplicate job id %q", j.ID)
		}
		d.jobs[j.ID] = j
		d.jobIDs = append(d.jobIDs, j.ID)
	}
	sort.Strings(d.jobIDs)

	for consumer, ds := range deps {
		if _, ok := d.jobs[consumer]; !ok {
			return nil, fmt.Errorf("dependency edge references unknown job %q", consumer)
		}
		sorted := make([]Dependency, len(ds))
		copy(sorted, ds)
		sort.Slice(sorted, func(i, k int) bool { return sorted[i].ProducerID < sorted[k].ProducerID })
		for _, dep := range sorted {
			if _, ok := d.jobs[dep.ProducerID]; !ok {
				return nil, fmt.Errorf("job %q depends on unknown job %q", consumer, dep.ProducerID)
			}
		}
		d.deps[consumer] = sorted
	}

	for _, t := range targets {
		if _, ok := d.jobs[t]; !ok {
			return nil, fmt.Errorf("target references unknown job %q", t)
		}
		d.targets = append(d.targets, t)
	}

	// Detecting a cycle up front keeps ToposortedLayers infallible.
	if _, err := d.toposort(); err != nil {
		return nil, err
	}
	return d, nil
}

// Job returns the job with the given id, or nil.
func (d *DAG) Job(id string) *Job {
	return d.jobs[id]
}

// Jobs returns all jobs sorted by id.
func (d *DAG) Jobs() []*Job {
	out := make([]*Job, 0, len(d.jobIDs))
	for _, id := range d.jobIDs {
		out = append(out, d.jobs[id])
	}
	return out
}

// Dependencies returns the upstream edges of a job, sorted by producer id.
func (d *DAG) Dependencies(jobID string) []Dependency {
	return d.deps[jobID]
}

// TargetJobs returns the pipeline target jobs in declaration order.
func (d *DAG) TargetJobs() []*Job {
	out := make([]*Job, 0, len(d.targets))
	for _, id := range d.targets {
		out = append(out, d.jobs[id])
	}
	return out
}

// IsDeclaredExternal reports whether ref may be supplied from outside the
// pipeline. With no external declarations in the export, any file is.
func (d *DAG) IsDeclaredExternal(ref FileRef) bool {
	if d.externals == nil {
		return true
	}
	return d.externals[ref.Key()]
}

// IsTargetJob reports whether the job id names a pipeline target job.
func (d *DAG) IsTargetJob(id string) bool {
	for _, t := range d.targets {
		if t == id {
			return true
		}
	}
	return false
}

// ToposortedLayers returns the jobs grouped into topological layers: a
// layer is the set of jobs whose dependencies are all in earlier layers.
// Jobs within a layer are sorted by id for reproducible iteration.
func (d *DAG) ToposortedLayers() [][]*Job {
	layers, err := d.toposort()
	if err != nil {
		// New rejects cyclic graphs, so this cannot happen post-construction.
		panic(err)
	}
	return layers
}

// toposort is Kahn's algorithm, layer by layer.
func (d *DAG) toposort() ([][]*Job, error) {
	inDegree := make(map[string]int, len(d.jobs))
	forward := make(map[string][]string, len(d.jobs))
	for _, id := range d.jobIDs {
		inDegree[id] = 0
	}
	for consumer, ds := range d.deps {
		for _, dep := range ds {
			inDegree[consumer]++
			forward[dep.ProducerID] = append(forward[dep.ProducerID], consumer)
		}
	}

	var frontier []string
	for _, id := range d.jobIDs {
		if inDegree[id] == 0 {
			frontier = append(frontier, id)
		}
	}

	var layers [][]*Job
	done := 0
	for len(frontier) > 0 {
		sort.Strings(frontier)
		layer := make([]*Job, 0, len(frontier))
		var next []string
		for _, id := range frontier {
			layer = append(layer, d.jobs[id])
			done++
			for _, succ := range forward[id] {
				inDegree[succ]--
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		layers = append(layers, layer)
		frontier = next
	}

	if done != len(d.jobs) {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("DAG contains a cycle involving jobs: %v", stuck)
	}
	return layers, nil
}
