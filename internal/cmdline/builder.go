// Package cmdline builds the command line for re-invoking the single-job
// Snakemake execution engine inside a generated task body.
package cmdline

import (
	"fmt"
	"sort"

	"github.com/helixbio/helix/pkg/smk"
)

// excludedResources are internal Snakemake resources never passed through
// to the re-entry command.
var excludedResources = map[string]bool{
	"_nodes": true,
	"_cores": true,
	"tmpdir": true,
}

// Builder constructs the argv for one job's re-entry command. The argv is
// deterministic: resource flags render in sorted order.
type Builder struct {
	// SnakefilePath is the Snakefile location inside the task container.
	SnakefilePath string
}

// Build returns the interpreter arguments (without the interpreter itself)
// that re-run exactly this job's rules with its resource allocation.
func (b *Builder) Build(job *smk.Job) []string {
	args := []string{
		"-m", "helix.snakemake.single_task",
		"-s", b.SnakefilePath,
		"--target-jobs",
	}
	args = append(args, EncodeTargetJobs(job)...)

	args = append(args, "--allowed-rules")
	args = append(args, job.Rules...)

	args = append(args,
		"--local-groupid", job.ID,
		"--cores", fmt.Sprintf("%d", job.Threads),
	)
	if !job.IsGroup() {
		args = append(args, "--force-use-threads")
	}

	resources := allowedResources(job)
	if len(resources) > 0 {
		args = append(args, "--resources")
		args = append(args, resources...)
	}
	return args
}

// EncodeTargetJobs renders the job's target specs in the
// `rule:wildcard=value,...` form the single-job engine expects. Wildcards
// render sorted by name.
func EncodeTargetJobs(job *smk.Job) []string {
	rules := job.Rules
	if len(rules) == 0 {
		rules = []string{job.Name}
	}

	wildcards := make([]string, 0, len(job.Wildcards))
	for k := range job.Wildcards {
		wildcards = append(wildcards, k)
	}
	sort.Strings(wildcards)

	var specs []string
	for _, rule := range rules {
		spec := rule + ":"
		for i, k := range wildcards {
			if i > 0 {
				spec += ","
			}
			spec += k + "=" + job.Wildcards[k]
		}
		specs = append(specs, spec)
	}
	return specs
}

// allowedResources renders the job's named resources as k=v pairs, sorted,
// with the internal set excluded.
func allowedResources(job *smk.Job) []string {
	names := make([]string, 0, len(job.Resources))
	for k := range job.Resources {
		if excludedResources[k] {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, k := range names {
		out = append(out, k+"="+job.Resources[k])
	}
	return out
}
