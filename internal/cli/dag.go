package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/helixbio/helix/internal/compiler"
	"github.com/helixbio/helix/pkg/smk"
	"github.com/spf13/cobra"
)

func newDAGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dag <dag.json>",
		Short: "Inspect a DAG export: layers and input resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open DAG export: %w", err)
			}
			defer f.Close()

			dag, err := smk.Load(f)
			if err != nil {
				return err
			}

			for i, layer := range dag.ToposortedLayers() {
				fmt.Printf("Layer %d:\n", i)
				for _, job := range layer {
					printJob(dag, job)
				}
			}

			var targets []string
			for _, t := range dag.TargetJobs() {
				targets = append(targets, fmt.Sprintf("%s (%s)", t.Name, t.ID))
			}
			fmt.Printf("Targets: %s\n", strings.Join(targets, ", "))
			return nil
		},
	}
	return cmd
}

func printJob(dag *smk.DAG, job *smk.Job) {
	kind := ""
	if dag.IsTargetJob(job.ID) {
		kind = " [target]"
	}
	fmt.Printf("  %s (%s)%s\n", job.Name, job.ID, kind)

	res, err := compiler.ResolveJob(dag, job)
	if err != nil {
		fmt.Printf("    ! %v\n", err)
		return
	}

	for _, x := range job.Input {
		param := compiler.NameForValue(x, &job.InputList)
		if info, ok := res.DepOutputs[x.Key()]; ok {
			fmt.Printf("    in  %s = %s <- job %s (%s, %s)\n",
				param, x.Path, info.JobID, info.ParamName, info.Type)
			continue
		}
		fmt.Printf("    in  %s = %s <- external\n", param, x.Path)
	}
	for _, x := range job.Output {
		param := compiler.NameForValue(x, &job.OutputList)
		t := "File"
		if x.IsDirectory() {
			t = "Directory"
		}
		fmt.Printf("    out %s = %s (%s)\n", param, x.Path, t)
	}
}
