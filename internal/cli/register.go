package cli

import (
	"fmt"

	"github.com/helixbio/helix/internal/config"
	"github.com/helixbio/helix/internal/uploader"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	cfg := config.DefaultCompileConfig()
	var name string
	var noCache bool
	var uploadDir string

	cmd := &cobra.Command{
		Use:   "register <dag.json>",
		Short: "Compile a DAG and upload its artifacts to the content store",
		Long: `Compiles the DAG export (or reuses the cached compilation) and uploads
the externally supplied inputs, the generated entrypoint, and the workflow
spec to the content store. The store is configured via the HELIX_S3_*
environment, or --upload-dir for a local destination.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			res, err := compileDAG(ctx, args[0], name, cfg, noCache)
			if err != nil {
				return err
			}

			var store uploader.ContentStore
			if uploadDir != "" {
				store = &uploader.DirStore{Root: uploadDir}
			} else {
				store, err = uploader.NewS3Store(config.StoreConfigFromEnv())
				if err != nil {
					return err
				}
			}

			up := uploader.New(store, logger)
			if err := up.UploadGraph(ctx, res.graph, res.spec, res.entrypoint); err != nil {
				return err
			}

			fmt.Printf("Registered %s version %s: %d nodes, %d uploaded inputs\n",
				res.graph.Name, res.version, len(res.graph.Nodes), len(res.graph.RemoteFiles))
			return nil
		},
	}

	addCompileFlags(cmd, &cfg, &name, &noCache)
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "", "Upload into a local directory instead of the content store")
	return cmd
}
