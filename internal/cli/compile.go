package cli

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/helixbio/helix/internal/codegen"
	"github.com/helixbio/helix/internal/compiler"
	"github.com/helixbio/helix/internal/config"
	"github.com/helixbio/helix/internal/store"
	"github.com/helixbio/helix/pkg/meta"
	"github.com/helixbio/helix/pkg/smk"
	"github.com/helixbio/helix/pkg/wfgraph"
	"github.com/spf13/cobra"
)

// compileResult bundles everything one compilation produces.
type compileResult struct {
	graph      *wfgraph.Graph
	spec       []byte
	entrypoint string
	dagHash    string
	version    string
	fromCache  bool
}

func newCompileCmd() *cobra.Command {
	cfg := config.DefaultCompileConfig()
	var name string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "compile <dag.json>",
		Short: "Compile a Snakemake DAG export into a workflow graph",
		Long: `Compiles the DAG export into a workflow spec and a generated entrypoint,
writes both into the output directory, and records the result in the local
compile cache. Compilation is deterministic: the same DAG always produces
byte-identical output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compileDAG(cmd.Context(), args[0], name, cfg, noCache)
			if err != nil {
				return err
			}

			specPath := filepath.Join(cfg.OutputDir, "wf_spec.json")
			entryPath := filepath.Join(cfg.OutputDir, codegen.EntrypointFileName)
			if err := os.WriteFile(specPath, res.spec, 0o644); err != nil {
				return fmt.Errorf("write spec: %w", err)
			}
			if err := os.WriteFile(entryPath, []byte(res.entrypoint), 0o644); err != nil {
				return fmt.Errorf("write entrypoint: %w", err)
			}

			cached := ""
			if res.fromCache {
				cached = " (cached)"
			}
			fmt.Printf("Compiled %s%s: %d nodes, %d inputs, %d outputs\n",
				res.graph.Name, cached, len(res.graph.Nodes), len(res.graph.Inputs), len(res.graph.Outputs))
			fmt.Printf("  %s\n  %s\n", specPath, entryPath)
			for _, rf := range res.graph.RemoteFiles {
				fmt.Printf("  pending upload: %s -> %s\n", rf.LocalPath, rf.RemotePath)
			}
			return nil
		},
	}

	addCompileFlags(cmd, &cfg, &name, &noCache)
	return cmd
}

func addCompileFlags(cmd *cobra.Command, cfg *config.CompileConfig, name *string, noCache *bool) {
	cmd.Flags().StringVar(&cfg.MetadataPath, "metadata", "", "Workflow metadata file (default: helix_metadata.yaml next to the DAG export)")
	cmd.Flags().StringVar(&cfg.SnakefilePath, "snakefile", cfg.SnakefilePath, "Snakefile path inside the task container")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory for generated files")
	cmd.Flags().StringVar(&cfg.RemoteOutputURL, "output-url", "", "Remote destination for terminal outputs (default: /Snakemake Outputs/<name>)")
	cmd.Flags().StringVar(&cfg.CachePath, "cache", cfg.CachePath, "Compile cache database path")
	cmd.Flags().StringVar(name, "name", "", "Workflow name (overrides metadata)")
	cmd.Flags().BoolVar(noCache, "no-cache", false, "Recompile even when the DAG is cached")
}

// compileDAG loads the DAG export and metadata, consults the cache, and
// compiles when needed.
func compileDAG(ctx context.Context, dagPath, nameOverride string, cfg config.CompileConfig, noCache bool) (*compileResult, error) {
	data, err := os.ReadFile(dagPath)
	if err != nil {
		return nil, fmt.Errorf("read DAG export: %w", err)
	}
	sum := sha1.Sum(data)
	dagHash := hex.EncodeToString(sum[:])

	m, err := loadMetadata(dagPath, nameOverride, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(cachePathOrMemory(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("open compile cache: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate compile cache: %w", err)
	}

	if !noCache {
		if rec, err := st.GetByDAGHash(ctx, m.Name, dagHash); err == nil {
			logger.Debug("compile cache hit", "name", m.Name, "dag_hash", dagHash, "id", rec.ID)
			g, err := wfgraph.UnmarshalSpec(rec.Spec)
			if err == nil {
				return &compileResult{
					graph: g, spec: rec.Spec, entrypoint: rec.Entrypoint,
					dagHash: dagHash, version: rec.Version, fromCache: true,
				}, nil
			}
			logger.Warn("cached spec unusable, recompiling", "error", err)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("compile cache lookup: %w", err)
		}
	}

	dag, err := smk.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	c := compiler.New(logger)
	g, err := c.Compile(dag, m, compiler.Options{
		SnakefilePath:   cfg.SnakefilePath,
		RemoteOutputURL: firstNonEmpty(cfg.RemoteOutputURL, m.OutputDir),
	})
	if err != nil {
		return nil, err
	}

	spec, err := g.MarshalSpec()
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		codes = append(codes, n.Code)
	}
	entrypoint := codegen.GenerateEntrypoint(codes)

	specSum := sha1.Sum(spec)
	version := hex.EncodeToString(specSum[:])[:16]

	rec := &store.CompileRecord{
		Name:       m.Name,
		Version:    version,
		DAGHash:    dagHash,
		SpecHash:   hex.EncodeToString(specSum[:]),
		Spec:       spec,
		Entrypoint: entrypoint,
	}
	if err := st.Put(ctx, rec); err != nil {
		logger.Warn("failed to record compile in cache", "error", err)
	}

	return &compileResult{
		graph: g, spec: spec, entrypoint: entrypoint,
		dagHash: dagHash, version: version,
	}, nil
}

func loadMetadata(dagPath, nameOverride string, cfg config.CompileConfig) (*meta.Metadata, error) {
	path := cfg.MetadataPath
	if path == "" {
		candidate := filepath.Join(filepath.Dir(dagPath), meta.DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	var m *meta.Metadata
	if path != "" {
		loaded, err := meta.Load(path)
		if err != nil {
			return nil, err
		}
		m = loaded
	} else {
		name := nameOverride
		if name == "" {
			base := filepath.Base(dagPath)
			name = base[:len(base)-len(filepath.Ext(base))]
		}
		m = meta.Default(name)
	}

	if nameOverride != "" {
		m.Name = nameOverride
		if m.DisplayName == "" {
			m.DisplayName = nameOverride
		}
	}
	return m, m.Validate()
}

func cachePathOrMemory(cfg config.CompileConfig) string {
	if cfg.CachePath == "" {
		return ":memory:"
	}
	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
		logger.Warn("compile cache directory unavailable, caching in memory only",
			"path", cfg.CachePath, "error", err)
		return ":memory:"
	}
	return cfg.CachePath
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if x != "" {
			return x
		}
	}
	return ""
}
