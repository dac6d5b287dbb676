package cli

import (
	"fmt"

	"github.com/helixbio/helix/internal/config"
	"github.com/helixbio/helix/internal/store"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Browse the local compile cache",
	}
	cmd.PersistentFlags().StringVar(&cachePath, "cache", config.DefaultCompileConfig().CachePath, "Compile cache database path")

	list := &cobra.Command{
		Use:   "list",
		Short: "List cached compilations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(cachePath, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}

			recs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("Cache is empty")
				return nil
			}
			for _, rec := range recs {
				fmt.Printf("%s  %-20s  version %s  %s\n",
					rec.ID, rec.Name, rec.Version, rec.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a cached workflow spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(cachePath, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}

			rec, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", rec.Spec)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
