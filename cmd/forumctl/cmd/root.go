// Package cmd holds the forumctl commands. Every command opens the store
// read-only.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"forumdb/pkg/forum"
	"forumdb/pkg/logger"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/registry"
)

var (
	version = "dev"
	commit  = "unknown"
)

// NewRootCmd builds the command tree; tests run it with their own args and
// output buffers.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Offline tools for forumdb stores",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				logger.InitWriter(cmd.ErrOrStderr(), "debug")
			}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolP("verbose", "v", false, "log store activity to stderr")
	root.PersistentFlags().String("db", "./data/forumdb", "path of the store directory")

	root.AddCommand(newInspectCmd(), newExportCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(cmd *cobra.Command) (*db.Store, *registry.Registry, error) {
	path, _ := cmd.Flags().GetString("db")
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("store %s: %w", path, err)
	}
	store, err := db.Open(db.Options{Path: path, ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New()
	forum.RegisterRenderers(reg)
	return store, reg, nil
}
