package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/registry"
)

type exportFile struct {
	ExportedAt time.Time                 `json:"exported_at" yaml:"exported_at"`
	Source     string                    `json:"source" yaml:"source"`
	Namespaces map[string][]registry.Row `json:"namespaces" yaml:"namespaces"`
}

func newExportCmd() *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every namespace as rendered JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown --format %q: want json or yaml", format)
			}
			store, reg, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.Namespaces()
			if err != nil {
				return err
			}
			dump := exportFile{
				ExportedAt: time.Now().UTC(),
				Source:     store.Path(),
				Namespaces: make(map[string][]registry.Row, len(names)),
			}
			total := 0
			for _, name := range names {
				n, err := store.Namespace(name)
				if err != nil {
					return err
				}
				rows, _, err := reg.Rows(n, pagination.Page{})
				if err != nil {
					return fmt.Errorf("export %s: %w", name, err)
				}
				if rows == nil {
					rows = []registry.Row{}
				}
				dump.Namespaces[name] = rows
				total += len(rows)
			}

			var buf bytes.Buffer
			if format == "yaml" {
				b, err := yaml.Marshal(dump)
				if err != nil {
					return err
				}
				buf.Write(b)
			} else {
				enc := json.NewEncoder(&buf)
				enc.SetIndent("", "  ")
				if err := enc.Encode(dump); err != nil {
					return err
				}
			}
			if err := atomic.WriteFile(outPath, &buf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows from %d namespaces to %s\n", total, len(names), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}
