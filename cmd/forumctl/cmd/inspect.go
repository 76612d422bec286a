package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"forumdb/pkg/store/db"
	"forumdb/pkg/store/pagination"
)

func newInspectCmd() *cobra.Command {
	var (
		ns     string
		page   pagination.Page
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List namespaces, or print the rows of one namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, reg, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.Namespaces()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if ns == "" {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAMESPACE\tROWS\tLAYOUT")
				for _, name := range names {
					n, err := store.Namespace(name)
					if err != nil {
						return err
					}
					count, err := countRows(n)
					if err != nil {
						return err
					}
					layout := "registered"
					if _, ok := reg.Lookup(name); !ok {
						layout = "raw"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\n", name, count, layout)
				}
				return tw.Flush()
			}

			if !slices.Contains(names, ns) {
				return fmt.Errorf("unknown namespace %q", ns)
			}
			n, err := store.Namespace(ns)
			if err != nil {
				return err
			}
			if page.N > pagination.AdminMaxLimit {
				page.N = pagination.AdminMaxLimit
			}
			rows, more, err := reg.Rows(n, page)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"namespace":  ns,
					"rows":       rows,
					"pagination": pagination.NewPageResponse(page, len(rows), more),
				})
			}
			// aligned columns for people, plain tab-separated lines for pipes
			w := out
			var tw *tabwriter.Writer
			if isTerminal(out) {
				tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				w = tw
			}
			for _, r := range rows {
				v, err := json.Marshal(r.Value)
				if err != nil {
					return err
				}
				line := fmt.Sprintf("%s\t%s", r.Key, v)
				if r.Error != "" {
					line += "\t! " + r.Error
				}
				fmt.Fprintln(w, line)
			}
			if tw != nil {
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if more {
				fmt.Fprintf(out, "... more rows from --anchor %d\n", page.Anchor+len(rows))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ns, "ns", "", "namespace to print")
	cmd.Flags().IntVar(&page.Anchor, "anchor", 0, "rows to skip")
	cmd.Flags().IntVar(&page.N, "n", pagination.AdminDefaultLimit, "rows to print")
	cmd.Flags().BoolVar(&page.Desc, "desc", false, "walk from the last key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func countRows(n *db.Namespace) (int, error) {
	it, err := n.Iterate(false)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	count := 0
	for it.Next() {
		count++
	}
	return count, it.Err()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
