package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print how every manifest delivery resolves its lines",
	Long: "Builds the delivery tree declared in the manifest with stand-in handlers and " +
		"prints, per class and line, the handler the line resolves to and the declared " +
		"actions it supports. No queue or email backend is contacted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")

		m, err := delivery.LoadManifest(path)
		if err != nil {
			return err
		}
		rows, err := resolve(m)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		return printRows(cmd.OutOrStdout(), rows)
	},
}

type resolutionRow struct {
	Class    string   `json:"class"`
	Abstract bool     `json:"abstract,omitempty"`
	Line     string   `json:"line"`
	Kind     string   `json:"kind"`
	Handler  string   `json:"handler,omitempty"`
	Actions  []string `json:"actions"`
	Missing  []string `json:"missing,omitempty"`
}

// resolve builds the manifest tree over stand-in handlers and reports each
// line's resolution, classes in manifest order.
func resolve(m *delivery.Manifest) ([]resolutionRow, error) {
	quiet := slog.New(slog.DiscardHandler)
	catalog := delivery.NewCatalog(standIns(m.Handlers, standInDeps{log: quiet})...)
	base := delivery.NewBase(delivery.WithCatalog(catalog), delivery.WithLogger(quiet))

	classes, err := m.Build(base)
	if err != nil {
		return nil, err
	}

	var rows []resolutionRow
	for _, spec := range m.Deliveries {
		c := classes[spec.Name]
		actions := c.Actions()
		for _, id := range c.LineIDs() {
			line := c.Line(id)
			row := resolutionRow{
				Class:    c.Name(),
				Abstract: c.IsAbstract(),
				Line:     id,
				Kind:     line.Kind().Name(),
				Handler:  line.HandlerName(),
				Actions:  []string{},
			}
			for _, a := range actions {
				if line.Supports(a) {
					row.Actions = append(row.Actions, a)
				} else if row.Handler != "" {
					row.Missing = append(row.Missing, a)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func printRows(w io.Writer, rows []resolutionRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tLINE\tKIND\tHANDLER\tACTIONS\tMISSING")
	for _, r := range rows {
		class := r.Class
		if r.Abstract {
			class += " (abstract)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			class, r.Line, r.Kind, orDash(r.Handler), orDash(strings.Join(r.Actions, ",")), orDash(strings.Join(r.Missing, ",")))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
