package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/lineup/internal/config"
	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "items",
		Short:   "Write the ordered list as JSON, YAML or TOML",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := export.FormatJSON
			switch {
			case cmd.Flags().Changed("format"):
				parsed, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				f = parsed
			case output != "":
				f = export.FormatForPath(output)
			}

			items, err := a.svc.List(a.ctx)
			if err != nil {
				return err
			}
			doc := export.NewDocument(items, config.Backend(), a.now())

			if output == "" || output == "-" {
				return export.Encode(cmd.OutOrStdout(), doc, f)
			}
			if err := export.WriteFile(output, doc, f); err != nil {
				return err
			}
			if !debug.IsQuiet() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d items to %s\n", doc.Count, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or toml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout; format inferred from extension)")
	return cmd
}
