package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/prism/internal/inspect"
	"github.com/aretw0/prism/internal/presentation/table"
	"github.com/aretw0/prism/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Print the port layout of a document",
	Long:  `Synthesizes a type from a YAML or JSON document and prints the ports a Split of that type declares.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		doc, err := readDocument(cmd, args)
		if err != nil {
			return err
		}

		i := inspect.New(p, inspect.WithLogger(p.Logger(cmd.ErrOrStderr())))
		report, err := i.Layout(doc)
		if err != nil {
			return err
		}
		return writeReport(cmd, "layout of "+source(args), report, table.Layout)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("hidden", false, "Include hidden ports")
	inspectCmd.Flags().Bool("json", false, "Print the report as JSON")
}

// writeReport writes report as JSON or as rendered markdown under a title.
func writeReport(cmd *cobra.Command, title string, report inspect.Report, render func(inspect.Report, table.Options) string) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	hidden, _ := cmd.Flags().GetBool("hidden")
	text, err := tui.NewRenderer(out)(render(report, table.Options{Hidden: hidden}))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n\n%s", tui.Heading(out, title), text)
	return err
}

func source(args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return "stdin"
	}
	return args[0]
}
