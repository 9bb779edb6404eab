package main

import (
	"github.com/aretw0/prism/internal/inspect"
	"github.com/aretw0/prism/internal/presentation/table"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Project a document and print every output port",
	Long: `Runs one host cycle of a Split over the records of a YAML or JSON document.
A top-level list yields one slice per item.`,
	Args: cobra.MaximumNArgs(1),
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
		report, err := i.Split(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return writeReport(cmd, "split of "+source(args), report, table.Values)
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().Bool("hidden", false, "Include hidden ports")
	splitCmd.Flags().Bool("json", false, "Print the report as JSON")
}
