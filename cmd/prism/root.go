package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/prism/internal/config"
	"github.com/aretw0/prism/internal/dynamic"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Prism projects Go objects onto typed, sliced ports",
	Long: `Prism splits objects into one port per member and joins ports back into objects.
The CLI projects YAML or JSON documents through a synthesized type.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("profile", "", "Projection profile (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the profile log level")
}

// loadProfile reads the --profile file, or the defaults, and applies flag overrides.
func loadProfile(cmd *cobra.Command) (config.Profile, error) {
	path, _ := cmd.Flags().GetString("profile")
	p := config.Defaults()
	if path != "" {
		var err error
		if p, err = config.LoadFile(path); err != nil {
			return p, err
		}
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		p.LogLevel = level
	}
	return p, p.Validate()
}

// readDocument parses the document named by args, or stdin when it is "-" or missing.
func readDocument(cmd *cobra.Command, args []string) (*dynamic.Document, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return dynamic.Parse(r)
}
