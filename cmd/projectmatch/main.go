// Package main implements the projectmatch CLI: batch scoring, similarity
// model builds and ad-hoc profile queries.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/botirk38/projectmatch/config"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// configPath points at an optional YAML file layered over the defaults
	configPath string
	// version information
	version = "dev"

	cfg    config.Config
	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "projectmatch",
	Short: "Match contributors to open-source projects",
	Long: `projectmatch ranks projects for users from their embeddings, categories,
technologies and project popularity, and answers ad-hoc queries from a
precomputed project similarity model.

Settings come from defaults, an optional YAML file (--config) and
PROJECTMATCH_* environment variables, in increasing priority.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(buildMatrixCmd)
	rootCmd.AddCommand(recommendCmd)
}

func loadRuntime(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	l, err := config.NewLogger(loaded.Log)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = l
	return nil
}

// readJSON decodes the file at path into v; "-" reads stdin.
func readJSON(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
