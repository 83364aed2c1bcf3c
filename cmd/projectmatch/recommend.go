package main

import (
	"errors"

	"github.com/botirk38/projectmatch"
	"github.com/botirk38/projectmatch/options"
	"github.com/spf13/cobra"
)

var (
	// recommend command flags
	recUserID    string
	recProfile   []string
	recTopN      int
	recModelPath string
)

func init() {
	recommendCmd.Flags().StringVar(&recUserID, "user-id", "", "User the query is made for")
	recommendCmd.Flags().StringSliceVar(&recProfile, "profile", nil, "Project ids the user interacted with")
	recommendCmd.Flags().IntVar(&recTopN, "top-n", 0, "Number of recommendations, 1-50 (0 uses aggregation.default_top_n)")
	recommendCmd.Flags().StringVar(&recModelPath, "model", "", "Snapshot file (defaults to aggregation.snapshot_path)")
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend projects from an interest profile",
	Long: `Recommend projects similar to the ones a user already interacted with, using
a snapshot written by build-matrix. Projects in the profile are never returned.

Examples:
  projectmatch recommend --model model.gob.gz --user-id u1 --profile p1,p7 --top-n 5`,
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	path := recModelPath
	if path == "" {
		path = cfg.Aggregation.SnapshotPath
	}
	if path == "" {
		return errors.New("no model path: set --model or aggregation.snapshot_path")
	}

	r, err := projectmatch.New(
		options.FromConfig(cfg),
		options.WithLogger(logger),
		options.WithSnapshotFile(path),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	resp, err := r.RecommendFromProfile(cmd.Context(), recUserID, recProfile, recTopN)
	if resp.RecommendedProjects != nil {
		if werr := writeJSON(cmd, resp); werr != nil {
			return werr
		}
	}
	return err
}
