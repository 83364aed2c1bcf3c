package main

import (
	"context"

	"github.com/botirk38/projectmatch"
	"github.com/botirk38/projectmatch/options"
	"github.com/botirk38/projectmatch/types"
	"github.com/spf13/cobra"
)

var (
	// score command flags
	scoreUsersPath    string
	scoreProjectsPath string
	scoreStorePath    string
	scoreEncode       bool
)

func init() {
	scoreCmd.Flags().StringVar(&scoreUsersPath, "users", "", "JSON array of user profiles, - for stdin (required)")
	scoreCmd.Flags().StringVar(&scoreProjectsPath, "projects", "", "JSON array of candidate projects (required)")
	scoreCmd.Flags().StringVar(&scoreStorePath, "store", "", "SQLite result database (defaults to store.path)")
	scoreCmd.Flags().BoolVar(&scoreEncode, "encode", false, "Compute missing vectors with the configured encoder")
	_ = scoreCmd.MarkFlagRequired("users")
	_ = scoreCmd.MarkFlagRequired("projects")
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank candidate projects for every user and store the results",
	Long: `Rank candidate projects for every user and replace each user's rows in the
user_project_similarity table.

Examples:
  # Score users against projects with precomputed vectors
  projectmatch score --users users.json --projects projects.json

  # Encode missing vectors through the vector cache first
  OPENAI_API_KEY=... projectmatch score --encode --users users.json --projects projects.json`,
	RunE: runScore,
}

type failureOutput struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

type scoreOutput struct {
	Users       int             `json:"users"`
	Succeeded   int             `json:"succeeded"`
	Rows        int             `json:"rows"`
	Failures    []failureOutput `json:"failures"`
	Duration    string          `json:"duration"`
	StoredUsers int             `json:"stored_users"`
	SharedCache bool            `json:"shared_cache"`
}

// userCounter is implemented by the SQLite result store.
type userCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

func newScoreOutput(report projectmatch.BatchReport) scoreOutput {
	out := scoreOutput{
		Users:     report.Users,
		Succeeded: report.Succeeded,
		Rows:      report.Rows,
		Failures:  make([]failureOutput, 0, len(report.Failures)),
		Duration:  report.Duration.String(),
	}
	for _, f := range report.Failures {
		out.Failures = append(out.Failures, failureOutput{UserID: f.UserID, Error: f.Err.Error()})
	}
	return out
}

func runScore(cmd *cobra.Command, args []string) error {
	var users []types.UserProfile
	if err := readJSON(cmd, scoreUsersPath, &users); err != nil {
		return err
	}
	var projects []types.Project
	if err := readJSON(cmd, scoreProjectsPath, &projects); err != nil {
		return err
	}

	storePath := cfg.Store.Path
	if scoreStorePath != "" {
		storePath = scoreStorePath
	}

	opts := []options.Option{
		options.FromConfig(cfg),
		options.WithLogger(logger),
		options.WithSQLiteStore(storePath),
	}
	if scoreEncode {
		opts = append(opts, options.WithProvider(cfg.ToProvider()))
	}

	r, err := projectmatch.New(opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := r.RunBatch(cmd.Context(), users, projects)
	if err != nil {
		return err
	}

	out := newScoreOutput(report)
	out.SharedCache = r.HasSharedCache()
	if counter, ok := r.Results().(userCounter); ok {
		if out.StoredUsers, err = counter.CountUsers(cmd.Context()); err != nil {
			return err
		}
	}
	return writeJSON(cmd, out)
}
