package main

import (
	"errors"
	"time"

	"github.com/botirk38/projectmatch"
	"github.com/botirk38/projectmatch/model"
	"github.com/botirk38/projectmatch/options"
	"github.com/botirk38/projectmatch/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// build-matrix command flags
	matrixProjectsPath string
	matrixOutPath      string
	matrixEncode       bool
)

func init() {
	buildMatrixCmd.Flags().StringVar(&matrixProjectsPath, "projects", "", "JSON array of projects, - for stdin (required)")
	buildMatrixCmd.Flags().StringVar(&matrixOutPath, "out", "", "Snapshot file to write (defaults to aggregation.snapshot_path)")
	buildMatrixCmd.Flags().BoolVar(&matrixEncode, "encode", false, "Compute missing vectors with the configured encoder")
	_ = buildMatrixCmd.MarkFlagRequired("projects")
}

var buildMatrixCmd = &cobra.Command{
	Use:   "build-matrix",
	Short: "Build the project similarity model from hybrid vectors",
	Long: `Build the project x project similarity matrix from each project's semantic
vector, category flags and technology flags, and persist it as a snapshot
for the recommend command.

Examples:
  projectmatch build-matrix --projects projects.json --out model.gob.gz`,
	RunE: runBuildMatrix,
}

type matrixOutput struct {
	Projects int       `json:"projects"`
	Path     string    `json:"path"`
	BuiltAt  time.Time `json:"built_at"`
}

func runBuildMatrix(cmd *cobra.Command, args []string) error {
	out := matrixOutPath
	if out == "" {
		out = cfg.Aggregation.SnapshotPath
	}
	if out == "" {
		return errors.New("no output path: set --out or aggregation.snapshot_path")
	}

	var projects []types.Project
	if err := readJSON(cmd, matrixProjectsPath, &projects); err != nil {
		return err
	}

	opts := []options.Option{
		options.FromConfig(cfg),
		options.WithLogger(logger),
	}
	if matrixEncode {
		opts = append(opts, options.WithProvider(cfg.ToProvider()))
	}

	r, err := projectmatch.New(opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	snap, err := r.BuildModel(cmd.Context(), projects)
	if err != nil {
		return err
	}
	if err := model.SaveFile(out, snap); err != nil {
		return err
	}

	logger.Info("similarity model written", zap.String("path", out), zap.Int("projects", snap.Len()))
	return writeJSON(cmd, matrixOutput{Projects: snap.Len(), Path: out, BuiltAt: snap.BuiltAt()})
}
