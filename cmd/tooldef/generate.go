package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/artifact"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/config"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/generator"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/platform"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/source"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/workspace"
)

// pipelineOptions are the flags shared by generate and cache.
type pipelineOptions struct {
	configPath  string
	workspace   string
	signKeyFile string
	githubAPI   string
	jobs        int
}

func (o *pipelineOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "Lua tool definition")
	cmd.Flags().StringVar(&o.workspace, "workspace", "", "Workspace root (default $GITHUB_WORKSPACE or the current directory)")
	cmd.Flags().StringVar(&o.signKeyFile, "sign-key-file", "", "Signing key file (overrides $TOOLDEF_SIGN_KEY and $TOOLDEF_SIGN_KEY_FILE)")
	cmd.Flags().StringVar(&o.githubAPI, "github-api-url", "", "GitHub API base URL (default https://api.github.com)")
	cmd.Flags().IntVar(&o.jobs, "jobs", 1, "Number of artifacts resolved concurrently")
	_ = cmd.MarkFlagRequired("config")
}

func newGenerateCommand(logger *slog.Logger, runID string) *cobra.Command {
	var opts pipelineOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Resolve all versions of a tool and write its manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "generate")

			g, err := newGenerator(cmd.Context(), opts, cmdLogger, runID)
			if err != nil {
				return err
			}
			result, err := g.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d versions, %d artifacts)\n", result.ManifestPath, result.Versions, result.Artifacts)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func newCacheCommand(logger *slog.Logger, runID string) *cobra.Command {
	var opts pipelineOptions

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Resolve and cache all artifacts of a tool without writing a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "cache")

			g, err := newGenerator(cmd.Context(), opts, cmdLogger, runID)
			if err != nil {
				return err
			}
			result, err := g.WarmCache(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d artifacts of %d versions\n", result.Artifacts, result.Versions)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// newGenerator reads the tool definition and the environment and wires the
// pipeline. Flags take precedence over environment variables.
func newGenerator(ctx context.Context, opts pipelineOptions, logger *slog.Logger, runID string) (*generator.Generator, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	tool, err := config.NewParser(&platform.StaticDetector{Info: info}).
		WithLogger(logger).
		ParseFile(ctx, opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.configPath, err)
	}

	if opts.signKeyFile != "" {
		env.SignKey = nil
		env.SignKeyFile = opts.signKeyFile
	}
	material, err := env.SigningKeyMaterial()
	if err != nil {
		return nil, err
	}
	signer, err := artifact.LoadSigner(material, env.SignPassphrase)
	if err != nil {
		return nil, err
	}

	root := opts.workspace
	if root == "" {
		root = env.Workspace
	}
	if root == "" {
		root = "."
	}
	layout, err := workspace.New(root)
	if err != nil {
		return nil, err
	}

	userAgent := info.UserAgent("tooldef/" + Version)
	fetcher := artifact.NewFetcher(
		artifact.WithUserAgent(userAgent),
		artifact.WithGitHubToken(env.GitHubToken),
	)

	var releases source.ReleaseLister
	if tool.Repo != "" {
		client, err := source.NewClient(source.Config{
			BaseURL:   opts.githubAPI,
			Token:     env.GitHubToken,
			UserAgent: userAgent,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		releases = client
	}

	logger.Info("starting run", "tool", tool.Name, "workspace", layout.Root(), "jobs", opts.jobs)
	return generator.New(generator.Config{
		Tool:      tool,
		Workspace: layout,
		Signer:    signer,
		Opener:    fetcher,
		Releases:  releases,
		Jobs:      opts.jobs,
		RunID:     runID,
		Logger:    logger,
	})
}
