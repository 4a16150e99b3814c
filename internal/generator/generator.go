// Package generator runs the manifest pipeline for one tool: load versions,
// derive aliases, sort newest first, build and write the manifest.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/artifact"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/config"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/manifest"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/source"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/workspace"
)

// Config holds the inputs of a Generator.
type Config struct {
	// Tool is the validated tool definition.
	Tool config.Tool

	// Workspace receives the manifest, the cache and the run lock.
	Workspace workspace.Layout

	// Signer signs artifact digests.
	Signer *artifact.Signer

	// Opener downloads artifacts.
	Opener artifact.Opener

	// Releases lists GitHub releases. Required when the tool names a
	// repository.
	Releases source.ReleaseLister

	// Jobs bounds concurrent artifact resolution. Defaults to 1.
	Jobs int

	// RunID is recorded in the workspace lock. Generated when empty.
	RunID string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Result describes a finished run.
type Result struct {
	// ManifestPath is empty when no manifest was written.
	ManifestPath string
	Versions     int
	Artifacts    int
}

// Generator produces the manifest of a tool.
type Generator struct {
	tool      config.Tool
	workspace workspace.Layout
	runID     string
	loader    *source.Loader
	builder   *manifest.Builder
	logger    *slog.Logger
}

// New wires the pipeline for config.Tool.
func New(config Config) (*Generator, error) {
	if config.Workspace.Root() == "" {
		return nil, fmt.Errorf("Workspace is required")
	}
	if config.Signer == nil {
		return nil, fmt.Errorf("Signer is required")
	}
	if config.Opener == nil {
		return nil, fmt.Errorf("Opener is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("tool", config.Tool.Name)

	resolver, err := artifact.NewResolver(artifact.ResolverConfig{
		Store:  artifact.NewStore(config.Workspace.CacheDir(config.Tool.Name)),
		Opener: config.Opener,
		Signer: config.Signer,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}

	loader, err := source.NewLoader(source.LoaderConfig{
		Tool:     config.Tool,
		Resolver: resolver,
		Releases: config.Releases,
		Jobs:     config.Jobs,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	builder, err := manifest.NewBuilder(config.Tool)
	if err != nil {
		return nil, fmt.Errorf("create manifest builder: %w", err)
	}

	return &Generator{
		tool:      config.Tool,
		workspace: config.Workspace,
		runID:     config.RunID,
		loader:    loader,
		builder:   builder,
		logger:    logger,
	}, nil
}

// Run resolves every version and writes the manifest. Nothing is written
// when any step fails; cache entries completed before the failure remain.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	lock, err := workspace.AcquireLock(ctx, g.workspace, g.tool.Name, g.runID)
	if err != nil {
		return Result{}, fmt.Errorf("lock workspace: %w", err)
	}
	defer lock.Release()

	ds, err := g.loader.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load versions: %w", err)
	}
	ds = ds.WithAliases(g.tool.AliasMode).SortedByVersion(true)

	doc, err := g.builder.Build(ds)
	if err != nil {
		return Result{}, fmt.Errorf("build manifest: %w", err)
	}

	path := g.workspace.ManifestPath(g.tool.Name)
	if err := manifest.Write(path, doc); err != nil {
		return Result{}, err
	}

	result := Result{ManifestPath: path, Versions: len(doc.Versions)}
	for _, v := range doc.Versions {
		result.Artifacts += len(v.Binaries)
	}
	g.logger.Info("wrote manifest", "path", path, "versions", result.Versions, "artifacts", result.Artifacts)
	return result, nil
}

// WarmCache resolves every artifact so that stable entries are cached,
// without writing a manifest.
func (g *Generator) WarmCache(ctx context.Context) (Result, error) {
	lock, err := workspace.AcquireLock(ctx, g.workspace, g.tool.Name, g.runID)
	if err != nil {
		return Result{}, fmt.Errorf("lock workspace: %w", err)
	}
	defer lock.Release()

	ds, err := g.loader.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load versions: %w", err)
	}

	result := Result{Versions: ds.Len()}
	for _, d := range ds.All() {
		result.Artifacts += len(d.Artifacts())
	}
	g.logger.Info("cache is up to date", "dir", g.workspace.CacheDir(g.tool.Name), "versions", result.Versions, "artifacts", result.Artifacts)
	return result, nil
}
