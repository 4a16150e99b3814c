package source

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/artifact"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/config"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/version"
)

// ArtifactResolver produces the signed descriptor of a download URL.
type ArtifactResolver interface {
	Resolve(ctx context.Context, version string, stable bool, downloadURL string) (artifact.Descriptor, error)
}

// ReleaseLister lists the releases of a GitHub repository.
type ReleaseLister interface {
	ListReleases(ctx context.Context, owner, repo string) ([]Release, error)
}

// LoaderConfig holds the inputs of a Loader.
type LoaderConfig struct {
	// Tool is the validated tool definition.
	Tool config.Tool

	// Resolver resolves every selected artifact.
	Resolver ArtifactResolver

	// Releases is required when the tool names a repository.
	Releases ReleaseLister

	// Jobs bounds the number of concurrent resolutions. Values below one
	// mean one, which resolves strictly in source order.
	Jobs int

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Loader selects the versions of a tool and resolves their artifacts.
type Loader struct {
	tool     config.Tool
	resolver ArtifactResolver
	releases ReleaseLister
	filters  *filters
	jobs     int
	logger   *slog.Logger
}

// candidate is a version selected from the source whose artifacts have not
// been resolved yet.
type candidate struct {
	builder *version.Builder
	urls    []string
}

// NewLoader creates a loader for config.Tool. A tool without a repository
// and without a static URL map yields ErrNoSource.
func NewLoader(config LoaderConfig) (*Loader, error) {
	if config.Tool.Repo == "" && len(config.Tool.URLs) == 0 {
		return nil, ErrNoSource
	}
	if config.Resolver == nil {
		return nil, fmt.Errorf("Resolver is required")
	}
	if config.Tool.Repo != "" && config.Releases == nil {
		return nil, fmt.Errorf("Releases is required for repository %s", config.Tool.Repo)
	}

	f, err := newFilters(config.Tool)
	if err != nil {
		return nil, err
	}

	jobs := config.Jobs
	if jobs < 1 {
		jobs = 1
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		tool:     config.Tool,
		resolver: config.Resolver,
		releases: config.Releases,
		filters:  f,
		jobs:     jobs,
		logger:   logger,
	}, nil
}

// Load returns every version that has at least one artifact, in source
// order. Any listing or resolution error aborts the load.
func (l *Loader) Load(ctx context.Context) (version.Descriptors, error) {
	var (
		candidates []candidate
		err        error
	)
	if l.tool.Repo != "" {
		candidates, err = l.fromReleases(ctx)
	} else {
		candidates = l.fromURLMap()
	}
	if err != nil {
		return version.Descriptors{}, err
	}

	results, err := l.resolveAll(ctx, candidates)
	if err != nil {
		return version.Descriptors{}, err
	}

	var descriptors []*version.Descriptor
	for i, c := range candidates {
		for _, a := range results[i] {
			if err := c.builder.Add(a); err != nil {
				return version.Descriptors{}, err
			}
		}
		d, ok := c.builder.Build()
		if !ok {
			l.logger.Info("skipping version", "version", c.builder.Version(), "reason", "no matching assets")
			continue
		}
		if !version.IsValid(d.Version()) {
			l.logger.Debug("not a semantic version, sorting byte-wise without aliases", "version", d.Version())
		}
		descriptors = append(descriptors, d)
	}

	l.logger.Info("loaded versions", "tool", l.tool.Name, "count", len(descriptors))
	return version.NewDescriptors(descriptors...), nil
}

func (l *Loader) fromReleases(ctx context.Context) ([]candidate, error) {
	owner, repo := l.tool.RepoOwnerAndName()
	releases, err := l.releases.ListReleases(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	var candidates []candidate
	for _, release := range releases {
		tag := release.TagName
		if release.Draft {
			l.logger.Info("skipping release", "tag", tag, "reason", "draft release")
			continue
		}
		if !l.filters.acceptTag(tag) {
			l.logger.Info("skipping release", "tag", tag, "reason", fmt.Sprintf("doesn't match regex ^%s$", l.tool.TagRegex))
			continue
		}

		var urls []string
		for _, asset := range release.Assets {
			if !l.filters.acceptAsset(asset.Name) {
				l.logger.Info("skipping asset", "tag", tag, "asset", asset.Name, "reason", fmt.Sprintf("doesn't match regex ^%s$", l.tool.AssetRegex))
				continue
			}
			urls = append(urls, asset.BrowserDownloadURL)
		}
		if len(urls) == 0 {
			l.logger.Info("skipping release", "tag", tag, "reason", "no matching assets")
			continue
		}

		v := l.filters.version(tag)
		if v == "" {
			l.logger.Warn("skipping release", "tag", tag, "reason", "tag mapping produced an empty version")
			continue
		}
		if other, ok := seen[v]; ok {
			l.logger.Warn("skipping release", "tag", tag, "reason", fmt.Sprintf("version %s already provided by tag %s", v, other))
			continue
		}
		seen[v] = tag

		candidates = append(candidates, candidate{
			builder: version.NewBuilder(v, !release.Prerelease),
			urls:    urls,
		})
	}
	return candidates, nil
}

func (l *Loader) fromURLMap() []candidate {
	candidates := make([]candidate, 0, len(l.tool.URLs))
	for _, entry := range l.tool.URLs {
		candidates = append(candidates, candidate{
			builder: version.NewBuilder(entry.Version, true),
			urls:    append([]string(nil), entry.URLs...),
		})
	}
	return candidates
}

// resolveAll resolves every URL of every candidate. Each result is written
// to the slot of its (candidate, URL) position, so the outcome does not
// depend on completion order.
func (l *Loader) resolveAll(ctx context.Context, candidates []candidate) ([][]artifact.Descriptor, error) {
	results := make([][]artifact.Descriptor, len(candidates))
	for i, c := range candidates {
		results[i] = make([]artifact.Descriptor, len(c.urls))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.jobs)

	for i, c := range candidates {
		for j, u := range c.urls {
			i, j, u := i, j, u
			ver, stable := c.builder.Version(), c.builder.Stable()
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				d, err := l.resolver.Resolve(gctx, ver, stable, u)
				if err != nil {
					return fmt.Errorf("resolve %s of %s: %w", u, ver, err)
				}
				results[i][j] = d
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
