package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Opener opens the byte stream of an artifact.
type Opener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Resolver turns download URLs into complete, signed descriptors. Results for
// stable versions are cached across runs. Concurrent resolutions of the same
// (version, URL) pair share a single computation and a single cache write.
type Resolver struct {
	store  *Store
	opener Opener
	signer *Signer
	logger *slog.Logger
	group  singleflight.Group
}

// ResolverConfig holds the collaborators of a Resolver.
type ResolverConfig struct {
	Store  *Store
	Opener Opener
	Signer *Signer
	Logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if config.Opener == nil {
		return nil, fmt.Errorf("Opener is required")
	}
	if config.Signer == nil {
		return nil, fmt.Errorf("Signer is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		store:  config.Store,
		opener: config.Opener,
		signer: config.Signer,
		logger: logger,
	}, nil
}

// Resolve returns the descriptor for downloadURL as published under version.
// Unstable versions never touch the cache, so their hash and signature are
// recomputed on every run.
func (r *Resolver) Resolve(ctx context.Context, version string, stable bool, downloadURL string) (Descriptor, error) {
	key := "unstable\x00" + CacheKey(version, downloadURL)
	if stable {
		key = "stable\x00" + CacheKey(version, downloadURL)
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolve(ctx, version, stable, downloadURL)
	})
	if err != nil {
		return Descriptor{}, err
	}
	return v.(Descriptor), nil
}

func (r *Resolver) resolve(ctx context.Context, version string, stable bool, downloadURL string) (Descriptor, error) {
	if stable {
		cached, ok, err := r.store.Get(version, downloadURL)
		if err != nil {
			return Descriptor{}, err
		}
		if ok {
			r.logger.Info("resolved from cache", "version", version, "url", downloadURL, "path", r.store.Path(version, downloadURL))
			return cached, nil
		}
	}

	r.logger.Info("generating artifact data", "version", version, "url", downloadURL)
	d, err := r.compute(ctx, downloadURL)
	if err != nil {
		return Descriptor{}, err
	}

	if stable {
		if err := r.store.Put(version, d); err != nil {
			return Descriptor{}, fmt.Errorf("cache %s: %w", downloadURL, err)
		}
		r.logger.Info("cached artifact data", "version", version, "url", downloadURL)
	}

	return d, nil
}

// compute streams the artifact once. The SHA-256 digest of that single pass
// is both the recorded content hash and the input of the RSA-SHA256 signature.
func (r *Resolver) compute(ctx context.Context, downloadURL string) (Descriptor, error) {
	body, err := r.opener.Open(ctx, downloadURL)
	if err != nil {
		return Descriptor{}, err
	}
	defer body.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, body); err != nil {
		return Descriptor{}, &FetchError{URL: downloadURL, Err: fmt.Errorf("read body: %w", err)}
	}
	digest := hasher.Sum(nil)

	signature, err := r.signer.Sign(digest)
	if err != nil {
		return Descriptor{}, fmt.Errorf("sign %s: %w", downloadURL, err)
	}

	return Descriptor{
		DownloadURL: downloadURL,
		RSASHA256:   signature,
		SHA256:      hex.EncodeToString(digest),
	}, nil
}
