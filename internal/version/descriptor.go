package version

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/artifact"
)

// Descriptor is a single published version and its artifacts.
type Descriptor struct {
	version   string
	stable    bool
	aliases   []string
	artifacts []artifact.Descriptor
}

// Version returns the normalized version string.
func (d *Descriptor) Version() string { return d.version }

// Stable reports whether the version is a stable release.
func (d *Descriptor) Stable() bool { return d.stable }

// Aliases returns the alias labels in derivation order.
func (d *Descriptor) Aliases() []string {
	return append([]string(nil), d.aliases...)
}

// Artifacts returns the artifacts in the order they were added.
func (d *Descriptor) Artifacts() []artifact.Descriptor {
	return append([]artifact.Descriptor(nil), d.artifacts...)
}

func (d *Descriptor) clone() *Descriptor {
	return &Descriptor{
		version:   d.version,
		stable:    d.stable,
		aliases:   d.Aliases(),
		artifacts: d.Artifacts(),
	}
}

// Builder accumulates the artifacts of one version. Artifacts can be added
// until Build is called.
type Builder struct {
	version   string
	stable    bool
	artifacts []artifact.Descriptor
	closed    bool
}

// NewBuilder starts a version. sourceStable is the stability reported by
// the source; a semver prerelease string demotes it, nothing promotes it.
func NewBuilder(version string, sourceStable bool) *Builder {
	return &Builder{
		version: version,
		stable:  sourceStable && !IsPrerelease(version),
	}
}

// Version returns the version string being built.
func (b *Builder) Version() string { return b.version }

// Stable returns the effective stability of the version being built.
func (b *Builder) Stable() bool { return b.stable }

// Len returns the number of artifacts added so far.
func (b *Builder) Len() int { return len(b.artifacts) }

// Add appends a resolved artifact.
func (b *Builder) Add(a artifact.Descriptor) error {
	if b.closed {
		return fmt.Errorf("add artifact to %s: builder is closed", b.version)
	}
	if !a.Complete() {
		return fmt.Errorf("add artifact to %s: descriptor for %q is incomplete", b.version, a.DownloadURL)
	}
	b.artifacts = append(b.artifacts, a)
	return nil
}

// Build closes the builder. It returns ok=false when no artifact was added,
// since a version without artifacts is never published.
func (b *Builder) Build() (*Descriptor, bool) {
	b.closed = true
	if len(b.artifacts) == 0 {
		return nil, false
	}
	return &Descriptor{
		version:   b.version,
		stable:    b.stable,
		artifacts: append([]artifact.Descriptor(nil), b.artifacts...),
	}, true
}
