package version

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// AliasMode selects which alias classes are derived besides "latest".
type AliasMode string

const (
	// AliasNone derives only "latest"
	AliasNone AliasMode = "none"
	// AliasMinor adds "N.M" aliases
	AliasMinor AliasMode = "minor"
	// AliasMajor adds "N" and "N.M" aliases
	AliasMajor AliasMode = "major"
)

// ParseAliasMode converts a configuration value into an AliasMode. The
// empty string selects AliasNone.
func ParseAliasMode(s string) (AliasMode, error) {
	switch mode := AliasMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return AliasNone, nil
	case AliasNone, AliasMinor, AliasMajor:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown alias mode %q (want none, minor or major)", s)
	}
}

func (m AliasMode) majorAliases() bool { return m == AliasMajor }
func (m AliasMode) minorAliases() bool { return m == AliasMajor || m == AliasMinor }

// Descriptors is an ordered collection of versions. Its methods return new
// collections and never modify the receiver or its members.
type Descriptors struct {
	items []*Descriptor
}

// NewDescriptors wraps the given descriptors, skipping nil entries.
func NewDescriptors(items ...*Descriptor) Descriptors {
	ds := Descriptors{items: make([]*Descriptor, 0, len(items))}
	for _, d := range items {
		if d != nil {
			ds.items = append(ds.items, d)
		}
	}
	return ds
}

// All returns the descriptors in collection order.
func (ds Descriptors) All() []*Descriptor {
	return append([]*Descriptor(nil), ds.items...)
}

// Len returns the number of descriptors.
func (ds Descriptors) Len() int { return len(ds.items) }

// Versions returns the version strings in collection order.
func (ds Descriptors) Versions() []string {
	versions := make([]string, len(ds.items))
	for i, d := range ds.items {
		versions[i] = d.version
	}
	return versions
}

type entrant struct {
	index  int
	sv     semver.Version
	raw    string
	stable bool
}

// beats reports whether a should own an alias over b. Numerically equal
// versions resolve to the longer string, then the byte-wise greater one.
func (a entrant) beats(b entrant) bool {
	if c := a.sv.Compare(b.sv); c != 0 {
		return c > 0
	}
	if len(a.raw) != len(b.raw) {
		return len(a.raw) > len(b.raw)
	}
	return a.raw > b.raw
}

type minorKey struct{ major, minor uint64 }

// WithAliases returns a copy of the collection with aliases derived over the
// complete set of versions. Maxima are taken over every semantic version
// without prerelease identifiers, stable or not:
//   - "latest" names the greatest one
//   - "N" names the greatest one with major N (AliasMajor)
//   - "N.M" names the greatest one with major.minor N.M (AliasMajor, AliasMinor)
//
// An alias is only granted when the version it names is stable, so an
// unstable maximum leaves its alias unassigned. A version lists its aliases
// in the order "latest", "N", "N.M". Aliases already present on the
// receiver are replaced.
func (ds Descriptors) WithAliases(mode AliasMode) Descriptors {
	var (
		latest   *entrant
		byMajor  = make(map[uint64]entrant)
		byMinor  = make(map[minorKey]entrant)
		entrants []entrant
	)

	for i, d := range ds.items {
		sv, ok := parse(d.version)
		if !ok || len(sv.Pre) > 0 {
			continue
		}
		e := entrant{index: i, sv: sv, raw: d.version, stable: d.stable}
		entrants = append(entrants, e)

		if latest == nil || e.beats(*latest) {
			cur := e
			latest = &cur
		}
		if cur, ok := byMajor[sv.Major]; !ok || e.beats(cur) {
			byMajor[sv.Major] = e
		}
		key := minorKey{sv.Major, sv.Minor}
		if cur, ok := byMinor[key]; !ok || e.beats(cur) {
			byMinor[key] = e
		}
	}

	aliases := make(map[int][]string, len(entrants))
	for _, e := range entrants {
		if !e.stable {
			continue
		}
		var labels []string
		if latest.index == e.index {
			labels = append(labels, "latest")
		}
		major := strconv.FormatUint(e.sv.Major, 10)
		if mode.majorAliases() && byMajor[e.sv.Major].index == e.index {
			labels = append(labels, major)
		}
		if mode.minorAliases() && byMinor[minorKey{e.sv.Major, e.sv.Minor}].index == e.index {
			labels = append(labels, major+"."+strconv.FormatUint(e.sv.Minor, 10))
		}
		aliases[e.index] = labels
	}

	out := Descriptors{items: make([]*Descriptor, len(ds.items))}
	for i, d := range ds.items {
		c := d.clone()
		c.aliases = aliases[i]
		out.items[i] = c
	}
	return out
}

// SortedByVersion returns a copy of the collection ordered by Compare,
// greatest first when descending is set.
func (ds Descriptors) SortedByVersion(descending bool) Descriptors {
	out := Descriptors{items: ds.All()}
	sort.SliceStable(out.items, func(i, j int) bool {
		c := Compare(out.items[i], out.items[j])
		if descending {
			return c > 0
		}
		return c < 0
	})
	return out
}
