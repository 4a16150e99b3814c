package version

import (
	"strings"

	"github.com/blang/semver"
)

// parse interprets v as a semantic version. A single leading "=" and "v"
// are accepted, everything else must be strict semver 2.0.0.
func parse(v string) (semver.Version, bool) {
	s := strings.TrimSpace(v)
	s = strings.TrimPrefix(s, "=")
	s = strings.TrimPrefix(s, "v")

	sv, err := semver.Parse(s)
	if err != nil {
		return semver.Version{}, false
	}
	return sv, true
}

// IsValid reports whether v is a semantic version.
func IsValid(v string) bool {
	_, ok := parse(v)
	return ok
}

// IsPrerelease reports whether v is a semantic version carrying prerelease
// identifiers, e.g. "2.0.0-beta.1". Strings that are not semantic versions
// are never prereleases.
func IsPrerelease(v string) bool {
	sv, ok := parse(v)
	return ok && len(sv.Pre) > 0
}

// Compare orders two descriptors ascending:
//   - stable versions sort above unstable ones
//   - two semantic versions compare by precedence
//   - anything else compares byte-wise
//
// Distinct strings that have equal precedence ("1.2.0" and "v1.2.0", or
// differing build metadata) fall back to byte-wise comparison. The order is
// only transitive among semantic versions: mixing in other strings can form
// cycles such as "1.9.0" < "1.10.0" < "1.9" < "1.9.0".
func Compare(a, b *Descriptor) int {
	if a == b {
		return 0
	}
	if a.stable != b.stable {
		if a.stable {
			return 1
		}
		return -1
	}
	if a.version == b.version {
		return 0
	}

	av, aok := parse(a.version)
	bv, bok := parse(b.version)
	if aok && bok {
		if c := av.Compare(bv); c != 0 {
			return c
		}
	}
	return strings.Compare(a.version, b.version)
}
