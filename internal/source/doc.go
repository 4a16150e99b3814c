// Package source selects the versions of a tool and resolves their
// artifacts.
//
// A tool is read either from the releases of a GitHub repository or from a
// static map of versions to download URLs. For GitHub, drafts are skipped,
// the tag filter is applied to the unmapped tag and the asset filter to
// each asset name. Tags are turned into version strings by the first
// matching tag mapping, after which a leading "v" followed by a digit is
// dropped:
//
//	dev_1.2.0     --(dev_(.*) -> $1)--------> 1.2.0
//	release-2.0.0 --(release-(.*) -> $1_lts)--> 2.0.0_lts
//	v3.1.0        ---------------------------> 3.1.0
//
// Mapping values use JavaScript replacement syntax: $1 through $99, $&,
// $`, $' and $$. Releases whose tag maps to an empty version are skipped.
//
// Every selected URL is handed to an ArtifactResolver. Resolution may run
// concurrently, but results are placed by position so the loaded versions
// and their artifacts always follow source order.
package source
