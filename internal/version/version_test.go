package version

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/artifact"
)

func testArtifact(name string) artifact.Descriptor {
	return artifact.Descriptor{
		DownloadURL: "https://example.com/" + name,
		RSASHA256:   "c2ln",
		SHA256:      strings.Repeat("0", 64),
	}
}

func mustBuild(t *testing.T, v string, stable bool) *Descriptor {
	t.Helper()

	b := NewBuilder(v, stable)
	if err := b.Add(testArtifact(v + ".tgz")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	d, ok := b.Build()
	if !ok {
		t.Fatalf("Build(%s) returned no descriptor", v)
	}
	return d
}

func TestStability(t *testing.T) {
	tests := []struct {
		name         string
		version      string
		sourceStable bool
		want         bool
	}{
		{name: "stable_release", version: "1.2.3", sourceStable: true, want: true},
		{name: "semver_prerelease_demotes", version: "2.0.0-beta", sourceStable: true, want: false},
		{name: "source_prerelease", version: "1.2.3", sourceStable: false, want: false},
		{name: "never_promoted", version: "dev", sourceStable: false, want: false},
		{name: "non_semver_keeps_source_flag", version: "latest-build", sourceStable: true, want: true},
		{name: "v_prefixed_prerelease", version: "v1.0.0-rc.1", sourceStable: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewBuilder(tt.version, tt.sourceStable).Stable(); got != tt.want {
				t.Errorf("Stable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{version: "1.2.3", want: true},
		{version: "v1.2.3", want: true},
		{version: "=1.2.3", want: true},
		{version: "2.0.0-rc.1+build.5", want: true},
		{version: "1.2", want: false},
		{version: "vv1.2.3", want: false},
		{version: "2.0.0_lts", want: false},
		{version: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := IsValid(tt.version); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	t.Run("empty_builder_yields_nothing", func(t *testing.T) {
		if d, ok := NewBuilder("1.0.0", true).Build(); ok || d != nil {
			t.Errorf("Build() = (%v, %v), want (nil, false)", d, ok)
		}
	})

	t.Run("keeps_artifact_order", func(t *testing.T) {
		b := NewBuilder("1.0.0", true)
		for _, name := range []string{"c", "a", "b"} {
			if err := b.Add(testArtifact(name)); err != nil {
				t.Fatalf("Add(%s): %v", name, err)
			}
		}
		d, ok := b.Build()
		if !ok {
			t.Fatal("Build() returned no descriptor")
		}
		var got []string
		for _, a := range d.Artifacts() {
			got = append(got, a.Name())
		}
		if want := []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
			t.Errorf("artifact order = %v, want %v", got, want)
		}
	})

	t.Run("closed_after_build", func(t *testing.T) {
		b := NewBuilder("1.0.0", true)
		if err := b.Add(testArtifact("a")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		b.Build()
		if err := b.Add(testArtifact("b")); err == nil {
			t.Error("expected error when adding to a closed builder")
		}
	})

	t.Run("rejects_incomplete_artifact", func(t *testing.T) {
		b := NewBuilder("1.0.0", true)
		if err := b.Add(artifact.Descriptor{DownloadURL: "https://example.com/a"}); err == nil {
			t.Error("expected error for incomplete artifact")
		}
	})

	t.Run("artifacts_are_copies", func(t *testing.T) {
		d := mustBuild(t, "1.0.0", true)
		arts := d.Artifacts()
		arts[0].DownloadURL = "mutated"
		if d.Artifacts()[0].DownloadURL == "mutated" {
			t.Error("Artifacts() exposes internal state")
		}
	})
}

func TestSortedByVersion(t *testing.T) {
	tests := []struct {
		name       string
		versions   []string
		unstable   []string
		descending bool
		want       []string
	}{
		{
			name:       "stable_before_prerelease",
			versions:   []string{"1.5.0", "1.0.0", "2.0.0-beta"},
			descending: true,
			want:       []string{"1.5.0", "1.0.0", "2.0.0-beta"},
		},
		{
			name:       "ascending",
			versions:   []string{"1.5.0", "2.0.0-beta", "1.0.0"},
			descending: false,
			want:       []string{"2.0.0-beta", "1.0.0", "1.5.0"},
		},
		{
			name:       "semver_precedence_not_lexicographic",
			versions:   []string{"1.9.0", "1.10.0", "1.2.0"},
			descending: true,
			want:       []string{"1.10.0", "1.9.0", "1.2.0"},
		},
		{
			name:       "non_semver_lexicographic",
			versions:   []string{"beta", "alpha", "1.0.0"},
			descending: true,
			want:       []string{"beta", "alpha", "1.0.0"},
		},
		{
			name:       "equal_precedence_is_total",
			versions:   []string{"1.0.0+b", "v1.0.0", "1.0.0+a"},
			descending: true,
			want:       []string{"v1.0.0", "1.0.0+b", "1.0.0+a"},
		},
		{
			name:       "source_prerelease_below_stable",
			versions:   []string{"3.0.0", "2.0.0"},
			unstable:   []string{"3.0.0"},
			descending: true,
			want:       []string{"2.0.0", "3.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unstable := make(map[string]bool)
			for _, v := range tt.unstable {
				unstable[v] = true
			}
			var items []*Descriptor
			for _, v := range tt.versions {
				items = append(items, mustBuild(t, v, !unstable[v]))
			}

			got := NewDescriptors(items...).SortedByVersion(tt.descending).Versions()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortedByVersion(%v) = %v, want %v", tt.descending, got, tt.want)
			}
		})
	}
}

func TestSortedByVersionDoesNotModifyReceiver(t *testing.T) {
	ds := NewDescriptors(mustBuild(t, "1.0.0", true), mustBuild(t, "2.0.0", true))
	ds.SortedByVersion(true)
	if got := ds.Versions(); !reflect.DeepEqual(got, []string{"1.0.0", "2.0.0"}) {
		t.Errorf("receiver reordered to %v", got)
	}
}

func TestWithAliases(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		unstable []string
		mode     AliasMode
		want     map[string][]string
	}{
		{
			name:     "major_mode",
			versions: []string{"1.0.0", "1.2.0", "2.0.0"},
			mode:     AliasMajor,
			want: map[string][]string{
				"2.0.0": {"latest", "2", "2.0"},
				"1.2.0": {"1", "1.2"},
				"1.0.0": {"1.0"},
			},
		},
		{
			name:     "minor_mode",
			versions: []string{"1.0.0", "1.2.0", "1.2.1", "2.0.0"},
			mode:     AliasMinor,
			want: map[string][]string{
				"2.0.0": {"latest", "2.0"},
				"1.2.1": {"1.2"},
				"1.2.0": nil,
				"1.0.0": {"1.0"},
			},
		},
		{
			name:     "none_mode",
			versions: []string{"1.0.0", "2.0.0"},
			mode:     AliasNone,
			want: map[string][]string{
				"2.0.0": {"latest"},
				"1.0.0": nil,
			},
		},
		{
			name:     "unstable_maximum_withholds_its_aliases",
			versions: []string{"1.0.0", "2.0.0-rc.1", "1.5.0", "nightly"},
			unstable: []string{"1.5.0"},
			mode:     AliasMajor,
			want: map[string][]string{
				"1.0.0":      {"1.0"},
				"2.0.0-rc.1": nil,
				"1.5.0":      nil,
				"nightly":    nil,
			},
		},
		{
			name:     "flagged_prerelease_outranks_older_stable",
			versions: []string{"2.0.0", "2.1.0", "3.0.0"},
			unstable: []string{"2.1.0", "3.0.0"},
			mode:     AliasMajor,
			want: map[string][]string{
				"2.0.0": {"2.0"},
				"2.1.0": nil,
				"3.0.0": nil,
			},
		},
		{
			name:     "semver_prereleases_do_not_compete",
			versions: []string{"1.0.0", "1.1.0-beta.1", "2.0.0-rc.1"},
			mode:     AliasMinor,
			want: map[string][]string{
				"1.0.0":        {"latest", "1.0"},
				"1.1.0-beta.1": nil,
				"2.0.0-rc.1":   nil,
			},
		},
		{
			name:     "equal_precedence_unstable_longer_string_wins",
			versions: []string{"1.2.0", "v1.2.0"},
			unstable: []string{"v1.2.0"},
			mode:     AliasMajor,
			want: map[string][]string{
				"1.2.0":  nil,
				"v1.2.0": nil,
			},
		},
		{
			name:     "equal_precedence_prefers_longer_string",
			versions: []string{"1.2.0", "v1.2.0"},
			mode:     AliasMajor,
			want: map[string][]string{
				"v1.2.0": {"latest", "1", "1.2"},
				"1.2.0":  nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unstable := make(map[string]bool)
			for _, v := range tt.unstable {
				unstable[v] = true
			}
			var items []*Descriptor
			for _, v := range tt.versions {
				items = append(items, mustBuild(t, v, !unstable[v]))
			}

			aliased := NewDescriptors(items...).WithAliases(tt.mode)
			for _, d := range aliased.All() {
				want := tt.want[d.Version()]
				if got := d.Aliases(); !reflect.DeepEqual(got, want) {
					t.Errorf("aliases of %s = %v, want %v", d.Version(), got, want)
				}
			}
		})
	}
}

func TestWithAliasesIsIndependentOfInputOrder(t *testing.T) {
	a := NewDescriptors(mustBuild(t, "1.2.0", true), mustBuild(t, "v1.2.0", true)).WithAliases(AliasMajor)
	b := NewDescriptors(mustBuild(t, "v1.2.0", true), mustBuild(t, "1.2.0", true)).WithAliases(AliasMajor)

	collect := func(ds Descriptors) map[string][]string {
		out := make(map[string][]string)
		for _, d := range ds.All() {
			out[d.Version()] = d.Aliases()
		}
		return out
	}
	if !reflect.DeepEqual(collect(a), collect(b)) {
		t.Errorf("alias assignment depends on order: %v vs %v", collect(a), collect(b))
	}
}

func TestWithAliasesReplacesPreviousAliases(t *testing.T) {
	ds := NewDescriptors(mustBuild(t, "1.0.0", true)).
		WithAliases(AliasMajor).
		WithAliases(AliasNone)

	if got := ds.All()[0].Aliases(); !reflect.DeepEqual(got, []string{"latest"}) {
		t.Errorf("aliases = %v, want [latest]", got)
	}
}

func TestParseAliasMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AliasMode
		wantErr bool
	}{
		{in: "", want: AliasNone},
		{in: "none", want: AliasNone},
		{in: "Minor", want: AliasMinor},
		{in: " major ", want: AliasMajor},
		{in: "patch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAliasMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAliasMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAliasMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompareIdentity(t *testing.T) {
	d := mustBuild(t, "1.0.0", true)
	if Compare(d, d) != 0 {
		t.Error("Compare(d, d) != 0")
	}
	other := mustBuild(t, "1.0.0", true)
	if Compare(d, other) != 0 {
		t.Error("descriptors with the same version should compare equal")
	}
}
