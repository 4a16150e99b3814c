// Package version models published tool versions: their stability, their
// ordering and the aliases ("latest", "3", "3.2") derived over the complete
// set of versions.
//
// A Descriptor is created through a Builder once all of its artifacts are
// resolved, so a Descriptor never exists without artifacts. Collections are
// held in Descriptors, whose WithAliases and SortedByVersion return new
// collections:
//
//	ds := version.NewDescriptors(loaded...).
//		WithAliases(version.AliasMajor).
//		SortedByVersion(true)
package version
