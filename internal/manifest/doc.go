// Package manifest builds and stores version manifests.
//
// A manifest lists the published versions of a tool, newest first:
//
//	schema_version: "1.1"
//	versions:
//	  - version: 2.0.0
//	    aliases: [latest, "2"]
//	    stable: true
//	    binaries:
//	      linux/x64:
//	        name: tool-linux.tgz
//	        downloadUrl: https://example.com/2.0.0/tool-linux.tgz
//	        sha256: 9f86d0...
//	        rsa_sha256: MEUCIQ...
//	    extraProperties:
//	      java: "17"
//
// Binaries are keyed by artifact type. The first artifact type rule whose
// pattern matches the lower-cased download URL decides the type; two
// artifacts of one version may not share a type. Extra properties are
// merged from every rule whose pattern matches the version string, later
// rules overwriting earlier values.
//
// Write replaces a manifest atomically.
package manifest
