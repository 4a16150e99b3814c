// Package config loads tool definitions.
//
// # Overview
//
// A tool definition is a Lua file evaluated in a sandboxed gopher-lua VM.
// The file sets a global "tool" table describing where versions come from
// and how the manifest is shaped:
//
//	tool = {
//	  name = "fcli",
//	  repo = "fortify/fcli",               -- or urls / urls_file
//	  tag_regex = "v.*",
//	  asset_regex = "fcli-.*",
//	  tag_mappings = { { "dev_(.*)", "$1" } },
//	  aliases = "major",                   -- none | minor | major
//	  artifact_types = {
//	    { ".*linux.*", "linux/x64" },
//	    { ".*mac.*", "darwin/x64" },
//	  },
//	  extra_properties = {
//	    { "2\\..*", { java = "17" } },
//	  },
//	}
//
// Rules are ordered lists of pairs because Lua tables with string keys
// have no order. All patterns are Go regular expressions matched against
// the complete input. Replacement strings follow regexp.Expand: "$1"
// refers to the first group, and "${1}" must be used when the reference
// is directly followed by a letter, digit or underscore.
//
// # Static URL maps
//
// Instead of a repository, a definition may list versions and download
// URLs itself, either inline:
//
//	urls = {
//	  ["1.0.0"] = { "https://example.com/1.0.0/tool-linux.tgz" },
//	  ["1.1.0"] = "https://example.com/1.1.0/tool-linux.tgz",
//	}
//
// or in a JSON file (comments and trailing commas allowed) referenced by
// urls_file, relative to the definition. JSON maps are validated against
// an embedded JSON Schema before use.
//
// # Platform
//
// The read-only global "platform" describes the machine running tooldef
// (see package platform), e.g. platform.is_linux or platform.distro.id.
//
// # Sandbox
//
// The os, io and debug libraries and every code loading function (require,
// dofile, loadfile, load, loadstring) are removed. Evaluation is bounded
// by a size limit, a call stack limit and a timeout.
//
// # Environment
//
// Secrets never live in tool definitions. LoadEnv reads the signing key,
// its passphrase, the GitHub token and the workspace from the environment.
package config
