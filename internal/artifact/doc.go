// Package artifact resolves download URLs into signed artifact descriptors.
//
// # Resolution
//
// For every (version, download URL) pair the Resolver:
//  1. Looks up the Store when the version is stable
//  2. Otherwise streams the artifact once, hashing it with SHA-256
//  3. Signs the digest with the configured RSA key (RSA-SHA256, PKCS #1 v1.5)
//  4. Persists the descriptor when the version is stable
//
// Prerelease versions are never read from or written to the Store: their
// artifacts may be replaced upstream under the same URL.
//
// # Cache layout
//
// Entries live in a single directory, one JSON file per pair:
//
//	<version>-<file name>-<key>.json
//
// The version and file name parts are sanitized hints for humans browsing
// the directory; key is derived from both strings with BLAKE3 and is what
// keeps entries apart. Entries are never migrated. When Descriptor changes,
// the cache directory has to be cleared by hand.
//
// # Signing keys
//
// LoadSigner accepts PEM encoded PKCS #1 and PKCS #8 keys (encrypted or
// not) as well as armored OpenPGP private keys backed by RSA.
package artifact
