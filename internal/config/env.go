package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// Environment variables read by LoadEnv.
const (
	EnvSignKey        = "TOOLDEF_SIGN_KEY"
	EnvSignKeyFile    = "TOOLDEF_SIGN_KEY_FILE"
	EnvSignPassphrase = "TOOLDEF_SIGN_PASSPHRASE"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvWorkspace      = "GITHUB_WORKSPACE"
)

// Env holds settings and secrets taken from the environment.
type Env struct {
	// SignKey is decoded key material from TOOLDEF_SIGN_KEY (base64).
	SignKey []byte
	// SignKeyFile is a path to key material.
	SignKeyFile    string
	SignPassphrase string
	GitHubToken    string
	// Workspace is the root of generated output and caches.
	Workspace string
}

// LoadEnv reads the environment. An undecodable TOOLDEF_SIGN_KEY is an
// error; missing values are not.
func LoadEnv() (Env, error) {
	env := Env{
		SignKeyFile:    strings.TrimSpace(os.Getenv(EnvSignKeyFile)),
		SignPassphrase: os.Getenv(EnvSignPassphrase),
		GitHubToken:    strings.TrimSpace(os.Getenv(EnvGitHubToken)),
		Workspace:      strings.TrimSpace(os.Getenv(EnvWorkspace)),
	}

	if encoded := strings.TrimSpace(os.Getenv(EnvSignKey)); encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return Env{}, &ValidationError{Field: EnvSignKey, Message: "not valid base64"}
		}
		env.SignKey = key
	}

	return env, nil
}

// SigningKeyMaterial returns the signing key. Key material given directly
// takes precedence over a key file.
func (e Env) SigningKeyMaterial() ([]byte, error) {
	if len(e.SignKey) > 0 {
		return e.SignKey, nil
	}
	if e.SignKeyFile == "" {
		return nil, &ValidationError{Message: fmt.Sprintf("a signing key is required (set %s or %s)", EnvSignKey, EnvSignKeyFile)}
	}
	data, err := os.ReadFile(e.SignKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	return data, nil
}
