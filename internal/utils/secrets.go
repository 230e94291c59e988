package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir is where Docker secrets are mounted.
var SecretsDir = "/run/secrets"

var (
	ErrSecretEmpty       = errors.New("secret is empty")
	ErrInvalidSecretName = errors.New("invalid secret name")
)

// ReadSecret returns the trimmed contents of the secret file name under SecretsDir.
func ReadSecret(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSecretName, name)
	}
	path := filepath.Join(SecretsDir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", path, err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("%s: %w", path, ErrSecretEmpty)
	}
	return secret, nil
}

// ReadSecretOrEnv prefers the mounted secret and falls back to envVar.
// An empty result is not an error; callers decide whether the value is required.
func ReadSecretOrEnv(name, envVar string) string {
	if secret, err := ReadSecret(name); err == nil {
		return secret
	}
	return strings.TrimSpace(os.Getenv(envVar))
}
