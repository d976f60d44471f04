package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
}

// Load returns the resolved secret value from the provided source. When File is
// set it takes precedence over Value. The returned secret is always trimmed. An
// error is returned when neither File nor Value contain a usable secret.
func Load(src Source) (string, error) {
	secret, err := resolve(src)
	if err != nil {
		return "", err
	}

	if secret == "" {
		name := displayName(src)
		if strings.TrimSpace(src.File) != "" {
			return "", fmt.Errorf("%s file %q is empty", name, strings.TrimSpace(src.File))
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}

// LoadOptional behaves like Load but treats an unconfigured secret as absence
// rather than an error: it returns an empty string when neither File nor Value
// are set. A File that is set but unreadable or empty is still an error, since
// that points at a misconfiguration rather than an intentional omission.
func LoadOptional(src Source) (string, error) {
	secret, err := resolve(src)
	if err != nil {
		return "", err
	}

	if secret == "" && strings.TrimSpace(src.File) != "" {
		return "", fmt.Errorf("%s file %q is empty", displayName(src), strings.TrimSpace(src.File))
	}

	return secret, nil
}

func resolve(src Source) (string, error) {
	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", displayName(src), file, err)
		}
		src.Value = string(data)
	}

	return strings.TrimSpace(src.Value), nil
}

func displayName(src Source) string {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}
	return name
}
