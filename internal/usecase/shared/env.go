package shared

import (
	"fmt"
	"regexp"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidEnvVarName returns true if the name is a valid environment variable name.
func IsValidEnvVarName(name string) bool {
	return envNamePattern.MatchString(name)
}

// CredentialFromEnv returns the explicit value when set, otherwise the value of
// the environment variable named envName.
func CredentialFromEnv(explicit, envName string, getenv func(string) string) (string, error) {
	if explicit != "" || envName == "" {
		return explicit, nil
	}
	if !IsValidEnvVarName(envName) {
		return "", fmt.Errorf("invalid [review] api_key_env %q", envName)
	}
	return getenv(envName), nil
}
