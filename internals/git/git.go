package git

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is wrapped by tracker lookups when the remote answers 404.
var ErrNotFound = errors.New("not found")

// NormalizeName maps a logical repository name to the name used remotely.
// Only spaces are rewritten; every other character is kept as is.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, " ", "-")
}

// SplitFullName splits "owner/name" into its parts. The owner may itself
// contain slashes (GitLab subgroups); the name never does.
func SplitFullName(fullName string) (owner, name string, err error) {
	fullName = strings.TrimSpace(fullName)
	i := strings.LastIndex(fullName, "/")
	if i <= 0 || i == len(fullName)-1 {
		return "", "", fmt.Errorf("repository full name must be owner/name: %q", fullName)
	}
	return fullName[:i], fullName[i+1:], nil
}

// NormalizeFullName re-applies NormalizeName to the name portion of fullName.
func NormalizeFullName(fullName string) (string, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return "", err
	}
	return owner + "/" + NormalizeName(name), nil
}

// ParsePlatform accepts the names produced by Platform.String.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "github":
		return PlatformGitHub, nil
	case "gitlab":
		return PlatformGitLab, nil
	default:
		return 0, fmt.Errorf("unsupported platform %q, expected github or gitlab", s)
	}
}

// wrapLookup tags a failed lookup with ErrNotFound when the response was a 404.
func wrapLookup(op string, resp *http.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
