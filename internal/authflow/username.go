package authflow

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonAlnum         = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscoreRuns   = regexp.MustCompile(`_+`)
	generatedPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+\d{1,3}$`)
)

// GenerateUsername derives a username from the local part of email with a
// random 0-999 suffix from intn. It returns "" when email has no '@'.
func GenerateUsername(email string, intn func(n int) int) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	base := nonAlnum.ReplaceAllString(local, "_")
	base = underscoreRuns.ReplaceAllString(base, "_")
	base = strings.TrimSuffix(strings.TrimPrefix(base, "_"), "_")
	return fmt.Sprintf("%s%d", base, intn(1000))
}

// looksGenerated reports whether username is empty or still has the shape
// GenerateUsername produces.
func looksGenerated(username string) bool {
	return username == "" || generatedPattern.MatchString(username)
}
