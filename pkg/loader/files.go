package loader

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// dropIllFormed removes byte sequences that are not valid UTF-8.
func dropIllFormed() transform.Transformer {
	return transform.Chain(
		runes.ReplaceIllFormed(),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
	)
}

// ReadTemplate reads a template file as text, skipping undecodable bytes instead of failing.
func ReadTemplate(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", path, err)
	}
	if utf8.Valid(content) {
		return string(content), nil
	}
	cleaned, _, err := transform.Bytes(dropIllFormed(), content)
	if err != nil {
		return "", fmt.Errorf("unable to decode %s: %w", path, err)
	}
	return string(cleaned), nil
}
