package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

const (
	templatePattern          = "*.yaml"
	templatePatternRecursive = "**/*.yaml"
)

// ListTemplates returns the template files found at path.
//
// A directory yields its *.yaml files, descending the whole subtree when recursive is set.
// A regular file is returned as-is, whatever its extension.
// Anything else fails with ErrNotFileOrDir.
func ListTemplates(path string, recursive bool, logger *zerolog.Logger) (files []string, err error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Trace().Msg(fmt.Sprintf("ListTemplates(%s, recursive=%t)", path, recursive))

	info, err := os.Stat(path)
	if err != nil {
		logger.Debug().Err(err).Msg("unable to stat template path")
		return nil, &PathError{Path: path, Err: ErrNotFileOrDir}
	}
	switch {
	case info.Mode().IsRegular():
		return []string{path}, nil
	case info.IsDir():
		return WalkDir(path, recursive, logger)
	default:
		return nil, &PathError{Path: path, Err: ErrNotFileOrDir}
	}
}

// WalkDir lists the *.yaml files under root, sorted.
func WalkDir(root string, recursive bool, logger *zerolog.Logger) (files []string, err error) {
	pattern := templatePattern
	if recursive {
		pattern = templatePatternRecursive
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}
	sort.Strings(matches)
	files = make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	logger.Debug().Msgf("found %d template(s) in %s", len(files), root)
	return files, nil
}
