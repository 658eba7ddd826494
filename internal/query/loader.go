// Package query loads SQL query files for benchmarking. Each file holds
// exactly one query; the query name is the file basename without extension.
package query

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Query is one named SQL statement read from disk.
type Query struct {
	Name string
	Path string
	SQL  string
}

// Load resolves the given files and directories into an ordered query set.
// Directories are scanned for *.sql files (non-recursive). A path that is
// neither a file nor a directory is an error, reported before any query runs.
func Load(paths ...string) ([]Query, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("query path %s: %w", path, err)
		}

		if info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(path, "*.sql"))
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", path, err)
			}
			files = append(files, matches...)
			continue
		}
		files = append(files, path)
	}

	queries := make([]Query, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading query %s: %w", file, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			return nil, fmt.Errorf("query file %s is empty", file)
		}
		queries = append(queries, Query{
			Name: Name(file),
			Path: file,
			SQL:  sql,
		})
	}

	sort.Slice(queries, func(i, j int) bool { return queries[i].Name < queries[j].Name })
	return queries, nil
}

// Name derives the query name from a file path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
