// Package shard partitions an issue file into evenly sized shards and locates
// their result directories.
package shard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sumatoshi-tech/szz/pkg/issues"
)

// Sentinel errors.
var (
	ErrInvalidCount = errors.New("shard count must be positive")
	ErrDirExists    = errors.New("shard directory already exists")
)

const (
	issueFileFormat = "fix_and_introducers_pairs_%d.json"
	resultDirPrefix = "result"
	dirPerm         = 0o750
)

// Split partitions file into n shards in issue key order. Shard i receives
// len/n issues, plus one more while i < len%n. Shards may be empty.
func Split(file issues.File, n int) ([]issues.File, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}

	keys := file.Keys()
	div, mod := len(keys)/n, len(keys)%n

	shards := make([]issues.File, n)
	start := 0

	for i := range n {
		size := div
		if i < mod {
			size++
		}

		shard := make(issues.File, size)
		for _, key := range keys[start : start+size] {
			shard[key] = file[key]
		}

		shards[i] = shard
		start += size
	}

	return shards, nil
}

// SplitFile splits the issue file at path into n files under dir, which must
// not exist yet. It returns the written paths in shard order.
func SplitFile(path string, n int, dir string) ([]string, error) {
	file, err := issues.Load(path)
	if err != nil {
		return nil, err
	}

	shards, err := Split(file, n)
	if err != nil {
		return nil, err
	}

	_, err = os.Stat(dir)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDirExists, dir)
	}

	err = os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("create shard dir: %w", err)
	}

	paths := make([]string, 0, n)

	for i, shard := range shards {
		shardPath := filepath.Join(dir, fmt.Sprintf(issueFileFormat, i))

		err = issues.Write(shardPath, shard)
		if err != nil {
			return nil, err
		}

		paths = append(paths, shardPath)
	}

	return paths, nil
}

// ResultDir returns the result directory of shard i under root.
func ResultDir(root string, i int) string {
	return filepath.Join(root, resultDirPrefix+strconv.Itoa(i))
}

// ResultDirs returns the result directories of n shards under root.
func ResultDirs(root string, n int) []string {
	dirs := make([]string, n)
	for i := range n {
		dirs[i] = ResultDir(root, i)
	}

	return dirs
}
