// Package scan counts how many search files mention each candidate name.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/refscan/internal/model"
)

const (
	// DefaultWindowThreshold is the file size above which a file is scanned
	// through a sliding window instead of being mapped whole.
	DefaultWindowThreshold = 64 << 20

	windowSize = 4 << 20
)

// Logger receives warnings about files that could not be scanned.
type Logger interface {
	Warn(format string, args ...any)
	Verbose(format string, args ...any)
}

// Scanner counts name occurrences across a set of search files.
// The zero value scans with GOMAXPROCS workers and skips unreadable files.
type Scanner struct {
	// Workers bounds the number of files scanned at once. Zero or less
	// means runtime.GOMAXPROCS(0).
	Workers int
	// Strict aborts the scan on the first file that cannot be read.
	Strict bool
	// WindowThreshold overrides DefaultWindowThreshold. A negative value
	// maps every file whole.
	WindowThreshold int64
	Logger          Logger
}

// Result is the outcome of Scanner.Count.
type Result struct {
	Counts  model.UsageCounts
	Skipped []model.SkippedFile
}

// CountUsages scans files one at a time and returns, for every name, the
// number of files whose content contains it. The first unreadable file
// aborts the scan.
func CountUsages(names, files []string) (model.UsageCounts, error) {
	s := &Scanner{Workers: 1, Strict: true}
	res, err := s.Count(context.Background(), names, files)
	if err != nil {
		return nil, err
	}
	return res.Counts, nil
}

// Count returns a count for every distinct name: the number of files that
// contain the name's exact bytes at least once. Duplicate names share one
// counter. Files are scanned concurrently; counts are reduced in file order
// once all workers finish.
func (s *Scanner) Count(ctx context.Context, names, files []string) (Result, error) {
	keys := unique(names)
	needles := make([][]byte, len(keys))
	counts := make(model.UsageCounts, len(keys))
	for i, k := range keys {
		needles[i] = []byte(k)
		counts[k] = 0
	}

	hits := make([][]int, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers(len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := s.scanFile(path, needles)
			if err != nil {
				if s.Strict {
					return fmt.Errorf("scanning %s: %w", path, err)
				}
				failures[i] = err
				return nil
			}
			hits[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	log := s.logger()
	var res Result
	for i, path := range files {
		if failures[i] != nil {
			log.Warn("%s: skipped (%v)", path, failures[i])
			res.Skipped = append(res.Skipped, model.SkippedFile{Path: path, Reason: failures[i].Error()})
			continue
		}
		for _, k := range hits[i] {
			counts[keys[k]]++
		}
	}
	log.Verbose("scanned %d files for %d names, %d skipped", len(files)-len(res.Skipped), len(keys), len(res.Skipped))

	res.Counts = counts
	return res, nil
}

// scanFile returns the indexes of needles found in the file at path.
func (s *Scanner) scanFile(path string, needles [][]byte) ([]int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}

	if t := s.threshold(); t >= 0 && info.Size() > t {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return scanReader(f, needles, windowSize)
	}

	data, release, err := mapFile(path, info.Size())
	if err != nil {
		return nil, err
	}
	defer release()

	return match(data, needles, nil), nil
}

func (s *Scanner) workers(files int) int {
	n := s.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > files {
		n = files
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Scanner) threshold() int64 {
	switch {
	case s.WindowThreshold < 0:
		return -1
	case s.WindowThreshold == 0:
		return DefaultWindowThreshold
	default:
		return s.WindowThreshold
	}
}

func (s *Scanner) logger() Logger {
	if s.Logger == nil {
		return nopLogger{}
	}
	return s.Logger
}

// match returns the indexes of needles present in data. Needles already
// marked in found are skipped, and new hits are marked.
func match(data []byte, needles [][]byte, found []bool) []int {
	var hits []int
	for i, n := range needles {
		if found != nil && found[i] {
			continue
		}
		if bytes.Index(data, n) >= 0 {
			hits = append(hits, i)
			if found != nil {
				found[i] = true
			}
		}
	}
	return hits
}

// unique returns names without repeats, keeping first occurrences in order.
func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any)    {}
func (nopLogger) Verbose(string, ...any) {}
