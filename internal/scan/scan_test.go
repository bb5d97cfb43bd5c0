package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/refscan/internal/model"
)

func TestCountUsagesEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page1 := writeFile(t, dir, "page1.jsp", `<script src="a.js"></script><script src="/x/a.js"></script>`)
	page2 := writeFile(t, dir, "page2.jsp", `<p>nothing here</p>`)

	counts, err := CountUsages([]string{"a.js", "b.js"}, []string{page1, page2})
	require.NoError(t, err)
	assert.Equal(t, model.UsageCounts{"a.js": 1, "b.js": 0}, counts)
}

func TestCountUsagesPresenceNotFrequency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var files []string
	for i := range 3 {
		files = append(files, writeFile(t, dir, fmt.Sprintf("f%d.html", i), strings.Repeat("x.js ", 10)))
	}
	files = append(files, writeFile(t, dir, "other.html", "y.js"))

	counts, err := CountUsages([]string{"x.js", "y.js", "z.js"}, files)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["x.js"])
	assert.Equal(t, 1, counts["y.js"])
	assert.Equal(t, 0, counts["z.js"])
	for name, c := range counts {
		assert.GreaterOrEqual(t, c, 0, name)
		assert.LessOrEqual(t, c, len(files), name)
	}
}

func TestCountUsagesCaseSensitive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "page.jsp", "load foo.js")

	counts, err := CountUsages([]string{"Foo.js"}, []string{f})
	require.NoError(t, err)
	assert.Equal(t, model.UsageCounts{"Foo.js": 0}, counts)
}

func TestCountUsagesEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.jsp", "")

	counts, err := CountUsages([]string{"a.js"}, []string{empty})
	require.NoError(t, err)
	assert.Equal(t, model.UsageCounts{"a.js": 0}, counts)
}

func TestCountUsagesNoFiles(t *testing.T) {
	t.Parallel()

	counts, err := CountUsages([]string{"a.js", "b.js"}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.UsageCounts{"a.js": 0, "b.js": 0}, counts)
}

func TestCountUsagesDuplicateNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "page.jsp", "util.js")

	counts, err := CountUsages([]string{"util.js", "util.js"}, []string{f})
	require.NoError(t, err)
	assert.Equal(t, model.UsageCounts{"util.js": 1}, counts)
}

func TestCountUsagesMissingFileAborts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.jsp", "a.js")
	missing := filepath.Join(dir, "gone.jsp")

	_, err := CountUsages([]string{"a.js"}, []string{ok, missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.jsp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScannerSkipsUnreadable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.jsp", "a.js")
	missing := filepath.Join(dir, "gone.jsp")

	log := &recordingLogger{}
	s := &Scanner{Logger: log}
	res, err := s.Count(context.Background(), []string{"a.js", "b.js"}, []string{missing, ok})
	require.NoError(t, err)

	assert.Equal(t, model.UsageCounts{"a.js": 1, "b.js": 0}, res.Counts)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, missing, res.Skipped[0].Path)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "gone.jsp")
}

func TestScannerParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	names := []string{"a.js", "b.js", "c.js", "d.js"}
	var files []string
	for i := range 40 {
		var body strings.Builder
		for j, n := range names {
			if i%(j+1) == 0 {
				body.WriteString(n + "\n")
			}
		}
		files = append(files, writeFile(t, dir, fmt.Sprintf("p%02d.jsp", i), body.String()))
	}

	want, err := CountUsages(names, files)
	require.NoError(t, err)

	s := &Scanner{Workers: 8, Strict: true}
	for range 3 {
		res, err := s.Count(context.Background(), names, files)
		require.NoError(t, err)
		assert.Equal(t, want, res.Counts)
	}
	assert.Equal(t, 40, want["a.js"])
	assert.Equal(t, 20, want["b.js"])
}

func TestScannerWindowedLargeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := strings.Repeat("-", 5000) + "needle.js" + strings.Repeat("-", 5000)
	f := writeFile(t, dir, "big.html", content)

	s := &Scanner{Strict: true, WindowThreshold: 1024}
	res, err := s.Count(context.Background(), []string{"needle.js", "absent.js"}, []string{f})
	require.NoError(t, err)
	assert.Equal(t, model.UsageCounts{"needle.js": 1, "absent.js": 0}, res.Counts)
}

func TestScannerCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "page.jsp", "a.js")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scanner{}
	_, err := s.Count(ctx, []string{"a.js"}, []string{f})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanReaderBoundary(t *testing.T) {
	t.Parallel()

	needles := [][]byte{[]byte("abcdef"), []byte("zz"), []byte("tail")}
	// "abcdef" straddles the 8-byte window boundary.
	data := []byte("12345abcdef67890tail")

	for _, window := range []int{1, 3, 8, 64} {
		t.Run(fmt.Sprintf("window=%d", window), func(t *testing.T) {
			t.Parallel()
			hits, err := scanReader(bytes.NewReader(data), needles, window)
			require.NoError(t, err)
			assert.ElementsMatch(t, []int{0, 2}, hits)
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	needles := [][]byte{[]byte("a.js"), []byte("b.js")}
	found := []bool{true, false}

	assert.Equal(t, []int{0, 1}, match([]byte("a.js b.js"), needles, nil))
	assert.Equal(t, []int{1}, match([]byte("a.js b.js"), needles, found))
	assert.True(t, found[1])
	assert.Empty(t, match([]byte("nothing"), needles, nil))
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Verbose(string, ...any) {}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
