package scan

import (
	"errors"
	"io"
)

// scanReader finds needles in r while holding at most window bytes plus the
// longest needle in memory. Consecutive windows overlap by the longest
// needle minus one byte so a match spanning a boundary is not lost.
func scanReader(r io.Reader, needles [][]byte, window int) ([]int, error) {
	longest := 0
	for _, n := range needles {
		longest = max(longest, len(n))
	}
	overlap := max(longest-1, 0)

	found := make([]bool, len(needles))
	var hits []int

	chunk := make([]byte, window)
	buf := make([]byte, 0, window+overlap)
	tail := make([]byte, 0, overlap)

	for len(hits) < len(needles) {
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			buf = append(buf[:0], tail...)
			buf = append(buf, chunk[:n]...)
			hits = append(hits, match(buf, needles, found)...)

			keep := min(overlap, len(buf))
			tail = append(tail[:0], buf[len(buf)-keep:]...)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return hits, nil
}
