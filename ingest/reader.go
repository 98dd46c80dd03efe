package ingest

import (
	"bufio"
	"os"
)

// LineReader is a pure line iterator over a newline-delimited text file. It
// intentionally carries no block-number counter of its own: the Node is the
// sole authority on block numbers, and a reader-side counter (as the
// original implementation kept) is exactly the kind of duplicated state
// that invites divergence bugs between what the reader thinks and what the
// Node has committed.
type LineReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// Open opens path for line-oriented reading.
func Open(path string) (*LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &LineReader{file: f, scanner: bufio.NewScanner(f)}, nil
}

// Next returns the next line. ok is false at end of file; a non-nil err
// indicates a read failure distinct from a clean EOF.
func (r *LineReader) Next() (line string, ok bool, err error) {
	if !r.scanner.Scan() {
		if serr := r.scanner.Err(); serr != nil {
			return "", false, serr
		}
		return "", false, nil
	}
	return r.scanner.Text(), true, nil
}

// Close releases the underlying file handle.
func (r *LineReader) Close() error {
	return r.file.Close()
}
