package models

import (
	"io"
	"math"
	"os"
)

// FileEntry is one candidate image admitted by the selection surface.
// Path is the raw handle; the bytes are read only when a request is built.
type FileEntry struct {
	Name      string
	SizeBytes int64
	MediaType string
	Path      string

	// Width and Height are zero when the dimensions could not be probed.
	Width  int
	Height int
}

// Open returns the file contents.
func (f FileEntry) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// SizeKB is the size rounded to whole kibibytes for display.
func (f FileEntry) SizeKB() int64 {
	return int64(math.Round(float64(f.SizeBytes) / 1024))
}

// FileSet is an ordered selection, unique by name.
type FileSet []FileEntry

// Clone copies the set so later edits to the selection cannot reach a job
// that has already captured it.
func (s FileSet) Clone() FileSet {
	if s == nil {
		return nil
	}
	out := make(FileSet, len(s))
	copy(out, s)
	return out
}

// Names returns the file names in order.
func (s FileSet) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// TotalBytes sums the member sizes.
func (s FileSet) TotalBytes() int64 {
	var n int64
	for _, f := range s {
		n += f.SizeBytes
	}
	return n
}
