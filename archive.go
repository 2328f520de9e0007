package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"imageconverter/job"

	"github.com/klauspost/compress/zip"
)

// keepingSaver hands the payload to the configured sink and keeps a copy
// so the command can summarise what arrived.
type keepingSaver struct {
	next job.Saver
	data []byte
}

func (k *keepingSaver) Save(ctx context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := k.next.Save(ctx, name, bytes.NewReader(data)); err != nil {
		return err
	}
	k.data = data
	return nil
}

type archiveEntry struct {
	Name           string
	Size           uint64
	CompressedSize uint64
}

// listArchive reads the central directory of a zip held in memory.
func listArchive(data []byte) ([]archiveEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	entries := make([]archiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, archiveEntry{
			Name:           f.Name,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
