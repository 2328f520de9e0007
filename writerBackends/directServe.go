package writerbackends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"imageconverter/logger"
)

// maxNameAttempts bounds the "name (n).ext" search in the download dir.
const maxNameAttempts = 1000

// SaveToDirectServe writes reader into accessInfo["dir"]. An existing file
// is never overwritten; the payload lands under "name (1).ext", "name (2).ext"
// and so on, the way a browser download does.
func SaveToDirectServe(ctx context.Context, accessInfo map[string]string, name string, reader io.Reader) error {
	dir := accessInfo["dir"]
	if dir == "" {
		return errors.New("missing required accessInfo key: dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, readerWithContext(ctx, reader)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	fullPath, err := claimName(dir, name)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("failed to move download into %s: %w", fullPath, err)
	}

	logger.Infof("Successfully saved '%s' to '%s'", name, fullPath)
	return nil
}

// claimName returns the first free path for name inside dir.
func claimName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		full := filepath.Join(dir, candidate)
		if _, err := os.Lstat(full); errors.Is(err, fs.ErrNotExist) {
			return full, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", full, err)
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	if ctx == nil {
		return r
	}
	return ctxReader{ctx: ctx, r: r}
}
