// Package selection admits candidate image files into the working FileSet.
package selection

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"imageconverter/logger"
	"imageconverter/models"
)

// AcceptedMediaTypes is the allow-list for admission.
var AcceptedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/avif": true,
}

// extensionMediaTypes maps file extensions to the media type they imply.
var extensionMediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".avif": "image/avif",
	".gif":  "image/gif",
	".heic": "image/heic",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MediaTypeFor returns the media type implied by name's extension, or "".
func MediaTypeFor(name string) string {
	return extensionMediaTypes[strings.ToLower(filepath.Ext(name))]
}

// Surface holds the working FileSet and the drag-hover flag.
type Surface struct {
	mu         sync.RWMutex
	files      models.FileSet
	dragActive bool
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// OnFilesChosen replaces the FileSet with the admissible members of paths.
// Anything that is not a regular file of an accepted media type is dropped
// without complaint, as are repeated names after the first.
func (s *Surface) OnFilesChosen(paths []string) models.FileSet {
	next := make(models.FileSet, 0, len(paths))
	seen := make(map[string]bool, len(paths))

	for _, p := range paths {
		entry, ok := admit(p)
		if !ok || seen[entry.Name] {
			continue
		}
		seen[entry.Name] = true
		next = append(next, entry)
	}

	s.mu.Lock()
	s.files = next
	s.mu.Unlock()

	logger.Debugf("file selection replaced: %d of %d candidates admitted", len(next), len(paths))
	return next.Clone()
}

func admit(path string) (models.FileEntry, bool) {
	mediaType := MediaTypeFor(path)
	if !AcceptedMediaTypes[mediaType] {
		return models.FileEntry{}, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return models.FileEntry{}, false
	}
	entry := models.FileEntry{
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MediaType: mediaType,
		Path:      path,
	}
	entry.Width, entry.Height = probeDimensions(path)
	return entry, true
}

// Files returns a copy of the current FileSet.
func (s *Surface) Files() models.FileSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.Clone()
}

// Clear empties the selection.
func (s *Surface) Clear() {
	s.mu.Lock()
	s.files = nil
	s.mu.Unlock()
}

// SetDragActive records whether a drag is hovering over the drop target.
func (s *Surface) SetDragActive(active bool) {
	s.mu.Lock()
	s.dragActive = active
	s.mu.Unlock()
}

// DragActive reports the drag-hover flag.
func (s *Surface) DragActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dragActive
}

// Prompt is the hint shown on the drop target.
func (s *Surface) Prompt() string {
	if s.DragActive() {
		return "Drop the files here ..."
	}
	return "Drag 'n' drop some files here, or click to select files"
}
