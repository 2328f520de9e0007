package models

import (
	"fmt"
	"strconv"
	"strings"
)

// OutputFormat is the image format the backend converts into.
type OutputFormat string

const (
	FormatJPG  OutputFormat = "jpg"
	FormatPNG  OutputFormat = "png"
	FormatWebP OutputFormat = "webp"
	FormatAVIF OutputFormat = "avif"
)

// OutputFormats lists the selectable formats in display order.
var OutputFormats = []OutputFormat{FormatJPG, FormatPNG, FormatWebP, FormatAVIF}

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 80
)

// ParseOutputFormat accepts the four format names, case-insensitively.
// "jpeg" is accepted as an alias for jpg.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "avif":
		return FormatAVIF, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want jpg, png, webp or avif)", s)
	}
}

// UsesQuality reports whether the format is tuned with a quality value.
func (f OutputFormat) UsesQuality() bool {
	return f == FormatJPG || f == FormatWebP || f == FormatAVIF
}

// UsesLossless reports whether the format is tuned with a lossless toggle.
func (f OutputFormat) UsesLossless() bool {
	return f == FormatPNG
}

func (f OutputFormat) String() string { return string(f) }

// FormatOptions is the format-specific parameter bundle sent with a
// conversion. Exactly one variant is active for a given OutputFormat:
// QualityOptions for jpg/webp/avif, LosslessOptions for png.
type FormatOptions interface {
	// Matches reports whether this variant belongs to format.
	Matches(format OutputFormat) bool
	// FormFields returns the scalar multipart fields for this variant.
	FormFields() map[string]string
	isFormatOptions()
}

// QualityOptions carries an integer quality in [1,100].
type QualityOptions struct {
	Quality int
}

// LosslessOptions carries the png lossless toggle.
type LosslessOptions struct {
	Lossless bool
}

func (QualityOptions) isFormatOptions()  {}
func (LosslessOptions) isFormatOptions() {}

func (o QualityOptions) Matches(format OutputFormat) bool  { return format.UsesQuality() }
func (o LosslessOptions) Matches(format OutputFormat) bool { return format.UsesLossless() }

func (o QualityOptions) FormFields() map[string]string {
	return map[string]string{"quality": strconv.Itoa(ClampQuality(o.Quality))}
}

func (o LosslessOptions) FormFields() map[string]string {
	return map[string]string{"lossless": strconv.FormatBool(o.Lossless)}
}

// ClampQuality pins q into [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// DefaultOptions returns the default variant for format, or nil for an
// unknown format.
func DefaultOptions(format OutputFormat) FormatOptions {
	switch {
	case format.UsesQuality():
		return QualityOptions{Quality: DefaultQuality}
	case format.UsesLossless():
		return LosslessOptions{Lossless: false}
	default:
		return nil
	}
}
