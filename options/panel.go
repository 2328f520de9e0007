// Package options derives the format-dependent compression control and
// holds its value.
package options

import (
	"sync"

	"imageconverter/models"
)

// ControlKind identifies which control is shown.
type ControlKind int

const (
	QualitySlider ControlKind = iota
	LosslessToggle
)

// Control describes the single visible option control.
type Control struct {
	Kind ControlKind
	// Quality slider fields.
	Min, Max, Value int
	// Lossless toggle field.
	Checked bool
}

// Label is the caption the control is displayed with.
func (c Control) Label() string {
	if c.Kind == LosslessToggle {
		return "Lossless"
	}
	return "Quality"
}

// Render returns the control for format given the stored values, or nil
// when the format has no options.
func Render(format models.OutputFormat, quality int, lossless bool) *Control {
	switch {
	case format.UsesQuality():
		return &Control{
			Kind:  QualitySlider,
			Min:   models.MinQuality,
			Max:   models.MaxQuality,
			Value: models.ClampQuality(quality),
		}
	case format.UsesLossless():
		return &Control{Kind: LosslessToggle, Checked: lossless}
	default:
		return nil
	}
}

// Panel holds the selected format and one independent slot per variant.
// Changing the format resets the slot of the newly active variant to its
// default; each setter only writes the slot of the active variant.
type Panel struct {
	mu       sync.RWMutex
	format   models.OutputFormat
	quality  int
	lossless bool
}

// NewPanel starts on format with default option values.
func NewPanel(format models.OutputFormat) *Panel {
	p := &Panel{quality: models.DefaultQuality}
	p.SetFormat(format)
	return p
}

// SetFormat selects format. Re-selecting the current format keeps the
// stored value.
func (p *Panel) SetFormat(format models.OutputFormat) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.format == format {
		return
	}
	p.format = format
	switch {
	case format.UsesQuality():
		p.quality = models.DefaultQuality
	case format.UsesLossless():
		p.lossless = false
	}
}

// Format returns the selected format.
func (p *Panel) Format() models.OutputFormat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.format
}

// SetQuality stores q clamped to [1,100]. It reports false and changes
// nothing when the active format has no quality control.
func (p *Panel) SetQuality(q int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.format.UsesQuality() {
		return false
	}
	p.quality = models.ClampQuality(q)
	return true
}

// SetLossless stores v. It reports false and changes nothing when the
// active format has no lossless toggle.
func (p *Panel) SetLossless(v bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.format.UsesLossless() {
		return false
	}
	p.lossless = v
	return true
}

// Control renders the current state.
func (p *Panel) Control() *Control {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Render(p.format, p.quality, p.lossless)
}

// Options returns the active variant as a value, nil for an unknown format.
func (p *Panel) Options() models.FormatOptions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.format.UsesQuality():
		return models.QualityOptions{Quality: p.quality}
	case p.format.UsesLossless():
		return models.LosslessOptions{Lossless: p.lossless}
	default:
		return nil
	}
}
