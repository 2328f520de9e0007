// Package page composes the identity tracker, file selection, option panel
// and conversion orchestrator into the single converter screen.
package page

import (
	"context"
	"fmt"
	"sync"

	"imageconverter/identity"
	"imageconverter/job"
	"imageconverter/logger"
	"imageconverter/models"
	"imageconverter/options"
	"imageconverter/selection"
)

const (
	Title            = "Image Format Converter"
	SignedOutNotice  = "Please log in to use the converter."
	SupportedFormats = "Supported formats: JPG, PNG, WEBP, AVIF"
)

// Converter runs conversions. *job.Orchestrator satisfies it.
type Converter interface {
	Convert(ctx context.Context, files models.FileSet, format models.OutputFormat, opts models.FormatOptions, session models.Session) models.JobOutcome
	Outcome() models.JobOutcome
	Running() bool
}

// Page holds the components that make up the converter screen.
type Page struct {
	Tracker   *identity.Tracker
	Surface   *selection.Surface
	Panel     *options.Panel
	Converter Converter

	mu          sync.Mutex
	unsubscribe func()
}

// New returns a page starting on jpg with an empty selection.
func New(tracker *identity.Tracker, converter Converter) *Page {
	return &Page{
		Tracker:   tracker,
		Surface:   selection.NewSurface(),
		Panel:     options.NewPanel(models.FormatJPG),
		Converter: converter,
	}
}

// Open starts tracking the identity session. It is safe to call twice.
func (p *Page) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe != nil {
		return
	}
	p.Tracker.Start()
	p.unsubscribe = p.Tracker.Subscribe(func(u *identity.User) {
		if u == nil {
			logger.Debug("page: showing signed-out notice")
			return
		}
		logger.Debugf("page: welcome %s", u.DisplayName)
	})
}

// Close releases the session subscription.
func (p *Page) Close() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		p.Tracker.Close()
	}
}

// CanSubmit reports whether the convert action is enabled.
func (p *Page) CanSubmit() bool {
	return p.Tracker.User() != nil && len(p.Surface.Files()) > 0 && !p.Converter.Running()
}

// Submit reads the session, files, format and options as they stand now
// and runs one conversion with them.
func (p *Page) Submit(ctx context.Context) models.JobOutcome {
	session := p.Tracker.Session()
	files := p.Surface.Files()
	format := p.Panel.Format()
	opts := p.Panel.Options()
	return p.Converter.Convert(ctx, files, format, opts, session)
}

// FileLine is one row of the selected files list.
type FileLine struct {
	Name   string
	SizeKB int64
}

func (l FileLine) String() string {
	return fmt.Sprintf("%s - %d KB", l.Name, l.SizeKB)
}

// View is everything the screen displays.
type View struct {
	Title       string
	User        *identity.User
	Notice      string
	Prompt      string
	Hint        string
	Files       []FileLine
	Formats     []models.OutputFormat
	Format      models.OutputFormat
	Control     *options.Control
	Busy        bool
	ButtonLabel string
	Error       string
}

// ShowsControls reports whether the format selector, option control and
// convert button are visible.
func (v View) ShowsControls() bool {
	return v.User != nil && len(v.Files) > 0
}

// View renders the current state.
func (p *Page) View() View {
	v := View{Title: Title, User: p.Tracker.User()}
	if v.User == nil {
		v.Notice = SignedOutNotice
		return v
	}

	outcome := p.Converter.Outcome()
	v.Prompt = p.Surface.Prompt()
	v.Hint = SupportedFormats
	v.Formats = models.OutputFormats
	v.Format = p.Panel.Format()
	v.Control = p.Panel.Control()
	v.Busy = outcome.State == models.JobStateRunning
	v.Error = outcome.Message()
	v.ButtonLabel = "Convert"
	if v.Busy {
		v.ButtonLabel = "Converting..."
	}
	for _, f := range p.Surface.Files() {
		v.Files = append(v.Files, FileLine{Name: f.Name, SizeKB: f.SizeKB()})
	}
	return v
}

var _ Converter = (*job.Orchestrator)(nil)
