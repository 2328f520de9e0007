// Package job submits conversion requests and tracks the single live
// JobOutcome.
package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"imageconverter/logger"
	"imageconverter/models"

	"github.com/google/uuid"
)

// ArchiveName is the file name the converted archive is saved under.
const ArchiveName = "converted-images.zip"

// maxErrorBody bounds how much of a failure response is shown to the user.
const maxErrorBody = 64 << 10

// Saver delivers the converted archive to the user.
type Saver interface {
	Save(ctx context.Context, name string, r io.Reader) error
}

// HTTPDoer sends the conversion request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config wires an Orchestrator.
type Config struct {
	Endpoint  string
	UserAgent string
	Client    HTTPDoer
	Saver     Saver
}

// Orchestrator runs at most one conversion at a time. The JobOutcome moves
// idle -> running -> succeeded|failed and is re-armed by the next Convert.
type Orchestrator struct {
	endpoint  string
	userAgent string
	client    HTTPDoer
	saver     Saver

	mu      sync.Mutex
	outcome models.JobOutcome
	lastErr error
}

// New validates cfg and returns an idle orchestrator. A nil Client means
// http.DefaultClient, whose transport limits are the only timeout applied.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("conversion endpoint is required")
	}
	if cfg.Saver == nil {
		return nil, errors.New("archive saver is required")
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Orchestrator{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		client:    client,
		saver:     cfg.Saver,
		outcome:   models.JobOutcome{State: models.JobStateIdle},
	}, nil
}

// Outcome returns a copy of the live outcome.
func (o *Orchestrator) Outcome() models.JobOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyOutcome(o.outcome)
}

// Running reports whether a conversion is in flight.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome.State == models.JobStateRunning
}

// LastError is the underlying error of the most recent failed run, for
// logs and diagnostics. The banner text lives in Outcome.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Convert submits files for conversion into format and returns the
// resulting outcome. With no files, a signed-out session, options that do
// not belong to format, or a conversion already running, it does nothing
// and returns the unchanged outcome. Every failure ends up in the outcome's
// ErrorMessage; nothing is returned as an error.
func (o *Orchestrator) Convert(ctx context.Context, files models.FileSet, format models.OutputFormat, opts models.FormatOptions, session models.Session) (out models.JobOutcome) {
	switch {
	case len(files) == 0:
		logger.Debug("convert ignored: no files selected")
		return o.Outcome()
	case !session.SignedIn:
		logger.Debug("convert ignored: not signed in")
		return o.Outcome()
	case opts == nil || !opts.Matches(format):
		logger.Warnf("convert ignored: options %T do not belong to %s", opts, format)
		return o.Outcome()
	}

	snapshot := files.Clone()
	if !o.begin() {
		logger.Debug("convert ignored: a conversion is already running")
		return o.Outcome()
	}

	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("conversion panicked: %v", r)
		}
		out = o.finish(runErr)
	}()

	runErr = o.run(ctx, snapshot, format, opts, session)
	return out
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcome.State == models.JobStateRunning {
		return false
	}
	o.outcome = models.JobOutcome{State: models.JobStateRunning}
	o.lastErr = nil
	return true
}

func (o *Orchestrator) finish(err error) models.JobOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		msg := messageFor(err)
		o.outcome = models.JobOutcome{State: models.JobStateFailed, ErrorMessage: &msg}
		o.lastErr = err
		logger.Errorf("conversion failed: %v", err)
	} else {
		o.outcome = models.JobOutcome{State: models.JobStateSucceeded}
	}
	return copyOutcome(o.outcome)
}

func (o *Orchestrator) run(ctx context.Context, files models.FileSet, format models.OutputFormat, opts models.FormatOptions, session models.Session) error {
	token, err := session.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	if token == "" {
		return fmt.Errorf("%w: %v", ErrTokenUnavailable, models.ErrMissingAuthToken)
	}

	job, err := models.NewConversionJob(files, format, opts, token)
	if err != nil {
		return err
	}

	body, contentType, err := buildBody(job)
	if err != nil {
		return fmt.Errorf("build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, body)
	if err != nil {
		return fmt.Errorf("create conversion request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+job.AuthToken)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", requestID)
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	logger.Infof("submitting %d file(s) as %s (request %s)", len(job.Files), job.Format, requestID)
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("conversion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &BackendError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read converted archive: %w", err)
	}

	if err := o.saver.Save(ctx, ArchiveName, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("save %s: %w", ArchiveName, err)
	}

	logger.Infof("conversion %s complete: %d bytes saved as %s", requestID, len(payload), ArchiveName)
	return nil
}

func copyOutcome(o models.JobOutcome) models.JobOutcome {
	if o.ErrorMessage != nil {
		msg := *o.ErrorMessage
		o.ErrorMessage = &msg
	}
	return o
}
