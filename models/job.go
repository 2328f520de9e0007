package models

import (
	"errors"
	"fmt"
)

// ConversionJob is built at submission time and lives for one request.
type ConversionJob struct {
	Files     FileSet
	Format    OutputFormat
	Options   FormatOptions
	AuthToken string
}

var (
	ErrNoFiles          = errors.New("no files selected")
	ErrOptionsMismatch  = errors.New("options do not match output format")
	ErrMissingAuthToken = errors.New("missing auth token")
)

// NewConversionJob snapshots files and checks that options is the variant
// that belongs to format.
func NewConversionJob(files FileSet, format OutputFormat, options FormatOptions, token string) (ConversionJob, error) {
	if len(files) == 0 {
		return ConversionJob{}, ErrNoFiles
	}
	if options == nil || !options.Matches(format) {
		return ConversionJob{}, fmt.Errorf("%w: %s", ErrOptionsMismatch, format)
	}
	if token == "" {
		return ConversionJob{}, ErrMissingAuthToken
	}
	return ConversionJob{
		Files:     files.Clone(),
		Format:    format,
		Options:   options,
		AuthToken: token,
	}, nil
}

// FormFields returns every scalar multipart field: outputFormat plus the
// single format-specific parameter.
func (j ConversionJob) FormFields() map[string]string {
	fields := map[string]string{"outputFormat": j.Format.String()}
	for k, v := range j.Options.FormFields() {
		fields[k] = v
	}
	return fields
}

// JobState is the orchestrator's state machine position.
type JobState int

const (
	JobStateIdle JobState = iota
	JobStateRunning
	JobStateSucceeded
	JobStateFailed
)

func (s JobState) String() string {
	switch s {
	case JobStateIdle:
		return "idle"
	case JobStateRunning:
		return "running"
	case JobStateSucceeded:
		return "succeeded"
	case JobStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobOutcome is the single live conversion status. ErrorMessage is nil
// unless State is JobStateFailed.
type JobOutcome struct {
	State        JobState
	ErrorMessage *string
}

// Message returns the error text or "".
func (o JobOutcome) Message() string {
	if o.ErrorMessage == nil {
		return ""
	}
	return *o.ErrorMessage
}
