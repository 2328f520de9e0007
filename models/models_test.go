package models

import (
	"context"
	"errors"
	"testing"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"jpg", FormatJPG, false},
		{"JPEG", FormatJPG, false},
		{" png ", FormatPNG, false},
		{"webp", FormatWebP, false},
		{"avif", FormatAVIF, false},
		{"gif", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultOptionsMatchFormat(t *testing.T) {
	for _, f := range []OutputFormat{FormatJPG, FormatWebP, FormatAVIF} {
		opts, ok := DefaultOptions(f).(QualityOptions)
		if !ok {
			t.Fatalf("%s: expected QualityOptions, got %T", f, DefaultOptions(f))
		}
		if opts.Quality != DefaultQuality {
			t.Fatalf("%s: default quality %d", f, opts.Quality)
		}
		if !opts.Matches(f) || opts.Matches(FormatPNG) {
			t.Fatalf("%s: quality variant matched the wrong format", f)
		}
	}
	opts, ok := DefaultOptions(FormatPNG).(LosslessOptions)
	if !ok {
		t.Fatalf("png: expected LosslessOptions, got %T", DefaultOptions(FormatPNG))
	}
	if opts.Lossless {
		t.Fatal("png: lossless should default to false")
	}
	if DefaultOptions("bmp") != nil {
		t.Fatal("unknown format should have no options")
	}
}

func TestFormFieldsSerializeExactlyOneParameter(t *testing.T) {
	q := QualityOptions{Quality: 150}.FormFields()
	if len(q) != 1 || q["quality"] != "100" {
		t.Fatalf("unexpected quality fields %v", q)
	}
	l := LosslessOptions{Lossless: true}.FormFields()
	if len(l) != 1 || l["lossless"] != "true" {
		t.Fatalf("unexpected lossless fields %v", l)
	}
}

func TestNewConversionJobSnapshotsFiles(t *testing.T) {
	files := FileSet{{Name: "a.png", SizeBytes: 10}, {Name: "b.png", SizeBytes: 20}}
	job, err := NewConversionJob(files, FormatWebP, QualityOptions{Quality: 55}, "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	files[0].Name = "changed.png"
	if job.Files[0].Name != "a.png" {
		t.Fatalf("job saw later edit: %q", job.Files[0].Name)
	}
	fields := job.FormFields()
	if fields["outputFormat"] != "webp" || fields["quality"] != "55" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["lossless"]; ok {
		t.Fatal("lossless must not be sent for webp")
	}
}

func TestNewConversionJobRejectsMismatchedOptions(t *testing.T) {
	files := FileSet{{Name: "a.png"}}
	if _, err := NewConversionJob(files, FormatPNG, QualityOptions{Quality: 80}, "tok"); !errors.Is(err, ErrOptionsMismatch) {
		t.Fatalf("expected ErrOptionsMismatch, got %v", err)
	}
	if _, err := NewConversionJob(nil, FormatPNG, LosslessOptions{}, "tok"); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	if _, err := NewConversionJob(files, FormatPNG, LosslessOptions{}, ""); !errors.Is(err, ErrMissingAuthToken) {
		t.Fatalf("expected ErrMissingAuthToken, got %v", err)
	}
}

func TestSizeKBRounds(t *testing.T) {
	if got := (FileEntry{SizeBytes: 1535}).SizeKB(); got != 1 {
		t.Fatalf("1535 bytes = %d KB", got)
	}
	if got := (FileEntry{SizeBytes: 1536}).SizeKB(); got != 2 {
		t.Fatalf("1536 bytes = %d KB", got)
	}
}

func TestSignedOutSessionHasNoToken(t *testing.T) {
	if _, err := SignedOut().Token(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	s := Session{SignedIn: true, TokenProvider: func(context.Context) (string, error) { return "t", nil }}
	tok, err := s.Token(context.Background())
	if err != nil || tok != "t" {
		t.Fatalf("unexpected token %q err %v", tok, err)
	}
}
