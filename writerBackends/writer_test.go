package writerbackends

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imageconverter/config"
	"imageconverter/credentials"
)

func TestDirectServeWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	w := Writer{Type: DirectServe, AccessInfo: map[string]string{"dir": dir}}

	if err := w.Save(context.Background(), "converted-images.zip", strings.NewReader("zip-bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "converted-images.zip"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(got) != "zip-bytes" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDirectServeNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := Writer{Type: DirectServe, AccessInfo: map[string]string{"dir": dir}}
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three"} {
		if err := w.Save(ctx, "converted-images.zip", strings.NewReader(body)); err != nil {
			t.Fatalf("Save %s: %v", body, err)
		}
	}

	want := map[string]string{
		"converted-images.zip":     "one",
		"converted-images (1).zip": "two",
		"converted-images (2).zip": "three",
	}
	for name, body := range want {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != body {
			t.Fatalf("%s = %q, want %q", name, got, body)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestDirectServeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	err := SaveToDirectServe(ctx, map[string]string{"dir": dir}, "a.zip", strings.NewReader("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.zip")); statErr == nil {
		t.Fatal("cancelled save must not leave a file")
	}
}

func TestUnknownBackendType(t *testing.T) {
	err := Writer{Type: "dropbox"}.Save(context.Background(), "a.zip", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "unknown backend type") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRemoteSinksRejectIncompleteAccessInfo(t *testing.T) {
	ctx := context.Background()
	for _, typ := range []string{S3, GCS, SFTP} {
		err := Writer{Type: typ, AccessInfo: map[string]string{}}.Save(ctx, "a.zip", strings.NewReader("x"))
		if err == nil || !strings.Contains(err.Error(), "missing") {
			t.Fatalf("%s: expected missing key error, got %v", typ, err)
		}
	}
}

func TestFromConfig(t *testing.T) {
	store, err := credentials.Open(filepath.Join(t.TempDir(), "credentials.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	info := map[string]string{"accessKey": "a", "secretKey": "s", "region": "eu-west-1", "bucket": "b"}
	if err := store.Put(credentials.SinkPrefix+"backup", info); err != nil {
		t.Fatalf("put: %v", err)
	}

	w, err := FromConfig(config.Download{Sink: S3, CredentialsKey: "backup"}, store)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if w.Type != S3 || w.AccessInfo["bucket"] != "b" {
		t.Fatalf("unexpected writer %+v", w)
	}

	if _, err := FromConfig(config.Download{Sink: GCS, CredentialsKey: "missing"}, store); !errors.Is(err, credentials.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	local, err := FromConfig(config.Download{Sink: DirectServe, Dir: "/tmp/out"}, nil)
	if err != nil || local.AccessInfo["dir"] != "/tmp/out" {
		t.Fatalf("unexpected direct serve writer %+v, %v", local, err)
	}
}

func TestDecodeServiceAccount(t *testing.T) {
	raw := `{"type":"service_account"}`
	for _, in := range []string{raw, "eyJ0eXBlIjoic2VydmljZV9hY2NvdW50In0="} {
		got, err := decodeServiceAccount(in)
		if err != nil || string(got) != raw {
			t.Fatalf("decode %q = %q, %v", in, got, err)
		}
	}
	if _, err := decodeServiceAccount("%%%"); err == nil {
		t.Fatal("expected error for garbage")
	}
}

func TestObjectKey(t *testing.T) {
	if got := objectKey("", "a.zip"); got != "a.zip" {
		t.Fatalf("got %q", got)
	}
	if got := objectKey("exports/", "a.zip"); got != "exports/a.zip" {
		t.Fatalf("got %q", got)
	}
}
