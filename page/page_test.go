package page

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"imageconverter/credentials"
	"imageconverter/identity"
	"imageconverter/job"
	"imageconverter/models"
	"imageconverter/options"
)

type recordingConverter struct {
	running bool
	outcome models.JobOutcome
	calls   []call
}

type call struct {
	files   models.FileSet
	format  models.OutputFormat
	opts    models.FormatOptions
	session models.Session
}

func (c *recordingConverter) Convert(_ context.Context, files models.FileSet, format models.OutputFormat, opts models.FormatOptions, session models.Session) models.JobOutcome {
	c.calls = append(c.calls, call{files, format, opts, session})
	return c.outcome
}

func (c *recordingConverter) Outcome() models.JobOutcome { return c.outcome }
func (c *recordingConverter) Running() bool              { return c.running }

func newProvider(t *testing.T) *identity.LocalProvider {
	t.Helper()
	store, err := credentials.Open(filepath.Join(t.TempDir(), "credentials.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	p, err := identity.NewLocalProvider(store, identity.StaticPrompter("Ada"), identity.LocalOptions{Issuer: "test"})
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	return p
}

func imageFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, make([]byte, 2048), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestSignedOutViewShowsNotice(t *testing.T) {
	pg := New(identity.NewTracker(newProvider(t)), &recordingConverter{})
	pg.Open()
	defer pg.Close()

	v := pg.View()
	if v.User != nil || v.Notice != SignedOutNotice {
		t.Fatalf("unexpected signed-out view %+v", v)
	}
	if v.ShowsControls() {
		t.Fatal("controls must be hidden when signed out")
	}
	if pg.CanSubmit() {
		t.Fatal("submit must be disabled when signed out")
	}
}

func TestCanSubmitGating(t *testing.T) {
	conv := &recordingConverter{}
	pg := New(identity.NewTracker(newProvider(t)), conv)
	pg.Open()
	defer pg.Close()

	pg.Tracker.SignIn(context.Background())
	if pg.CanSubmit() {
		t.Fatal("submit must be disabled without files")
	}

	pg.Surface.OnFilesChosen(imageFiles(t, "a.png"))
	if !pg.CanSubmit() {
		t.Fatal("submit should be enabled with a session and files")
	}

	conv.running = true
	if pg.CanSubmit() {
		t.Fatal("submit must be disabled while converting")
	}
}

func TestSubmitUsesCurrentValues(t *testing.T) {
	conv := &recordingConverter{}
	pg := New(identity.NewTracker(newProvider(t)), conv)
	pg.Open()
	defer pg.Close()
	pg.Tracker.SignIn(context.Background())
	pg.Surface.OnFilesChosen(imageFiles(t, "a.png", "b.jpg"))

	pg.Panel.SetFormat(models.FormatWebP)
	pg.Panel.SetQuality(55)
	pg.Submit(context.Background())

	pg.Panel.SetFormat(models.FormatPNG)
	pg.Panel.SetLossless(true)
	pg.Submit(context.Background())

	if len(conv.calls) != 2 {
		t.Fatalf("expected two submissions, got %d", len(conv.calls))
	}
	first, second := conv.calls[0], conv.calls[1]
	if first.format != models.FormatWebP || first.opts != (models.QualityOptions{Quality: 55}) {
		t.Fatalf("unexpected first submission %+v", first)
	}
	if second.format != models.FormatPNG || second.opts != (models.LosslessOptions{Lossless: true}) {
		t.Fatalf("unexpected second submission %+v", second)
	}
	if !first.session.SignedIn || len(first.files) != 2 {
		t.Fatalf("unexpected session/files %+v", first)
	}
}

func TestViewListsFilesAndControl(t *testing.T) {
	msg := "Unsupported file type"
	conv := &recordingConverter{outcome: models.JobOutcome{State: models.JobStateFailed, ErrorMessage: &msg}}
	pg := New(identity.NewTracker(newProvider(t)), conv)
	pg.Open()
	defer pg.Close()
	pg.Tracker.SignIn(context.Background())
	pg.Surface.OnFilesChosen(imageFiles(t, "a.png"))

	v := pg.View()
	if v.User == nil || v.User.DisplayName != "Ada" {
		t.Fatalf("unexpected user %+v", v.User)
	}
	if len(v.Files) != 1 || v.Files[0].String() != "a.png - 2 KB" {
		t.Fatalf("unexpected file lines %v", v.Files)
	}
	if v.Control == nil || v.Control.Kind != options.QualitySlider || v.Control.Value != models.DefaultQuality {
		t.Fatalf("unexpected control %+v", v.Control)
	}
	if v.Error != msg || v.Busy || v.ButtonLabel != "Convert" {
		t.Fatalf("unexpected status %+v", v)
	}

	conv.outcome = models.JobOutcome{State: models.JobStateRunning}
	v = pg.View()
	if !v.Busy || v.ButtonLabel != "Converting..." || v.Error != "" {
		t.Fatalf("unexpected busy view %+v", v)
	}
}

func TestSignOutHidesConverter(t *testing.T) {
	pg := New(identity.NewTracker(newProvider(t)), &recordingConverter{})
	pg.Open()
	defer pg.Close()
	ctx := context.Background()

	pg.Tracker.SignIn(ctx)
	pg.Surface.OnFilesChosen(imageFiles(t, "a.png"))
	if !pg.View().ShowsControls() {
		t.Fatal("controls should show when signed in with files")
	}
	pg.Tracker.SignOut(ctx)
	if pg.View().ShowsControls() || pg.CanSubmit() {
		t.Fatal("sign-out must hide the converter")
	}
}

type dirSaver string

func (d dirSaver) Save(_ context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(string(d), name), data, 0o644)
}

func TestSubmitEndToEnd(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte("PK"))
	}))
	defer srv.Close()

	out := t.TempDir()
	orch, err := job.New(job.Config{Endpoint: srv.URL, Saver: dirSaver(out)})
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	pg := New(identity.NewTracker(newProvider(t)), orch)
	pg.Open()
	defer pg.Close()
	pg.Tracker.SignIn(context.Background())
	pg.Surface.OnFilesChosen(imageFiles(t, "a.png"))

	outcome := pg.Submit(context.Background())
	if outcome.State != models.JobStateSucceeded {
		t.Fatalf("unexpected outcome %v %q", outcome.State, outcome.Message())
	}
	if len(auth) <= len("Bearer ") {
		t.Fatalf("expected a bearer token, got %q", auth)
	}
	if _, err := os.Stat(filepath.Join(out, job.ArchiveName)); err != nil {
		t.Fatalf("archive not saved: %v", err)
	}
}
