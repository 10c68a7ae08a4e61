package organizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sweep/internal/config"
	"sweep/internal/history"
	"sweep/internal/provenance"
	"sweep/internal/rules"
)

func testConfig(watchDir string) *config.Config {
	cfg := config.Default()
	cfg.Watcher.ReadinessProbeDelayMS = 5
	cfg.Rules = []config.Rule{{
		Name:                "Downloads",
		WatchDirectory:      watchDir,
		RedirectDomains:     []string{"imgur.com", "reddit.com"},
		RedirectDestination: "tmp",
		SourceDirectories:   []string{"."},
		Types: []config.TypeRule{
			{Name: "Photos", Extensions: []string{".jpg", ".png"}, Destination: "Photos"},
			{Name: "Screenshots", Extensions: []string{".jpg"}, Destination: "Screenshots"},
			{Name: "Documents", Extensions: []string{".pdf", ".txt"}, Destination: "Documents"},
		},
	}}
	return &cfg
}

func newTestOrganizer(t *testing.T, cfg *config.Config, origin provenance.Source) (*Organizer, rules.WatchRule) {
	t.Helper()
	if origin == nil {
		origin = provenance.Func(func(string) (string, bool) { return "", false })
	}
	compiled := rules.Compile(cfg)
	if len(compiled) != 1 {
		t.Fatalf("expected 1 compiled rule, got %d", len(compiled))
	}
	return NewWithDependencies(cfg, nil, nil, origin, nil), compiled[0]
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTypeRuleMatchMovesFile(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	source := filepath.Join(watchDir, "report.pdf")
	writeFile(t, source, []byte("pdf content"))

	result, err := org.Process(context.Background(), rule, source, "corr-1")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeMoved {
		t.Fatalf("Outcome = %q, want moved", result.Outcome)
	}
	want := filepath.Join(watchDir, "Documents", "report.pdf")
	if result.Destination != want {
		t.Errorf("Destination = %q, want %q", result.Destination, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("source still present after move")
	}
}

func TestRedirectBeatsTypeRule(t *testing.T) {
	watchDir := t.TempDir()
	origin := provenance.Func(func(string) (string, bool) {
		return "https://i.imgur.com/abc.jpg", true
	})
	org, rule := newTestOrganizer(t, testConfig(watchDir), origin)

	source := filepath.Join(watchDir, "meme.jpg")
	writeFile(t, source, []byte("jpg content"))

	result, err := org.Process(context.Background(), rule, source, "corr-2")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeMoved {
		t.Fatalf("Outcome = %q, want moved", result.Outcome)
	}
	if result.Match.Kind != rules.MatchRedirect {
		t.Fatalf("Match.Kind = %q, want redirect", result.Match.Kind)
	}
	want := filepath.Join(watchDir, "tmp", "meme.jpg")
	if result.Destination != want {
		t.Errorf("Destination = %q, want %q (redirect overrides Photos)", result.Destination, want)
	}
}

func TestCollisionSuffixes(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	wantNames := []string{"a.txt", "a_1.txt", "a_2.txt"}
	for _, want := range wantNames {
		source := filepath.Join(watchDir, "a.txt")
		writeFile(t, source, []byte("collision"))

		result, err := org.Process(context.Background(), rule, source, "corr-3")
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		got := filepath.Base(result.Destination)
		if got != want {
			t.Fatalf("destination name = %q, want %q", got, want)
		}
	}
}

func TestUnmatchedFileStaysPut(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	source := filepath.Join(watchDir, "archive.xyz")
	writeFile(t, source, []byte("unknown type"))

	result, err := org.Process(context.Background(), rule, source, "corr-4")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeUnmatched {
		t.Fatalf("Outcome = %q, want unmatched", result.Outcome)
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("unmatched file should remain in place: %v", err)
	}
}

func TestOverlappingTypeRulesFirstWins(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	source := filepath.Join(watchDir, "vacation.jpg")
	writeFile(t, source, []byte("jpg"))

	result, err := org.Process(context.Background(), rule, source, "corr-5")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// Photos is declared before Screenshots; both claim .jpg.
	want := filepath.Join(watchDir, "Photos", "vacation.jpg")
	if result.Destination != want {
		t.Errorf("Destination = %q, want %q", result.Destination, want)
	}
}

func TestZeroByteFileMoves(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	source := filepath.Join(watchDir, "empty.txt")
	writeFile(t, source, nil)

	result, err := org.Process(context.Background(), rule, source, "corr-6")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeMoved {
		t.Fatalf("Outcome = %q, want moved", result.Outcome)
	}
	info, err := os.Stat(result.Destination)
	if err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("moved file size = %d, want 0", info.Size())
	}
}

func TestSkipsHiddenTempAndLitter(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	cases := []string{".hidden.pdf", "partial.pdf.crdownload", "download.txt.tmp", ".DS_Store", "desktop.ini"}
	for _, name := range cases {
		source := filepath.Join(watchDir, name)
		writeFile(t, source, []byte("x"))

		result, err := org.Process(context.Background(), rule, source, "corr-7")
		if err != nil {
			t.Fatalf("Process(%s): %v", name, err)
		}
		if result.Outcome != OutcomeSkipped {
			t.Errorf("Process(%s) outcome = %q, want skipped", name, result.Outcome)
		}
		if _, err := os.Stat(source); err != nil {
			t.Errorf("%s should not have been moved: %v", name, err)
		}
	}
}

func TestSkipsDirectories(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	sub := filepath.Join(watchDir, "folder.pdf")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := org.Process(context.Background(), rule, sub, "corr-8")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeSkipped {
		t.Fatalf("Outcome = %q, want skipped", result.Outcome)
	}
}

func TestVanishedFileSkippedSilently(t *testing.T) {
	watchDir := t.TempDir()
	org, rule := newTestOrganizer(t, testConfig(watchDir), nil)

	result, err := org.Process(context.Background(), rule, filepath.Join(watchDir, "gone.pdf"), "corr-9")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeSkipped {
		t.Fatalf("Outcome = %q, want skipped", result.Outcome)
	}
}

func TestMoveRecordsHistory(t *testing.T) {
	watchDir := t.TempDir()
	cfg := testConfig(watchDir)

	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer store.Close()

	compiled := rules.Compile(cfg)
	org := NewWithDependencies(cfg, nil, store, provenance.Func(func(string) (string, bool) { return "", false }), nil)

	source := filepath.Join(watchDir, "notes.txt")
	writeFile(t, source, []byte("notes"))

	if _, err := org.Process(context.Background(), compiled[0], source, "corr-10"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].Rule != "Downloads" || entries[0].TypeRule != "Documents" {
		t.Errorf("journaled entry = %+v", entries[0])
	}
	if entries[0].CorrelationID != "corr-10" {
		t.Errorf("CorrelationID = %q", entries[0].CorrelationID)
	}
}
