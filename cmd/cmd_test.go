package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"P3DrumMachine/config"
	"P3DrumMachine/storage"

	"github.com/google/uuid"
)

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenIndexNone(t *testing.T) {
	idx, closer, err := openIndex(context.Background(), &config.Config{IndexBackend: config.IndexNone}, t.TempDir())
	if idx != nil || closer != nil || err != nil {
		t.Fatalf("got index=%v closer=%t err=%v", idx, closer != nil, err)
	}
}

func TestOpenIndexSQLiteCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "not-yet", storage.AppDirName)
	idx, closer, err := openIndex(context.Background(), &config.Config{IndexBackend: config.IndexSQLite}, base)
	if err != nil {
		t.Fatal(err)
	}
	defer closer()
	if idx == nil {
		t.Fatal("no index")
	}
	if _, err := os.Stat(filepath.Join(base, "index.db")); err != nil {
		t.Fatalf("index file: %v", err)
	}
}

func TestSessionWorkflow(t *testing.T) {
	root := t.TempDir()
	t.Setenv("INDEX_BACKEND", config.IndexSQLite)
	t.Setenv("P3DM_ROOT", "")

	out := mustExecute(t, "--root", root, "sessions", "new", "--name", "Night Beat", "--bpm", "500", "--rows", "2", "--columns", "3")
	id, err := uuid.Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("new printed %q", out)
	}

	out = mustExecute(t, "--root", root, "sessions", "list")
	if !strings.Contains(out, id.String()) || !strings.Contains(out, "Night Beat") || !strings.Contains(out, "300.0") {
		t.Fatalf("list:\n%s", out)
	}

	src := filepath.Join(t.TempDir(), "snare.wav")
	if err := os.WriteFile(src, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	out = mustExecute(t, "--root", root, "samples", "import", id.String(), src, "--row", "1", "--column", "2")
	if !strings.Contains(out, "assigned to pad (1,2)") {
		t.Fatalf("import:\n%s", out)
	}

	out = mustExecute(t, "--root", root, "sessions", "show", id.String())
	if !strings.Contains(out, "grid:     2x3, 1 assigned") || !strings.Contains(out, "[ ] [ ] [x]") {
		t.Fatalf("show:\n%s", out)
	}

	out = mustExecute(t, "--root", root, "sessions", "export", id.String(), "--format", "yaml")
	if !strings.Contains(out, "name: Night Beat") {
		t.Fatalf("export:\n%s", out)
	}

	out = mustExecute(t, "--root", root, "index", "rebuild")
	if !strings.Contains(out, "indexed 1 sessions") {
		t.Fatalf("rebuild: %s", out)
	}

	sample := filepath.Join(storage.BaseDir(root), "Samples", id.String(), "snare.wav")
	out = mustExecute(t, "--root", root, "samples", "remove", id.String(), "snare.wav")
	if !strings.Contains(out, "1 pads cleared") {
		t.Fatalf("remove: %s", out)
	}
	if _, err := os.Stat(sample); !os.IsNotExist(err) {
		t.Fatalf("sample still on disk: %v", err)
	}

	mustExecute(t, "--root", root, "sessions", "delete", id.String())
	out = mustExecute(t, "--root", root, "sessions", "list")
	if !strings.Contains(out, "no sessions") {
		t.Fatalf("list after delete:\n%s", out)
	}

	_, err = execute("--root", root, "sessions", "show", id.String())
	if !errors.Is(err, storage.ErrSessionNotFound) {
		t.Fatalf("show deleted: %v", err)
	}
}

func newSessionForTest(t *testing.T, root string) uuid.UUID {
	t.Helper()
	out := mustExecute(t, "--root", root, "sessions", "new", "--name", "guarded", "--rows", "1", "--columns", "2")
	id, err := uuid.Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("new printed %q", out)
	}
	return id
}

func TestSamplesRemoveRefusesPathsOutsideSession(t *testing.T) {
	t.Setenv("INDEX_BACKEND", config.IndexNone)
	root := t.TempDir()
	id := newSessionForTest(t, root)

	important := filepath.Join(t.TempDir(), "important.txt")
	if err := os.WriteFile(important, []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}
	sessionFile := filepath.Join(storage.BaseDir(root), "Sessions", id.String()+".json")

	for _, target := range []string{important, "../../Sessions/" + id.String() + ".json"} {
		out, err := execute("--root", root, "samples", "remove", id.String(), target)
		if !errors.Is(err, storage.ErrOutsideSession) {
			t.Fatalf("remove %s: err=%v out=%s", target, err, out)
		}
	}
	for _, path := range []string{important, sessionFile} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s was removed: %v", path, err)
		}
	}
}

func TestSamplesImportNeedsRowAndColumnTogether(t *testing.T) {
	t.Setenv("INDEX_BACKEND", config.IndexNone)
	root := t.TempDir()
	id := newSessionForTest(t, root)
	src := filepath.Join(t.TempDir(), "kick.wav")
	if err := os.WriteFile(src, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	samples := filepath.Join(storage.BaseDir(root), "Samples", id.String())

	cases := [][]string{
		{"--row", "0", "--column", "-1"},
		{"--row", "-1", "--column", "1"},
		{"--row", "3", "--column", "0"},
	}
	for _, flags := range cases {
		args := append([]string{"--root", root, "samples", "import", id.String(), src}, flags...)
		if _, err := execute(args...); err == nil {
			t.Fatalf("%v: expected an error", flags)
		}
	}
	entries, _ := os.ReadDir(samples)
	if len(entries) != 0 {
		t.Fatalf("file copied although the pad was invalid: %v", entries)
	}

	out := mustExecute(t, "--root", root, "samples", "import", id.String(), src, "--row", "-1", "--column", "-1")
	if strings.Contains(out, "assigned") {
		t.Fatalf("import without a pad assigned one:\n%s", out)
	}
}

func TestKeysCommand(t *testing.T) {
	t.Setenv("INDEX_BACKEND", config.IndexNone)
	out := mustExecute(t, "--root", t.TempDir(), "keys", "--low", "60", "--high", "61")
	if !strings.Contains(out, "C4") || !strings.Contains(out, "90 3C 64") || !strings.Contains(out, "C#4") {
		t.Fatalf("keys:\n%s", out)
	}

	out = mustExecute(t, "--root", t.TempDir(), "keys", "--fifths")
	if !strings.Contains(out, "F# Major") || strings.Count(out, "\n") != 12 {
		t.Fatalf("fifths:\n%s", out)
	}
}
