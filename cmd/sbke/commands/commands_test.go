package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	for _, name := range []string{"serve", "ingest", "search", "trends", "gaps", "papers", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q: not registered (err=%v)", name, err)
		}
	}
}

func TestVersionCmd_Output(t *testing.T) {
	t.Setenv("SBKE_CONFIG", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"version",
		"--env-file", filepath.Join(t.TempDir(), ".env"),
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out.String(); !strings.HasPrefix(got, "sbke dev") {
		t.Errorf("version output: got %q, want prefix %q", got, "sbke dev")
	}
}

func TestIngestCmd_RequiresDir(t *testing.T) {
	t.Setenv("SBKE_PDF_DIR", "")

	root := NewRootCmd()
	root.SetArgs([]string{
		"ingest",
		"--env-file", filepath.Join(t.TempDir(), ".env"),
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
	})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "PDF directory is required") {
		t.Errorf("want missing directory error, got %v", err)
	}
}
