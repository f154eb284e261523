package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandPath("~/.fluxrd/fluxrd.db")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if want := filepath.Join(home, ".fluxrd", "fluxrd.db"); got != want {
		t.Errorf("ExpandPath = %q, want %q", got, want)
	}

	got, err = ExpandPath("relative/../db.bolt")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if !filepath.IsAbs(got) || strings.Contains(got, "..") {
		t.Errorf("expected clean absolute path, got %q", got)
	}

	for _, bad := range []string{"", "  ", "db\x00.bolt", "db\n.bolt"} {
		if _, err := ExpandPath(bad); err == nil {
			t.Errorf("ExpandPath(%q) should fail", bad)
		}
	}
}

func TestEnsureParentDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "store.db")

	got, err := EnsureParentDir(target)
	if err != nil {
		t.Fatalf("EnsureParentDir failed: %v", err)
	}
	if got != target {
		t.Errorf("EnsureParentDir = %q, want %q", got, target)
	}
	info, err := os.Stat(filepath.Dir(target))
	if err != nil || !info.IsDir() {
		t.Errorf("parent directory not created: %v", err)
	}
}
