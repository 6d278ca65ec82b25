package agentref

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAgent(t *testing.T, root, namespace, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, namespace, defaultCategory)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, name+"."+defaultExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestResolve_HappyPath(t *testing.T) {
	root := t.TempDir()
	writeAgent(t, root, "test", "agent", "# Legitimate Agent")

	r := New([]string{root})
	content, err := r.Resolve("test:agent")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !strings.Contains(content, "Legitimate Agent") {
		t.Fatalf("content = %q, want Legitimate Agent", content)
	}
}

func TestResolve_NoCacheReflectsLatestWrite(t *testing.T) {
	root := t.TempDir()
	path := writeAgent(t, root, "test", "agent", "# Legitimate Agent")

	r := New([]string{root})
	first, err := r.Resolve("test:agent")
	if err != nil {
		t.Fatalf("first Resolve error: %v", err)
	}
	if !strings.Contains(first, "Legitimate") {
		t.Fatalf("first content = %q", first)
	}

	if err := os.WriteFile(path, []byte("# Malicious Content"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	second, err := r.Resolve("test:agent")
	if err != nil {
		t.Fatalf("second Resolve error: %v", err)
	}
	if !strings.Contains(second, "Malicious") {
		t.Fatalf("second content = %q, resolver must not cache stale content", second)
	}
}

func TestResolve_NotFound(t *testing.T) {
	root := t.TempDir()
	r := New([]string{root})
	_, err := r.Resolve("test:missing")
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func TestResolve_RejectsMalformedReferences(t *testing.T) {
	root := t.TempDir()
	r := New([]string{root})

	malformed := []string{
		"../../../etc:passwd",
		"../../etc:agent",
		"namespace:../../secret",
		"/etc:passwd",
		"namespace:/etc/passwd",
		"namespace\xef\xbb\xbf:agent",
		"namespace\x00:agent",
		"namespace:agent\x00.md",
		"name\\space:agent",
		"noseparatoratall",
		"a:b:c",
		"justnamespace:",
		":justname",
	}
	for _, ref := range malformed {
		_, err := r.Resolve(ref)
		if err == nil {
			t.Errorf("Resolve(%q) should have been rejected", ref)
			continue
		}
		if _, ok := err.(*InvalidReferenceError); !ok {
			t.Errorf("Resolve(%q) error = %T (%v), want *InvalidReferenceError", ref, err, err)
		}
	}
}

func TestResolve_RejectsOverlongSegment(t *testing.T) {
	root := t.TempDir()
	r := New([]string{root})
	longName := strings.Repeat("a", 300)
	_, err := r.Resolve("namespace:" + longName)
	if err == nil {
		t.Fatal("expected rejection of an overlong name segment")
	}
}

func TestResolve_SymlinkEscapeIsRejected(t *testing.T) {
	if os.Getenv("RECIPEFLOW_SKIP_SYMLINK_TESTS") != "" {
		t.Skip("symlink tests disabled")
	}
	root := t.TempDir()
	outside := t.TempDir()
	os.WriteFile(filepath.Join(outside, "passwd"), []byte("secret"), 0o644)

	evilNamespace := filepath.Join(root, "evil", defaultCategory)
	if err := os.MkdirAll(evilNamespace, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	link := filepath.Join(evilNamespace, "passwd."+defaultExt)
	if err := os.Symlink(filepath.Join(outside, "passwd"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	r := New([]string{root})
	_, err := r.Resolve("evil:passwd")
	if err == nil {
		t.Fatal("symlink escaping the search root must not resolve")
	}
}

func TestResolve_CaseSensitivityIsNotBypassed(t *testing.T) {
	root := t.TempDir()
	writeAgent(t, root, "test", "agent", "content")

	r := New([]string{root})
	if _, err := r.Resolve("Test:Agent"); err == nil {
		t.Fatal("differently-cased reference must not resolve to a different-cased file by accident")
	}
}

func TestResolve_SearchRootOrderFirstMatchWins(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeAgent(t, rootA, "test", "agent", "from A")
	writeAgent(t, rootB, "test", "agent", "from B")

	r := New([]string{rootA, rootB})
	content, err := r.Resolve("test:agent")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !strings.Contains(content, "from A") {
		t.Fatalf("content = %q, want the first search root to win", content)
	}
}
