package testing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/weave/pkg/diagnostics"
	"github.com/go-drift/weave/pkg/htmldom"
)

// TestingT is what MatchesFile needs from *testing.T.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// UpdateSnapshotsEnv, when set to 1, makes MatchesFile rewrite golden
// files instead of comparing against them.
const UpdateSnapshotsEnv = "WEAVE_UPDATE_SNAPSHOTS"

// Snapshot is the body's element tree, with component phases, state and
// listener counts, plus the router path when a router is running.
type Snapshot struct {
	Route string               `json:"route,omitempty"`
	Tree  diagnostics.TreeNode `json:"tree"`
}

// CaptureSnapshot records the current body tree.
func (t *Tester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{}
	if t.router != nil {
		snap.Route = t.router.State().Get().Path
	}
	if body, ok := t.doc.Body().(htmldom.Element); ok {
		snap.Tree = diagnostics.Tree(body)
	}
	return snap
}

// JSON returns the indented encoding golden files hold.
func (s *Snapshot) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MatchesFile fails t unless the golden file at path holds this snapshot.
// With WEAVE_UPDATE_SNAPSHOTS=1 the file is rewritten instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	got, err := s.JSON()
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
		return
	}
	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := writeGolden(path, got); err != nil {
			t.Fatalf("write snapshot %s: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.Fatalf("snapshot file missing: %s\n\nrun with %s=1 go test -run %s to create it", path, UpdateSnapshotsEnv, t.Name())
		return
	case err != nil:
		t.Fatalf("read snapshot %s: %v", path, err)
		return
	}
	if bytes.Equal(got, want) {
		return
	}
	t.Errorf("snapshot %s differs:\n%s\nrun with %s=1 go test -run %s to accept", path, diffLines(string(want), string(got)), UpdateSnapshotsEnv, t.Name())
}

// UpdateFile writes the snapshot to path, creating parent directories.
func (s *Snapshot) UpdateFile(path string) error {
	data, err := s.JSON()
	if err != nil {
		return err
	}
	return writeGolden(path, data)
}

// Diff describes how other would have to change to equal s, or returns
// "" when they already match.
func (s *Snapshot) Diff(other *Snapshot) string {
	got, errGot := s.JSON()
	want, errWant := other.JSON()
	if err := errors.Join(errGot, errWant); err != nil {
		return fmt.Sprintf("encode snapshot: %v", err)
	}
	if bytes.Equal(got, want) {
		return ""
	}
	return diffLines(string(want), string(got))
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// diffLines renders a minimal line diff of want against got, marking
// removed lines with '-', added lines with '+' and unchanged ones with a
// space.
func diffLines(want, got string) string {
	a := strings.Split(strings.TrimSuffix(want, "\n"), "\n")
	b := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

	// lcs[i][j] is the longest common subsequence of a[i:] and b[j:].
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("--- want\n+++ got\n")
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			sb.WriteString(" " + a[i] + "\n")
			i++
			j++
		case j < len(b) && (i == len(a) || lcs[i][j+1] >= lcs[i+1][j]):
			sb.WriteString("+" + b[j] + "\n")
			j++
		default:
			sb.WriteString("-" + a[i] + "\n")
			i++
		}
	}
	return sb.String()
}
