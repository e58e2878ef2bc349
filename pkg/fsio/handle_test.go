package fsio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ploke-dev/ploke-io/pkg/fingerprint"
	"github.com/ploke-dev/ploke-io/pkg/ioerror"
	"github.com/ploke-dev/ploke-io/pkg/pathpolicy"
)

func mustFingerprint(t *testing.T, content []byte) fingerprint.Fingerprint {
	t.Helper()
	fp, err := fingerprint.Default().Fingerprint(content)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	return fp
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

func buildHandle(t *testing.T, ctx context.Context, roots ...string) *Handle {
	t.Helper()
	h, err := New().Roots(roots...).Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(h.Shutdown)
	return h
}

func TestHandleReadBatchMixedFingerprintValidity(t *testing.T) {
	dir := t.TempDir()
	content := "package main\n\nfunc main() {}\n"
	path := writeTempFile(t, dir, "main.go", content)
	good := mustFingerprint(t, []byte(content))
	bad := fingerprint.Fingerprint{0xff}

	ctx := context.Background()
	h := buildHandle(t, ctx, dir)

	outcomes, err := h.GetSnippetsBatch(ctx, []ReadRequest{
		{ID: "stale", AbsolutePath: path, ExpectedFileFingerprint: bad, StartByte: 0, EndByte: 7},
		{ID: "fresh", AbsolutePath: path, ExpectedFileFingerprint: good, StartByte: 0, EndByte: 7},
		{ID: "also-fresh", AbsolutePath: path, ExpectedFileFingerprint: good, StartByte: 8, EndByte: 12},
	})
	if err != nil {
		t.Fatalf("GetSnippetsBatch: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	if outcomes[0].Err == nil || !ioerror.Is(outcomes[0].Err, ioerror.KindContentMismatch) {
		t.Errorf("expected stale request to fail with ContentMismatch, got %v", outcomes[0].Err)
	}
	if outcomes[1].Err != nil {
		t.Errorf("expected fresh request to succeed, got %v", outcomes[1].Err)
	}
	if outcomes[1].Result.Content != "package" {
		t.Errorf("unexpected content %q", outcomes[1].Result.Content)
	}
	if outcomes[2].Err != nil {
		t.Errorf("expected second fresh request to succeed, got %v", outcomes[2].Err)
	}
	if outcomes[2].Result.Content != "main" {
		t.Errorf("unexpected content %q", outcomes[2].Result.Content)
	}
}

func TestHandleReadBatchRejectsOffCharBoundary(t *testing.T) {
	dir := t.TempDir()
	content := "héllo"
	path := writeTempFile(t, dir, "greeting.txt", content)

	ctx := context.Background()
	h := buildHandle(t, ctx, dir)

	// 'é' is a two-byte code point starting at index 1; index 2 lands
	// inside it.
	outcomes, err := h.GetSnippetsBatch(ctx, []ReadRequest{
		{ID: "split", AbsolutePath: path, StartByte: 0, EndByte: 2},
	})
	if err != nil {
		t.Fatalf("GetSnippetsBatch: %v", err)
	}
	if !ioerror.Is(outcomes[0].Err, ioerror.KindInvalidCharBoundary) {
		t.Errorf("expected InvalidCharBoundary, got %v", outcomes[0].Err)
	}
}

func TestHandleWriteSnippetsBatchAppliesAtomicWriteAndRefingerprints(t *testing.T) {
	dir := t.TempDir()
	content := "func old() int { return 1 }\n"
	path := writeTempFile(t, dir, "lib.go", content)
	before := mustFingerprint(t, []byte(content))

	ctx := context.Background()
	h := buildHandle(t, ctx, dir)

	outcomes, err := h.WriteSnippetsBatch(ctx, []WriteRequest{
		{
			ID:                      "rename-fn",
			AbsolutePath:            path,
			ExpectedFileFingerprint: before,
			StartByte:               5,
			EndByte:                 8,
			ReplacementBytes:        []byte("new"),
		},
	})
	if err != nil {
		t.Fatalf("WriteSnippetsBatch: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Fatalf("unexpected write error: %v", outcomes[0].Err)
	}

	want := "func new() int { return 1 }\n"
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(got) != want {
		t.Fatalf("got %q, want %q", string(got), want)
	}

	wantDelta := Delta{Start: 5, RemovedLen: 3, AddedLen: 3}
	if outcomes[0].Result.Delta != wantDelta {
		t.Errorf("got delta %+v, want %+v", outcomes[0].Result.Delta, wantDelta)
	}

	afterFP := mustFingerprint(t, []byte(want))
	if outcomes[0].Result.NewFileFingerprint != afterFP {
		t.Error("returned fingerprint does not match post-write content")
	}
}

func TestHandleWriteSnippetsBatchContentMismatchLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	original := "const value = 1\n"
	path := writeTempFile(t, dir, "const.go", original)

	ctx := context.Background()
	h := buildHandle(t, ctx, dir)

	stale := fingerprint.Fingerprint{0x01, 0x02}
	outcomes, err := h.WriteSnippetsBatch(ctx, []WriteRequest{
		{
			ID:                      "bad-guard",
			AbsolutePath:            path,
			ExpectedFileFingerprint: stale,
			StartByte:               0,
			EndByte:                 5,
			ReplacementBytes:        []byte("var"),
		},
	})
	if err != nil {
		t.Fatalf("WriteSnippetsBatch: %v", err)
	}
	if !ioerror.Is(outcomes[0].Err, ioerror.KindContentMismatch) {
		t.Fatalf("expected ContentMismatch, got %v", outcomes[0].Err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(got) != original {
		t.Fatalf("file was mutated despite failed guard: got %q", string(got))
	}
}

func TestHandleScanChangesBatchDetectsDrift(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTempFile(t, dir, "a.go", "package a\n")
	pathB := writeTempFile(t, dir, "b.go", "package b\n")
	fpA := mustFingerprint(t, []byte("package a\n"))
	fpB := mustFingerprint(t, []byte("package b\n"))

	// Drift b.go after computing its expected fingerprint.
	if err := os.WriteFile(pathB, []byte("package b\n\nfunc B() {}\n"), 0644); err != nil {
		t.Fatalf("mutating fixture: %v", err)
	}

	ctx := context.Background()
	h := buildHandle(t, ctx, dir)

	records, err := h.ScanChangesBatch(ctx, []ScanRequest{
		{ID: "scan-a", Namespace: "a", AbsolutePath: pathA, ExpectedFileFingerprint: fpA},
		{ID: "scan-b", Namespace: "b", AbsolutePath: pathB, ExpectedFileFingerprint: fpB},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Nil(t, records[0], "expected a.go to report unchanged")
	if assert.NotNil(t, records[1], "expected b.go to report a drift record") {
		assert.NotEqual(t, fpB, records[1].NewFingerprint, "drift record's new fingerprint should differ from the stale expectation")
		assert.Equal(t, "b", records[1].Namespace)
	}
}

func TestHandleScanChangesBatchReturnsFirstByIndexError(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTempFile(t, dir, "a.go", "package a\n")
	missing := filepath.Join(dir, "missing.go")

	ctx := context.Background()
	h := buildHandle(t, ctx, dir)

	_, err := h.ScanChangesBatch(ctx, []ScanRequest{
		{ID: "missing-first", AbsolutePath: missing},
		{ID: "ok-second", AbsolutePath: pathA},
	})
	if err == nil {
		t.Fatal("expected a batch-level error when any request fails")
	}
	if !ioerror.Is(err, ioerror.KindInvalidInput) {
		t.Errorf("expected an InvalidInput error from the missing file's canonicalization failure, got %v", err)
	}
}

func TestHandleDenyCrossRootRejectsEscapingSymlink(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := writeTempFile(t, outside, "secret.txt", "do not read\n")

	link := filepath.Join(root, "escape.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	ctx := context.Background()
	h, err := New().Roots(root).SymlinkPolicy(pathpolicy.DenyCrossRoot).Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(h.Shutdown)

	outcomes, err := h.GetSnippetsBatch(ctx, []ReadRequest{
		{ID: "escape", AbsolutePath: link, StartByte: 0, EndByte: 4},
	})
	if err != nil {
		t.Fatalf("GetSnippetsBatch: %v", err)
	}
	if !ioerror.Is(outcomes[0].Err, ioerror.KindInvalidInput) {
		t.Errorf("expected the escaping symlink to be rejected as invalid input, got %v", outcomes[0].Err)
	}
}

func TestHandleSubscribeFileEventsObservesWriteSynthetically(t *testing.T) {
	dir := t.TempDir()
	content := "line one\n"
	path := writeTempFile(t, dir, "watched.txt", content)
	before := mustFingerprint(t, []byte(content))

	ctx := context.Background()
	h, err := New().Roots(dir).EnableWatcher(true).WatcherDebounce(10 * time.Millisecond).Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(h.Shutdown)

	events, ok := h.SubscribeFileEvents()
	if !ok {
		t.Fatal("expected watcher events to be available")
	}

	_, err = h.WriteSnippetsBatch(ctx, []WriteRequest{
		{ID: "touch", AbsolutePath: path, ExpectedFileFingerprint: before, StartByte: 0, EndByte: 4, ReplacementBytes: []byte("LINE"), Origin: "test"},
	})
	if err != nil {
		t.Fatalf("WriteSnippetsBatch: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Origin != "test" {
			t.Errorf("expected synthetic event origin 'test', got %q", ev.Origin)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for synthetic change event")
	}
}

func TestHandleUnrestrictedPolicyPermitsAnyAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	content := "hello\n"
	path := writeTempFile(t, dir, "free.txt", content)
	expected := mustFingerprint(t, []byte(content))

	ctx := context.Background()
	h, err := New().Build(ctx) // no Roots: unrestricted
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(h.Shutdown)

	outcomes, err := h.GetSnippetsBatch(ctx, []ReadRequest{
		{ID: "anywhere", AbsolutePath: path, ExpectedFileFingerprint: expected, StartByte: 0, EndByte: 5},
	})
	if err != nil {
		t.Fatalf("GetSnippetsBatch: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Errorf("expected success under an unrestricted policy, got %v", outcomes[0].Err)
	}
}

func TestHandleShutdownRejectsFurtherSubmissions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	h, err := New().Roots(dir).Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h.Shutdown()

	_, err = h.GetSnippetsBatch(ctx, []ReadRequest{{ID: "too-late", AbsolutePath: dir, StartByte: 0, EndByte: 0}})
	if err == nil {
		t.Fatal("expected a transport error after shutdown")
	}
	if !ioerror.Is(err, ioerror.KindInternal) {
		t.Errorf("expected KindInternal, got %v", err)
	}
}
