package worker

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	herrors "github.com/filemark/filemark/internal/errors"
)

func writeBytes(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func randomData(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, n)
	rng.Read(data)
	return data
}

func runDupCheck(t *testing.T, pathA, pathB string, chunkSize, bound int) *DupCheckWorker {
	t.Helper()
	sig := NewSignal()
	w := NewDupCheckWorker(pathA, pathB, chunkSize, bound, sig)
	w.Start(context.Background())
	awaitWorker(t, w, sig)
	return w
}

func TestDupCheckWorker_IdenticalFiles(t *testing.T) {
	dir := t.TempDir()
	data := randomData(100 * 1024)
	a := writeBytes(t, dir, "a.bin", data)
	b := writeBytes(t, dir, "b.bin", data)

	// 4KB chunks force many comparison jobs through the pool.
	w := runDupCheck(t, a, b, 4*1024, 4)
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Identical() {
		t.Fatal("identical files reported as different")
	}
}

func TestDupCheckWorker_DifferentLastByte(t *testing.T) {
	dir := t.TempDir()
	data := randomData(64 * 1024)
	a := writeBytes(t, dir, "a.bin", data)

	altered := bytes.Clone(data)
	altered[len(altered)-1] ^= 0xFF
	b := writeBytes(t, dir, "b.bin", altered)

	w := runDupCheck(t, a, b, 4*1024, 4)
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Identical() {
		t.Fatal("files differing in the last byte reported identical")
	}
}

func TestDupCheckWorker_DifferentSizes(t *testing.T) {
	dir := t.TempDir()
	a := writeBytes(t, dir, "a.bin", randomData(1024))
	b := writeBytes(t, dir, "b.bin", randomData(2048))

	w := runDupCheck(t, a, b, 512, 2)
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Identical() {
		t.Fatal("files of different sizes reported identical")
	}
}

func TestDupCheckWorker_EmptyFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeBytes(t, dir, "a.bin", nil)
	b := writeBytes(t, dir, "b.bin", nil)

	w := runDupCheck(t, a, b, 1024, 1)
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Identical() {
		t.Fatal("two empty files must be identical")
	}
}

func TestDupCheckWorker_SingleWorkerPool(t *testing.T) {
	dir := t.TempDir()
	data := randomData(32 * 1024)
	a := writeBytes(t, dir, "a.bin", data)
	b := writeBytes(t, dir, "b.bin", data)

	// Pool bound of 1 serializes every chunk comparison.
	w := runDupCheck(t, a, b, 1024, 1)
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Identical() {
		t.Fatal("identical files reported as different with pool bound 1")
	}
}

func TestDupCheckWorker_ChunkLargerThanFile(t *testing.T) {
	dir := t.TempDir()
	data := randomData(100)
	a := writeBytes(t, dir, "a.bin", data)
	b := writeBytes(t, dir, "b.bin", data)

	w := runDupCheck(t, a, b, 1<<20, 4)
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Identical() {
		t.Fatal("identical files reported as different with oversized chunk")
	}
}

func TestDupCheckWorker_MissingFile(t *testing.T) {
	dir := t.TempDir()
	a := writeBytes(t, dir, "a.bin", randomData(128))

	w := runDupCheck(t, a, filepath.Join(dir, "absent.bin"), 64, 2)
	err := w.Err()
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if herrors.GetCode(err) != herrors.CodeReadFailed {
		t.Fatalf("unexpected error code %s", herrors.GetCode(err))
	}
	if w.Identical() {
		t.Fatal("failed comparison must not report identical")
	}
}
