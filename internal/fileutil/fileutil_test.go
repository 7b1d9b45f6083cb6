package fileutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	in := []map[string]any{{"name": "Oldboy", "year": 2003}}
	if err := WriteJSONAtomic(path, in); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}

	var out []map[string]any
	ok, err := ReadJSON(path, &out)
	if err != nil || !ok {
		t.Fatalf("ReadJSON: ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || out[0]["name"] != "Oldboy" {
		t.Fatalf("unexpected content %v", out)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestReadJSONMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	var out []string
	ok, err := ReadJSON(filepath.Join(dir, "absent.json"), &out)
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = ReadJSON(empty, &out)
	if err != nil || ok {
		t.Fatalf("empty file: ok=%v err=%v", ok, err)
	}
}

func TestReadJSONInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out []string
	if _, err := ReadJSON(path, &out); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWithLockSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(ctx, path, func() error {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()
	if overlap {
		t.Fatal("lock holders overlapped")
	}
}

func TestWithLockHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = WithLock(context.Background(), path, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := WithLock(ctx, path, func() error { return nil }); err == nil {
		t.Fatal("expected lock acquisition to fail after context deadline")
	}
}
