package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voucher-go/internal/config"
)

func newTestStore(t *testing.T) (*LocalVoucherImageStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "public", "images", "vouchers")
	return NewLocalVoucherImageStore(config.StorageConfig{
		LocalPath:       dir,
		PublicURLPrefix: "/images/vouchers",
	}), dir
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.EnsureDir(ctx); err != nil {
			t.Fatalf("EnsureDir #%d: %v", i, err)
		}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s, err=%v", dir, err)
	}
}

func TestStageAndCommit(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureDir(ctx); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	staged, err := store.Stage(ctx, strings.NewReader("png-bytes"), "orig.png", "image/png")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if staged.Size != int64(len("png-bytes")) {
		t.Errorf("staged size = %d", staged.Size)
	}
	if filepath.Dir(staged.TempPath) != dir {
		t.Errorf("temp file %s not inside %s", staged.TempPath, dir)
	}

	stored, err := store.Commit(ctx, staged, "voucher 1.png")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if stored.URL != "/images/vouchers/voucher%201.png" {
		t.Errorf("URL = %q", stored.URL)
	}
	data, err := os.ReadFile(filepath.Join(dir, "voucher 1.png"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("content = %q", data)
	}
	if _, err := os.Stat(staged.TempPath); !os.IsNotExist(err) {
		t.Errorf("temp file still present: %v", err)
	}
}

func TestCommitOverwritesExistingFile(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureDir(ctx)

	for _, content := range []string{"first", "second"} {
		staged, err := store.Stage(ctx, strings.NewReader(content), "a.png", "")
		if err != nil {
			t.Fatalf("Stage: %v", err)
		}
		if _, err := store.Commit(ctx, staged, "a.png"); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, "a.png"))
	if string(data) != "second" {
		t.Errorf("content = %q, want last write", data)
	}
}

func TestCommitFailureRemovesTempFile(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureDir(ctx)

	// 目标位置是一个非空目录，rename 必然失败
	if err := os.MkdirAll(filepath.Join(dir, "taken", "child"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	staged, err := store.Stage(ctx, strings.NewReader("x"), "x.png", "")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := store.Commit(ctx, staged, "taken"); err == nil {
		t.Fatal("expected Commit to fail")
	}
	if _, err := os.Stat(staged.TempPath); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, errors.New("connection reset") }

func TestStageUnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	store, dir := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureDir(ctx); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	_, err := store.Stage(ctx, strings.NewReader("data"), "a.png", "image/png")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Stage error = %v, want ErrStoreUnavailable", err)
	}
}

func TestCopyToStagingClassifiesErrors(t *testing.T) {
	if _, err := copyToStaging(failingWriter{}, strings.NewReader("data")); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("write failure: err = %v, want ErrStoreUnavailable", err)
	}

	var sink strings.Builder
	_, err := copyToStaging(&sink, failingReader{})
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("read failure: err = %v, want a non-store error", err)
	}
}

func TestDiscard(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureDir(ctx)

	staged, err := store.Stage(ctx, strings.NewReader("x"), "x.png", "")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	store.Discard(staged)
	store.Discard(staged)
	store.Discard(nil)
	if _, err := os.Stat(staged.TempPath); !os.IsNotExist(err) {
		t.Errorf("temp file still present: %v", err)
	}
}

func TestStageHonoursCanceledContext(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.EnsureDir(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Stage(ctx, strings.NewReader("x"), "x.png", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("Stage err = %v, want context.Canceled", err)
	}
}

func TestValidateFileName(t *testing.T) {
	valid := []string{"a.png", "voucher 1.jpeg", ".hidden", "名字.png", "a..b"}
	for _, name := range valid {
		if err := ValidateFileName(name); err != nil {
			t.Errorf("ValidateFileName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".", "..", "../a.png", "a/b.png", `a\b.png`, "a\x00.png", "/etc/passwd"}
	for _, name := range invalid {
		if err := ValidateFileName(name); !errors.Is(err, ErrInvalidFileName) {
			t.Errorf("ValidateFileName(%q) = %v, want ErrInvalidFileName", name, err)
		}
	}
}

func TestPublicURL(t *testing.T) {
	cases := map[string]string{
		"/images/vouchers":  "/images/vouchers/a.png",
		"/images/vouchers/": "/images/vouchers/a.png",
		"":                  "/a.png",
	}
	for base, want := range cases {
		if got := PublicURL(base, "a.png"); got != want {
			t.Errorf("PublicURL(%q) = %q, want %q", base, got, want)
		}
	}
}
