package blob_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medflow/internal/blob"
)

func TestRecordingKey(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := blob.RecordingKey(now, "webm"); got != "recording_20250314_092653.webm" {
		t.Fatalf("key = %s", got)
	}
	if got := blob.RecordingKey(now, ""); got != "recording_20250314_092653.webm" {
		t.Fatalf("default ext key = %s", got)
	}
	if got := blob.RecordingKey(now, "wav"); !strings.HasSuffix(got, ".wav") {
		t.Fatalf("ext not honored: %s", got)
	}
}

func runStoreContract(t *testing.T, s blob.Store) {
	t.Helper()
	ctx := context.Background()

	info, err := s.Put(ctx, "recording_20250314_092653.webm", strings.NewReader("audio-bytes"), blob.PutOptions{
		ContentType: "audio/webm",
		Metadata:    map[string]string{"patient": "Michael_Chen"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("audio-bytes")) {
		t.Fatalf("size = %d", info.Size)
	}
	if info.ContentType != "audio/webm" {
		t.Fatalf("content type = %s", info.ContentType)
	}

	// create-only: a second write of the same key fails
	if _, err := s.Put(ctx, "recording_20250314_092653.webm", strings.NewReader("x"), blob.PutOptions{}); err == nil {
		t.Fatal("second put of same key succeeded")
	}

	got, rc, err := s.Get(ctx, "recording_20250314_092653.webm")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "audio-bytes" {
		t.Fatalf("get data = %q err=%v", data, err)
	}
	if got.Metadata["patient"] != "Michael_Chen" {
		t.Fatalf("metadata: %#v", got.Metadata)
	}

	head, err := s.Head(ctx, "recording_20250314_092653.webm")
	if err != nil || head.Size != info.Size {
		t.Fatalf("head: %+v err=%v", head, err)
	}

	if _, err := s.Put(ctx, "recording_20250314_093000.webm", strings.NewReader("more"), blob.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	infos, err := s.List(ctx, "recording_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key > infos[1].Key {
		t.Fatalf("list: %#v", infos)
	}

	deleted, err := s.Delete(ctx, "recording_20250314_093000.webm")
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.Delete(ctx, "recording_20250314_093000.webm")
	if err != nil || deleted {
		t.Fatalf("double delete: deleted=%v err=%v", deleted, err)
	}
}

func TestFilesystemStore(t *testing.T) {
	s, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	runStoreContract(t, s)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, blob.NewMemory())
}

func TestFilesystemSidecarLayout(t *testing.T) {
	root := t.TempDir()
	s, err := blob.NewFilesystem(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Put(context.Background(), "recording_20250314_092653.webm", strings.NewReader("audio"), blob.PutOptions{ContentType: "audio/webm"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "recording_20250314_092653.webm")); err != nil {
		t.Fatalf("data file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "recording_20250314_092653.webm.meta")); err != nil {
		t.Fatalf("meta sidecar missing: %v", err)
	}
}

func TestFilesystemRejectsTraversalKeys(t *testing.T) {
	s, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, key := range []string{"", "../escape", "/absolute"} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), blob.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestFilesystemPresignIsLocalURL(t *testing.T) {
	s, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	url, err := s.PresignURL(context.Background(), "recording_x.webm", blob.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://local.blob/") {
		t.Fatalf("url = %s", url)
	}
	if _, err := s.PresignURL(context.Background(), "k", blob.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatal("PUT presign accepted")
	}
}

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	t.Setenv("MEDFLOW_AUDIO_DRIVER", "memory")
	s, err := blob.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Driver() != blob.DriverMemory {
		t.Fatalf("driver = %s", s.Driver())
	}

	t.Setenv("MEDFLOW_AUDIO_DRIVER", "s3")
	t.Setenv("MEDFLOW_AUDIO_S3_BUCKET", "")
	if _, err := blob.Open(context.Background()); err == nil {
		t.Fatal("s3 driver without bucket accepted")
	}

	t.Setenv("MEDFLOW_AUDIO_DRIVER", "bogus")
	if _, err := blob.Open(context.Background()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
