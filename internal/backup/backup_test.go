package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mpavliv/respectled/internal/database"
	"github.com/mpavliv/respectled/internal/store"
)

// fakeS3 stores objects in memory.
type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func setupBackupTest(t *testing.T) (*Manager, *fakeS3, *store.BackupStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	cfg := Config{
		Bucket:        "test-bucket",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Passphrase:    "household-secret",
		DBPath:        dbPath,
		RetentionDays: 30,
	}
	m := NewManager(cfg, db, bs, slog.New(slog.DiscardHandler))
	fake := newFakeS3()
	m.client = fake
	return m, fake, bs
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	m := NewManager(Config{}, db, store.NewBackupStore(db), slog.New(slog.DiscardHandler))
	if m.Enabled() {
		t.Error("expected disabled manager without config")
	}
	if _, err := m.Run(context.Background()); err == nil {
		t.Error("expected error from Run on disabled manager")
	}
}

func TestRunUploadsEncryptedSnapshot(t *testing.T) {
	m, fake, bs := setupBackupTest(t)

	id, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := bs.GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil {
		t.Fatal("expected backup record")
	}

	data, ok := fake.objects[record.S3Key]
	if !ok {
		t.Fatalf("expected object at %s", record.S3Key)
	}
	if int64(len(data)) != record.SizeBytes {
		t.Errorf("size = %d, want %d", len(data), record.SizeBytes)
	}

	// The uploaded bytes must not be a readable SQLite file.
	if bytes.HasPrefix(data, []byte("SQLite format 3")) {
		t.Error("uploaded snapshot is not encrypted")
	}

	// Round trip: decrypt and verify the SQLite header.
	dir := t.TempDir()
	encPath := filepath.Join(dir, "dl.enc")
	decPath := filepath.Join(dir, "dl.db")
	os.WriteFile(encPath, data, 0600)
	if err := DecryptFile(encPath, decPath, "household-secret"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	plain, _ := os.ReadFile(decPath)
	if !bytes.HasPrefix(plain, []byte("SQLite format 3")) {
		t.Error("decrypted snapshot is not a SQLite database")
	}
}

func TestDownload(t *testing.T) {
	m, _, _ := setupBackupTest(t)

	id, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, size, err := m.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if int64(len(data)) != size {
		t.Errorf("downloaded %d bytes, want %d", len(data), size)
	}
}

func TestDownloadMissing(t *testing.T) {
	m, _, _ := setupBackupTest(t)

	if _, _, err := m.Download(context.Background(), 999); err == nil {
		t.Error("expected error for missing backup")
	}
}

func TestCleanupDeletesOldBackups(t *testing.T) {
	m, fake, bs := setupBackupTest(t)

	id, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	record, _ := bs.GetByID(id)

	// Age the record past retention.
	old := time.Now().UTC().AddDate(0, 0, -60)
	if _, err := m.db.Exec("UPDATE backups SET created_at = ? WHERE id = ?", old, id); err != nil {
		t.Fatalf("age record: %v", err)
	}

	if err := m.Cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, ok := fake.objects[record.S3Key]; ok {
		t.Error("expected S3 object deleted")
	}
	got, _ := bs.GetByID(id)
	if got != nil {
		t.Error("expected record deleted")
	}
}
