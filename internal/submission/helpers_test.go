package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// setupDB 为每个测试打开一个私有的内存SQLite库。
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 内存库按连接隔离，只能用一个连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// callLog 记录外部调用的先后顺序。
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type upload struct {
	Key         string
	Data        []byte
	ContentType string
}

type fakeUploader struct {
	log     *callLog
	err     error
	uploads []upload
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.log != nil {
		f.log.add("upload")
	}
	f.uploads = append(f.uploads, upload{Key: key, Data: data, ContentType: contentType})
	if f.err != nil {
		return "", f.err
	}
	return "https://test-bucket.s3.test-region.amazonaws.com/" + key, nil
}

// spyRepo 包装真实仓库以记录调用，并可注入失败。
type spyRepo struct {
	inner     Repository
	log       *callLog
	insertErr error
	listErr   error
	inserted  []Submission
}

func (r *spyRepo) Insert(ctx context.Context, s *Submission) (uint, error) {
	r.log.add("insert")
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, *s)
	if r.inner == nil {
		return uint(len(r.inserted)), nil
	}
	return r.inner.Insert(ctx, s)
}

func (r *spyRepo) ListAll(ctx context.Context) ([]Submission, error) {
	r.log.add("list")
	if r.listErr != nil {
		return nil, r.listErr
	}
	if r.inner == nil {
		return nil, nil
	}
	return r.inner.ListAll(ctx)
}

type recordedRequest struct {
	Endpoint string
	Duration time.Duration
}

// fakeRecorder 是同步的 telemetry.Recorder，便于断言。
type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	errors   []string
}

func (r *fakeRecorder) RecordRequest(endpoint string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{Endpoint: endpoint, Duration: d})
}

func (r *fakeRecorder) RecordError(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, label)
}

func (r *fakeRecorder) errorLabels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

var errDBDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
