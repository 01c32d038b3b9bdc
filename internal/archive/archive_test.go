package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/sandbox"
	"github.com/alfredjeanlab/sitenav/internal/store"
)

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func testArchive() *model.Archive {
	return &model.Archive{
		ID:      "sn-test",
		Source:  "http://localhost:8000",
		TakenAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Nodes: []model.NodeItem{
			{ID: "https://a.test", Label: "A <home>", Children: []string{"https://a.test/b"}},
			{ID: "https://a.test/b", Label: "B", Children: []string{"https://a.test"}},
		},
	}
}

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // *model.Archive
	err    error
}

func (d *mockDestination) Name() string { return "mock" }

func (d *mockDestination) Write(_ context.Context, a *model.Archive) error {
	d.writes.Add(1)
	d.last.Store(a)
	return d.err
}

// memStore is a minimal in-memory store.Store.
type memStore struct {
	mu       sync.Mutex
	archives map[string]*model.Archive
	keeps    []int
}

func (m *memStore) SaveArchive(_ context.Context, a *model.Archive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives[a.ID] = a
	return nil
}

func (m *memStore) GetArchive(_ context.Context, id string) (*model.Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.archives[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *memStore) ListArchives(context.Context, int) ([]model.ArchiveInfo, error) {
	return nil, nil
}

func (m *memStore) DeleteArchive(context.Context, string) error {
	return nil
}

func (m *memStore) PruneArchives(_ context.Context, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keeps = append(m.keeps, keep)
	return 0, nil
}

func (m *memStore) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	return fn(m)
}
func (m *memStore) Close() error { return nil }

func TestExportJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(testArchive(), &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Type != "header" || h.Version != "1" || h.NodeCount != 2 || h.ID != "sn-test" {
		t.Errorf("unexpected header: %+v", h)
	}
	if !strings.Contains(lines[1], `"label":"A <home>"`) {
		t.Errorf("HTML escaped in node line: %s", lines[1])
	}

	got, err := ImportJSONL(&buf)
	if err != nil {
		t.Fatalf("ImportJSONL: %v", err)
	}
	want := testArchive()
	if got.ID != want.ID || got.Source != want.Source || !got.TakenAt.Equal(want.TakenAt) {
		t.Errorf("import header mismatch: %+v", got)
	}
	if !reflect.DeepEqual(got.Nodes, want.Nodes) {
		t.Errorf("import nodes mismatch:\ngot  %+v\nwant %+v", got.Nodes, want.Nodes)
	}
}

func TestImportJSONL_Errors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"NoHeader", `{"type":"node","data":{"id":"a"}}`},
		{"BadVersion", `{"type":"header","version":"9","node_count":0}`},
		{"ShortBody", `{"type":"header","version":"1","node_count":2}` + "\n" + `{"type":"node","data":{"id":"a"}}`},
		{"BadNode", `{"type":"header","version":"1","node_count":1}` + "\n" + `{"type":"node","data":"oops"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ImportJSONL(strings.NewReader(tc.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.jsonl")
	dest := &FileDestination{Path: path}
	if err := dest.Write(context.Background(), testArchive()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	got, err := ImportJSONL(f)
	if err != nil {
		t.Fatalf("ImportJSONL: %v", err)
	}
	if got.ID != "sn-test" || len(got.Nodes) != 2 {
		t.Errorf("got %+v", got)
	}

	var out bytes.Buffer
	stdout := &FileDestination{Path: "-", Out: &out}
	if err := stdout.Write(context.Background(), testArchive()); err != nil {
		t.Fatalf("Write(-): %v", err)
	}
	if len(nonEmptyLines(out.String())) != 3 {
		t.Errorf("stdout destination wrote:\n%s", out.String())
	}
}

func TestWriteAll_ReportsFailureButWritesEverywhere(t *testing.T) {
	ok := &mockDestination{}
	bad := &mockDestination{err: errors.New("bucket gone")}
	ms := &memStore{archives: map[string]*model.Archive{}}

	err := WriteAll(context.Background(), testArchive(), []Destination{ok, bad, &StoreDestination{Store: ms}})
	if err == nil || !strings.Contains(err.Error(), "bucket gone") {
		t.Fatalf("err = %v", err)
	}
	if ok.writes.Load() != 1 || bad.writes.Load() != 1 {
		t.Errorf("writes ok=%d bad=%d", ok.writes.Load(), bad.writes.Load())
	}
	if _, err := ms.GetArchive(context.Background(), "sn-test"); err != nil {
		t.Errorf("store destination skipped: %v", err)
	}
}

func TestStoreDestination_Prunes(t *testing.T) {
	for _, tc := range []struct {
		keep int
		want []int
	}{
		{keep: 0, want: nil},
		{keep: 5, want: []int{5}},
	} {
		ms := &memStore{archives: map[string]*model.Archive{}}
		d := &StoreDestination{Store: ms, Keep: tc.keep}
		if err := d.Write(context.Background(), testArchive()); err != nil {
			t.Fatalf("keep=%d: Write: %v", tc.keep, err)
		}
		if !slices.Equal(ms.keeps, tc.want) {
			t.Errorf("keep=%d: prune calls = %v, want %v", tc.keep, ms.keeps, tc.want)
		}
	}
}

func newSeededBackend(t *testing.T) client.Backend {
	t.Helper()
	srv := sandbox.New(sandbox.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv.Seed(testArchive().Nodes)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return client.NewHTTPClient(ts.URL)
}

func TestSchedulerRunOnce(t *testing.T) {
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := NewScheduler(newSeededBackend(t), "sandbox", []Destination{dest}, time.Minute, logger)

	a, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !strings.HasPrefix(a.ID, "sn-") || a.Source != "sandbox" || len(a.Nodes) != 2 {
		t.Errorf("archive = %+v", a)
	}
	if dest.writes.Load() != 1 {
		t.Errorf("writes = %d", dest.writes.Load())
	}
}

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := NewScheduler(newSeededBackend(t), "sandbox", []Destination{dest}, 50*time.Millisecond, logger)
	sched.Start()

	// Wait for at least the initial archive + one tick.
	time.Sleep(150 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}
	last, _ := dest.last.Load().(*model.Archive)
	if last == nil || len(last.Nodes) != 2 {
		t.Fatalf("last archive = %+v", last)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := NewScheduler(nil, "", nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestObjectKey(t *testing.T) {
	a := &model.Archive{ID: "sn-abc", TakenAt: time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC)}
	for _, tc := range []struct {
		key  string
		want string
	}{
		{"sitenav/snapshot.jsonl", "sitenav/snapshot.jsonl"},
		{"sitenav/{id}.jsonl", "sitenav/sn-abc.jsonl"},
		{"sitenav/{date}/{id}.jsonl", "sitenav/2026-05-04/sn-abc.jsonl"},
	} {
		if got := ObjectKey(tc.key, a); got != tc.want {
			t.Errorf("ObjectKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
