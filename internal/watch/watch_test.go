package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/netgraph/pkg/graphdata"
)

type recorder struct {
	mu    sync.Mutex
	loads []graphdata.Data
}

func (r *recorder) reload(d graphdata.Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, d)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loads)
}

func (r *recorder) last() graphdata.Data {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[len(r.loads)-1]
}

const twoNodes = `{"nodes":[{"id":"a","label":"A"},{"id":"b","label":"B"}],"links":[{"source_id":"a","target_id":"b"}]}`

func start(t *testing.T, path string, rec *recorder) {
	t.Helper()
	w, err := New(path, rec.reload, logr.Discard())
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nodes":[],"links":[]}`), 0o644))

	rec := &recorder{}
	start(t, path, rec)

	require.NoError(t, os.WriteFile(path, []byte(twoNodes), 0o644))
	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, rec.last().Nodes, 2)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(twoNodes), 0o644))

	rec := &recorder{}
	start(t, path, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(twoNodes), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestWatcher_KeepsDataOnDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(twoNodes), 0o644))

	rec := &recorder{}
	start(t, path, rec)

	require.NoError(t, os.WriteFile(path, []byte(`{"nodes":[`), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, rec.count())

	require.NoError(t, os.WriteFile(path, []byte(twoNodes), 0o644))
	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "graph.json"), (&recorder{}).reload, logr.Discard())
	assert.Error(t, err)
}
