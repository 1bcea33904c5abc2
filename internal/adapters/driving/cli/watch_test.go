package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUploadFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/posts.csv", true},
		{"/in/POSTS.CSV", true},
		{"/in/posts.csv.part", false},
		{"/in/.posts.csv", false},
		{"/in/notes.txt", false},
		{"/in/csv", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isUploadFile(tt.path))
		})
	}
}

func TestUploadQueue_HandleEvent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		path      string
		operation fsnotify.Op
		queued    bool
	}{
		{name: "create csv", path: "/in/a.csv", operation: fsnotify.Create, queued: true},
		{name: "write csv", path: "/in/a.csv", operation: fsnotify.Write, queued: true},
		{name: "write and chmod", path: "/in/a.csv", operation: fsnotify.Write | fsnotify.Chmod, queued: true},
		{name: "chmod only", path: "/in/a.csv", operation: fsnotify.Chmod, queued: false},
		{name: "create other file", path: "/in/a.txt", operation: fsnotify.Create, queued: false},
		{name: "create hidden csv", path: "/in/.a.csv", operation: fsnotify.Create, queued: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newUploadQueue(time.Second)

			q.handleEvent(fsnotify.Event{Name: tt.path, Op: tt.operation}, now)

			if tt.queued {
				assert.Equal(t, 1, q.len())
			} else {
				assert.Equal(t, 0, q.len())
			}
		})
	}
}

func TestUploadQueue_RemoveForgetsFile(t *testing.T) {
	now := time.Now()
	q := newUploadQueue(time.Second)

	q.handleEvent(fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Create}, now)
	q.handleEvent(fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Rename}, now)

	assert.Equal(t, 0, q.len())
}

func TestUploadQueue_DueAfterSettle(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	q := newUploadQueue(2 * time.Second)

	q.handleEvent(fsnotify.Event{Name: "/in/b.csv", Op: fsnotify.Create}, start)
	q.handleEvent(fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Create}, start)
	q.handleEvent(fsnotify.Event{Name: "/in/b.csv", Op: fsnotify.Write}, start.Add(time.Second))

	assert.Empty(t, q.due(start.Add(time.Second)))
	assert.Equal(t, []string{"/in/a.csv"}, q.due(start.Add(2*time.Second)))
	assert.Equal(t, []string{"/in/b.csv"}, q.due(start.Add(3*time.Second)))
	assert.Equal(t, 0, q.len())
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, time.Second, tickInterval(2*time.Second))
	assert.Equal(t, 100*time.Millisecond, tickInterval(50*time.Millisecond))
}

func TestWatchCmd_RequiresDirectory(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch.dir")
}

func TestWatchCmd_RejectsNonPositiveRate(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "watch", "--rate", "0", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rate")
}

func TestWatchCmd_IngestsExistingFiles(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	writeFile(t, dir, "brand.csv", testCSV)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// cobra only hands the root context to commands that have none yet.
	watchCmd.SetContext(ctx)
	t.Cleanup(func() {
		watchCmd.SetContext(context.Background())
		rootCmd.SetContext(context.Background())
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", "--existing", "--settle", "10ms", "--rate", "6000", dir})
	defer rootCmd.SetArgs(nil)

	done := make(chan error, 1)
	go func() {
		done <- rootCmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		freshness, err := queryService.Freshness(context.Background())
		return err == nil && freshness.Records == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
	assert.Contains(t, buf.String(), "brand.csv: native")
}
