package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/config"
	"github.com/Veraticus/memoflow/internal/engine"
	"github.com/Veraticus/memoflow/internal/llm"
	"github.com/Veraticus/memoflow/internal/status"
	"github.com/Veraticus/memoflow/internal/storage"
	"github.com/Veraticus/memoflow/internal/worker"
)

// fakeOllama answers every generate call with reply and counts calls.
func fakeOllama(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": reply, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// useSettings points the package-level settings at a temp database and a
// fake model server for the duration of the test.
func useSettings(t *testing.T, modelURL string) string {
	t.Helper()
	previous := settings
	t.Cleanup(func() { settings = previous })

	dbPath := filepath.Join(t.TempDir(), "memoflow.db")
	sched := worker.DefaultSchedulerConfig()
	sched.InitialBackoff = 10 * time.Millisecond
	sched.MaxBackoff = 50 * time.Millisecond

	settings = config.Settings{
		DatabasePath: dbPath,
		Locale:       "en",
		LLM: llm.Config{
			Provider:    "ollama",
			BaseURL:     modelURL,
			MaxRetries:  1,
			RetryDelay:  time.Millisecond,
			CallTimeout: 2 * time.Second,
			RateLimit:   1000,
		},
		Engine:     engine.DefaultConfig(),
		Scheduler:  sched,
		SweepCron:  worker.DefaultSweepSchedule,
		Thresholds: status.ReleaseThresholds,
	}
	return dbPath
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func openStore(t *testing.T, path string) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCaptureText(t *testing.T) {
	srv, _ := fakeOllama(t, "Recipes")
	dbPath := useSettings(t, srv.URL)

	out, err := execute(t, captureCmd(), "text", "miso ramen with extra egg", "--source", "Notes")
	require.NoError(t, err)
	assert.Contains(t, out, "Filed under Recipes")

	memos, err := openStore(t, dbPath).GetAllMemos(context.Background())
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, "Recipes", memos[0].Category)
	assert.Equal(t, "Notes", memos[0].SourceApp)

	_, err = execute(t, captureCmd(), "text", "miso ramen with extra egg")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCaptureSharedURL(t *testing.T) {
	srv, _ := fakeOllama(t, "Travel")
	dbPath := useSettings(t, srv.URL)

	_, err := execute(t, captureCmd(), "text", "Osaka guide", "https://example.com/osaka.")
	require.NoError(t, err)

	memo, err := openStore(t, dbPath).FindMemoByContent(context.Background(), "https://example.com/osaka")
	require.NoError(t, err)
	require.NotNil(t, memo)
	assert.Equal(t, "WEB_SITE", string(memo.MemoType))
}

func TestCaptureWithUnavailableModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	useSettings(t, srv.URL)

	out, err := execute(t, captureCmd(), "text", "something unclassifiable")
	require.NoError(t, err)
	assert.Contains(t, out, "Failure")
}

func TestCategoriesCustom(t *testing.T) {
	useSettings(t, "http://127.0.0.1:1")

	_, err := execute(t, categoriesCmd(), "custom", "add", "Side", "Projects")
	require.NoError(t, err)

	out, err := execute(t, categoriesCmd(), "custom", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Side Projects")

	out, err = execute(t, categoriesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Side Projects")

	_, err = execute(t, categoriesCmd(), "custom", "remove", "side projects")
	require.NoError(t, err)
	out, err = execute(t, categoriesCmd(), "custom", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Side Projects")
}

func TestStatusCommands(t *testing.T) {
	useSettings(t, "http://127.0.0.1:1")
	settings.Thresholds = status.DebugThresholds

	_, err := execute(t, statusCmd(), "add", "kindness", "2")
	require.NoError(t, err)

	out, err := execute(t, statusCmd(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "kindness")
	assert.Contains(t, out, "Status: kindness")

	_, err = execute(t, statusCmd(), "add", "charisma", "1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = execute(t, statusCmd(), "add", "kindness", "lots")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMemosLockAndDelete(t *testing.T) {
	srv, _ := fakeOllama(t, "Recipes")
	dbPath := useSettings(t, srv.URL)

	_, err := execute(t, captureCmd(), "text", "shoyu ramen")
	require.NoError(t, err)
	memos, err := openStore(t, dbPath).GetAllMemos(context.Background())
	require.NoError(t, err)
	require.Len(t, memos, 1)
	id := memos[0].ID

	_, err = execute(t, memosCmd(), "lock", id)
	require.NoError(t, err)

	out, err := execute(t, memosCmd(), "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "shoyu ramen")

	out, err = execute(t, memosCmd(), "list", "--category", "recipes")
	require.NoError(t, err)
	assert.Contains(t, out, "shoyu ramen")

	_, err = execute(t, memosCmd(), "delete", id)
	require.NoError(t, err)
	_, err = execute(t, memosCmd(), "show", id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReanalyzeFailures(t *testing.T) {
	var reply atomic.Value
	reply.Store("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r := reply.Load().(string)
		if r == "" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": r, "done": true})
	}))
	defer srv.Close()
	dbPath := useSettings(t, srv.URL)

	_, err := execute(t, captureCmd(), "text", "train to kyoto at 9")
	require.NoError(t, err)

	reply.Store("Travel")
	out, err := execute(t, reanalyzeCmd(), "--failures")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-categorized 1 memos, 0 still failing")

	memos, err := openStore(t, dbPath).GetAllMemos(context.Background())
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, "Travel", memos[0].Category)

	out, err = execute(t, snapshotCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "auto-reanalyze-")
}

func TestWorkerDrainsStdin(t *testing.T) {
	srv, _ := fakeOllama(t, "Recipes")
	dbPath := useSettings(t, srv.URL)

	cmd := workerCmd()
	cmd.SetIn(strings.NewReader("udon broth ratio\n\nsoba dipping sauce\n"))
	out, err := execute(t, cmd, "--no-sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "capture done")

	memos, err := openStore(t, dbPath).GetAllMemos(context.Background())
	require.NoError(t, err)
	assert.Len(t, memos, 2)
}

func TestSnapshotCommands(t *testing.T) {
	useSettings(t, "http://127.0.0.1:1")

	out, err := execute(t, snapshotCmd(), "create", "--id", "manual-one", "--reason", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "manual-one")

	_, err = execute(t, snapshotCmd(), "create", "--id", "manual-one")
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	_, err = execute(t, snapshotCmd(), "restore", "manual-one")
	require.NoError(t, err)
	_, err = execute(t, snapshotCmd(), "delete", "manual-one")
	require.NoError(t, err)
	_, err = execute(t, snapshotCmd(), "delete", "manual-one")
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
}

func TestMigrateStatus(t *testing.T) {
	useSettings(t, "http://127.0.0.1:1")

	out, err := execute(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Migrations pending")

	_, err = execute(t, migrateCmd())
	require.NoError(t, err)
	out, err = execute(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Migrations pending")
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}
