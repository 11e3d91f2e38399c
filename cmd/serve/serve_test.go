package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/sapling/componenttree"
)

func TestBroker_PublishAndSubscribe(t *testing.T) {
	b := newBroker()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	b.publish(`[{"type":"parsed-data"}]`)

	select {
	case got := <-ch:
		assert.Equal(t, `[{"type":"parsed-data"}]`, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestBroker_NewSubscriberReceivesLatest(t *testing.T) {
	b := newBroker()
	b.publish(`[{"type":"settings-data"}]`)

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	select {
	case got := <-ch:
		assert.Equal(t, `[{"type":"settings-data"}]`, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for latest message")
	}
}

func TestBroker_PublishSnapshotEmitsBothMessages(t *testing.T) {
	b := newBroker()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	b.publishSnapshot(componenttree.Snapshot{
		Tree: &componenttree.Tree{
			EntryFilePath: "/app/src/index.tsx",
			Root:          &componenttree.Node{ID: "n1", FilePath: "/app/src/index.tsx", Name: "App"},
		},
		Settings: componenttree.Settings{AppRoot: "/app"},
	})

	select {
	case got := <-ch:
		var messages []updateMessage
		require.NoError(t, json.Unmarshal([]byte(got), &messages))
		require.Len(t, messages, 2)
		assert.Equal(t, messageParsedData, messages[0].Type)
		require.NotNil(t, messages[0].Tree)
		assert.Equal(t, messageSettingsData, messages[1].Type)
		require.NotNil(t, messages[1].Settings)
		assert.Equal(t, "/app", messages[1].Settings.AppRoot)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestIsRelevantChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{
			name:  "tsx write",
			event: fsnotify.Event{Name: "/app/src/App.tsx", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "js create",
			event: fsnotify.Event{Name: "/app/src/helper.js", Op: fsnotify.Create},
			want:  true,
		},
		{
			name:  "chmod only",
			event: fsnotify.Event{Name: "/app/src/App.tsx", Op: fsnotify.Chmod},
			want:  false,
		},
		{
			name:  "unrelated extension",
			event: fsnotify.Event{Name: "/app/src/logo.svg", Op: fsnotify.Write},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRelevantChange(tt.event))
		})
	}
}

func writeSampleApp(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	entry := filepath.Join(root, "index.tsx")
	require.NoError(t, os.WriteFile(entry, []byte(`
import Header from './Header';

export default function App() {
  return <Header />;
}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Header.tsx"), []byte(`
export default function Header() {
  return <h1>hi</h1>;
}
`), 0644))
	return root, entry
}

func testStoreAt(t *testing.T, root, entry string) *componenttree.Store {
	t.Helper()
	store := componenttree.NewStore(componenttree.OSWorkspace(), nil)
	store.SetEntryFile(entry)
	require.NoError(t, store.UpdateSettings("appRoot", root))
	return store
}

func testStore(t *testing.T) *componenttree.Store {
	t.Helper()
	root, entry := writeSampleApp(t)
	return testStoreAt(t, root, entry)
}

func TestWatchAndUpdate_WatchesNewDirectories(t *testing.T) {
	root, entry := writeSampleApp(t)
	store := testStoreAt(t, root, entry)
	_, err := store.Parse()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watchAndUpdate(ctx, root, store, log.New(io.Discard))
	}()
	time.Sleep(200 * time.Millisecond)

	// A directory created after the watcher started must itself be watched.
	sub := filepath.Join(root, "widgets")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(300 * time.Millisecond)

	widget := filepath.Join(sub, "Widget.tsx")
	require.NoError(t, os.WriteFile(widget, []byte(`
export default function Widget() { return <div />; }
`), 0644))
	require.NoError(t, os.WriteFile(entry, []byte(`
import Header from './Header';
import Widget from './widgets/Widget';

export default function App() {
  return <Header />;
}
`), 0644))

	require.Eventually(t, func() bool {
		tree := store.GetTree()
		return tree != nil && len(tree.Root.Children) == 2
	}, 5*time.Second, 50*time.Millisecond, "entry rewrite never reached the store")

	// Edits inside the new directory only arrive if it was registered.
	require.NoError(t, os.WriteFile(widget, []byte(`
export default function Gadget() { return <div />; }
`), 0644))

	require.Eventually(t, func() bool {
		tree := store.GetTree()
		if tree == nil {
			return false
		}
		for _, child := range tree.Root.Children {
			if child.FilePath == widget && child.Name == "Gadget" {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond, "change in new directory never reached the store")

	cancel()
	require.NoError(t, <-done)
}

func TestHandleToggle(t *testing.T) {
	store := testStore(t)
	tree, err := store.Parse()
	require.NoError(t, err)
	headerID := tree.Root.Children[0].ID

	body, err := json.Marshal(toggleRequest{ID: headerID, Expanded: true})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, routeToggle, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handleToggle(store)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.GetTree().Root.Children[0].Expanded)
}

func TestHandleToggle_RejectsGet(t *testing.T) {
	store := testStore(t)

	req := httptest.NewRequest(http.MethodGet, routeToggle, nil)
	rec := httptest.NewRecorder()
	handleToggle(store)(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSettings(t *testing.T) {
	store := testStore(t)

	body, err := json.Marshal(settingsRequest{Key: "useAlias", Value: "true"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, routeSettings, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handleSettings(store)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.Settings().UseAlias)
}

func TestHandleParse_InvalidSettings(t *testing.T) {
	store := componenttree.NewStore(componenttree.OSWorkspace(), nil)
	store.SetEntryFile("/tmp/whatever.tsx")

	req := httptest.NewRequest(http.MethodPost, routeParse, nil)
	rec := httptest.NewRecorder()
	handleParse(store)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleTree(t *testing.T) {
	store := testStore(t)
	_, err := store.Parse()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, routeTree, nil)
	rec := httptest.NewRecorder()
	handleTree(store)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot componenttree.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.NotNil(t, snapshot.Tree)
	assert.Equal(t, "App", snapshot.Tree.Root.Name)
}
