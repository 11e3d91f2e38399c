package componenttree

import (
	"encoding/json"
	"sync"
)

// Snapshot is what the store emits after any mutating operation: the current
// tree (possibly nil) and the current settings, ready to render or persist.
type Snapshot struct {
	Tree     *Tree    `json:"tree,omitempty"`
	Settings Settings `json:"settings"`
}

// persistedState is the blob handed to Storage. EntryFile is carried
// separately from the tree because an entry file can be set before any
// successful parse.
type persistedState struct {
	EntryFile string   `json:"entryFile"`
	Settings  Settings `json:"settings"`
	Tree      *Tree    `json:"tree,omitempty"`
}

// Store owns the current tree, settings, and entry file. It is the only
// mutable state of the engine; all mutation goes through its operations.
// Readers always observe either the previous complete tree or the next one:
// the tree reference is swapped only at the end of a successful build, and no
// lock is held across file reads.
type Store struct {
	mu        sync.Mutex
	ws        Workspace
	storage   Storage
	builder   *Builder
	settings  Settings
	entryFile string
	tree      *Tree
	// buildSeq implements last-writer-wins: a build whose sequence is stale
	// by the time it completes is discarded.
	buildSeq   uint64
	onSnapshot func(Snapshot)
}

// NewStore creates a store and restores any previously persisted state.
// A corrupt or missing blob starts the store fresh rather than failing.
func NewStore(ws Workspace, storage Storage) *Store {
	s := &Store{
		ws:       ws,
		storage:  storage,
		builder:  NewBuilder(ws),
		settings: DefaultSettings(),
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.storage == nil {
		return
	}
	blob, err := s.storage.Load()
	if err != nil || len(blob) == 0 {
		return
	}
	var state persistedState
	if err := json.Unmarshal(blob, &state); err != nil {
		return
	}
	s.entryFile = state.EntryFile
	s.settings = state.Settings
	s.tree = state.Tree
}

// OnSnapshot registers a callback invoked after every mutating operation.
func (s *Store) OnSnapshot(fn func(Snapshot)) {
	s.mu.Lock()
	s.onSnapshot = fn
	s.mu.Unlock()
}

// SetEntryFile records which file future Parse calls start from. It does not
// itself trigger parsing.
func (s *Store) SetEntryFile(path string) {
	s.mu.Lock()
	s.entryFile = path
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snapshot)
}

// UpdateSettings mutates a single settings field. It never auto-reparses.
func (s *Store) UpdateSettings(key, value string) error {
	s.mu.Lock()
	if err := s.settings.Update(key, value); err != nil {
		s.mu.Unlock()
		return err
	}
	// Any in-flight build resolved against stale settings; its result must
	// not land.
	s.buildSeq++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snapshot)
	return nil
}

// ValidSettings reports whether the current settings allow a parse.
func (s *Store) ValidSettings() bool {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	return settings.Valid(s.ws)
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// GetTree returns a deep copy of the stored tree, or nil when no parse has
// succeeded yet.
func (s *Store) GetTree() *Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

// Parse builds a fresh tree from the entry file and replaces the stored one.
// New ids are minted for every node. Fails with ErrNoEntryFile or
// ErrInvalidSettings without touching the stored tree.
func (s *Store) Parse() (*Tree, error) {
	s.mu.Lock()
	if s.entryFile == "" {
		s.mu.Unlock()
		return nil, ErrNoEntryFile
	}
	entryFile, settings := s.entryFile, s.settings
	s.buildSeq++
	seq := s.buildSeq
	s.mu.Unlock()

	if !settings.Valid(s.ws) {
		return nil, ErrInvalidSettings
	}

	tree, err := s.builder.Build(entryFile, settings)
	if err != nil {
		return nil, err
	}

	return s.install(tree, seq), nil
}

// UpdateTree incrementally rebuilds the subtrees rooted at nodes for
// changedFilePath. It is a no-op when no tree is stored.
func (s *Store) UpdateTree(changedFilePath string) (*Tree, error) {
	s.mu.Lock()
	if s.tree == nil {
		s.mu.Unlock()
		return nil, nil
	}
	// RebuildSubtree walks the old tree outside the lock, and ToggleNode
	// mutates stored nodes in place, so the rebuild gets its own copy.
	current := s.tree.Clone()
	settings := s.settings
	s.buildSeq++
	seq := s.buildSeq
	s.mu.Unlock()

	tree, err := s.builder.RebuildSubtree(current, changedFilePath, settings)
	if err != nil {
		return nil, err
	}

	return s.install(tree, seq), nil
}

// install atomically publishes a completed tree unless a newer build or
// settings change superseded it while it was in flight.
func (s *Store) install(tree *Tree, seq uint64) *Tree {
	s.mu.Lock()
	if seq != s.buildSeq {
		// Superseded: discard this result, last writer wins.
		previous := s.tree.Clone()
		s.mu.Unlock()
		return previous
	}
	s.tree = tree
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snapshot)
	return tree.Clone()
}

// ToggleNode sets the expanded flag on the node with the given id and returns
// the updated tree. An unknown id is a silent no-op: the node may have been
// dropped by a prior rebuild, which is expected rather than an error.
func (s *Store) ToggleNode(id string, expanded bool) *Tree {
	s.mu.Lock()
	node := s.tree.Find(id)
	if node == nil {
		tree := s.tree.Clone()
		s.mu.Unlock()
		return tree
	}
	node.Expanded = expanded
	snapshot := s.snapshotLocked()
	tree := s.tree.Clone()
	s.mu.Unlock()

	s.emit(snapshot)
	return tree
}

// snapshotLocked must be called with s.mu held.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Tree: s.tree.Clone(), Settings: s.settings}
}

// emit persists the snapshot and notifies the subscriber. Runs without the
// store lock so callbacks may call back into the store.
func (s *Store) emit(snapshot Snapshot) {
	s.persist(snapshot)
	s.mu.Lock()
	fn := s.onSnapshot
	s.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

func (s *Store) persist(snapshot Snapshot) {
	if s.storage == nil {
		return
	}
	s.mu.Lock()
	state := persistedState{
		EntryFile: s.entryFile,
		Settings:  snapshot.Settings,
		Tree:      snapshot.Tree,
	}
	s.mu.Unlock()

	blob, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = s.storage.Save(blob)
}
