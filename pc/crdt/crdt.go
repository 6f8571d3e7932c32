// Package crdt binds the document layer's collaborative-editing contract to
// automerge-go: each .pc source file is one Automerge document with a
// single "source" text field, giving every connected client a
// conflict-free merge of concurrent edits without a central lock.
package crdt

import (
	"github.com/automerge/automerge-go"
)

const sourceKey = "source"

// Doc wraps one Automerge document scoped to a single .pc file's source
// text. It is safe to hold across a session's lifetime. Splice returns only
// an error; the local changes it made are collected with SaveIncremental.
type Doc struct {
	am *automerge.Doc
}

// New creates an empty Doc seeded with initial as the starting source text.
func New(initial string) (*Doc, error) {
	am := automerge.New()
	if err := am.Path(sourceKey).Set(initial); err != nil {
		return nil, err
	}
	return &Doc{am: am}, nil
}

// Load reconstructs a Doc from a previously saved full document snapshot
// (Doc.Save), e.g. when rehydrating from storage.Log.
func Load(snapshot []byte) (*Doc, error) {
	am, err := automerge.Load(snapshot)
	if err != nil {
		return nil, err
	}
	return &Doc{am: am}, nil
}

// Text returns the document's current source text.
func (d *Doc) Text() (string, error) {
	v, err := d.am.Path(sourceKey).Get()
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

// Splice applies an insert/delete at a UTF-8 rune offset into the source
// text, matching the text CRDT semantics automerge-go exposes: delete
// deleteCount runes starting at pos, then insert insert at pos.
func (d *Doc) Splice(pos, deleteCount int, insert string) error {
	text, err := d.am.Path(sourceKey).Text()
	if err != nil {
		return err
	}
	return text.Splice(pos, deleteCount, insert)
}

// GenerateSyncMessage produces the next outgoing sync message for peer
// state s, or nil if there is nothing new to send. s is mutated in place
// and is kept per peer by the caller.
func (d *Doc) GenerateSyncMessage(s *automerge.SyncState) []byte {
	msg, valid := s.GenerateMessage()
	if !valid {
		return nil
	}
	return msg.Bytes()
}

// ReceiveSyncMessage applies an incoming sync message from a peer,
// updating s in place for further GenerateSyncMessage calls.
func (d *Doc) ReceiveSyncMessage(s *automerge.SyncState, msg []byte) error {
	sm, err := automerge.LoadSyncMessage(msg)
	if err != nil {
		return err
	}
	return s.ReceiveMessage(sm)
}

// NewSyncState creates a fresh per-peer sync state for a newly connected
// client.
func (d *Doc) NewSyncState() *automerge.SyncState {
	return automerge.NewSyncState(d.am)
}

// Save serializes the full document, suitable for storage.Log persistence
// or cold-starting a new peer instead of running a full sync handshake.
func (d *Doc) Save() []byte {
	return d.am.Save()
}

// LoadIncremental applies a compacted change set produced by another
// replica's Save/SaveIncremental, used when replaying a persisted update
// log on process restart.
func (d *Doc) LoadIncremental(changes []byte) (int, error) {
	return d.am.LoadIncremental(changes)
}

// SaveIncremental returns the changes accumulated since the last
// Save/SaveIncremental call, the unit storage.Log appends per accepted
// mutation: replaying every entry through LoadIncremental, in order,
// reconstructs the document byte-for-byte.
func (d *Doc) SaveIncremental() []byte {
	return d.am.SaveIncremental()
}
