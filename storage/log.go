package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// BucketCRDTLog is the NATS KV bucket name for the CRDT log backend.
const BucketCRDTLog = "PCFORGE_CRDT_LOG"

// getOrCreateBucket fetches the named KV bucket, creating it with a short
// revision history if it doesn't exist yet.
func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("pcforge %s storage", strings.ToLower(name)),
		History:     5,
	})
}

// LogEntry is one append-only record in a Document's CRDT update log: an
// opaque update blob (an automerge.Doc.SaveIncremental change set) plus
// the sequence number it was appended at.
type LogEntry struct {
	Seq       int       `json:"seq"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is an append-only, per-document store of CRDT update blobs. Replaying
// every entry for a path, in Seq order, through a fresh CRDT document
// reconstructs its text byte-for-byte, satisfying the "replay from empty
// yields byte-equal text" property.
type Log interface {
	// Append records data as the next entry for path and returns its
	// sequence number.
	Append(ctx context.Context, path string, data []byte) (int, error)
	// Entries returns every recorded entry for path, in Seq order.
	Entries(ctx context.Context, path string) ([]LogEntry, error)
}

// MemoryLog is an in-process Log, useful for tests and single-process
// embedding where durability across restarts is not required.
type MemoryLog struct {
	mu      sync.Mutex
	entries map[string][]LogEntry
}

// NewMemoryLog creates an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string][]LogEntry)}
}

func (l *MemoryLog) Append(_ context.Context, path string, data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := len(l.entries[path]) + 1
	cp := make([]byte, len(data))
	copy(cp, data)
	l.entries[path] = append(l.entries[path], LogEntry{Seq: seq, Data: cp, CreatedAt: time.Now()})
	return seq, nil
}

func (l *MemoryLog) Entries(_ context.Context, path string) ([]LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, len(l.entries[path]))
	copy(out, l.entries[path])
	return out, nil
}

// FileLog is a Log backed by one append-only file per document path under
// root, each record length-prefixed so Entries can stream them back in
// order without a separate index.
type FileLog struct {
	root string
	mu   sync.Mutex
}

// NewFileLog creates a FileLog rooted at root, creating the directory if
// it doesn't exist.
func NewFileLog(root string) (*FileLog, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create log root: %w", err)
	}
	return &FileLog{root: root}, nil
}

func (l *FileLog) pathFor(docPath string) string {
	name := strings.ReplaceAll(docPath, string(filepath.Separator), "_")
	return filepath.Join(l.root, name+".log")
}

// record layout: 8 bytes seq, 8 bytes unix-nano timestamp, 4 bytes length,
// then length bytes of data.
func (l *FileLog) Append(_ context.Context, docPath string, data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.readAll(docPath)
	if err != nil {
		return 0, err
	}
	seq := len(existing) + 1

	f, err := os.OpenFile(l.pathFor(docPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var header [20]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(seq))
	binary.BigEndian.PutUint64(header[8:16], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	if _, err := f.Write(header[:]); err != nil {
		return 0, fmt.Errorf("write log header: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return 0, fmt.Errorf("write log data: %w", err)
	}
	return seq, nil
}

func (l *FileLog) Entries(_ context.Context, docPath string) ([]LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll(docPath)
}

func (l *FileLog) readAll(docPath string) ([]LogEntry, error) {
	f, err := os.Open(l.pathFor(docPath))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var out []LogEntry
	var header [20]byte
	for {
		if _, err := io.ReadFull(f, header[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read log header: %w", err)
		}
		seq := int(binary.BigEndian.Uint64(header[0:8]))
		ts := int64(binary.BigEndian.Uint64(header[8:16]))
		length := binary.BigEndian.Uint32(header[16:20])

		data := make([]byte, length)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, fmt.Errorf("read log data: %w", err)
		}
		out = append(out, LogEntry{Seq: seq, Data: data, CreatedAt: time.Unix(0, ts)})
	}
	return out, nil
}

// KVLog is a Log backed by a NATS JetStream KV bucket, for deployments
// that want the log to survive process restarts without local disk.
type KVLog struct {
	kv jetstream.KeyValue
	mu sync.Mutex
}

// NewKVLog creates a KVLog, creating the backing bucket if needed.
func NewKVLog(ctx context.Context, js jetstream.JetStream) (*KVLog, error) {
	kv, err := getOrCreateBucket(ctx, js, BucketCRDTLog)
	if err != nil {
		return nil, fmt.Errorf("create crdt log bucket: %w", err)
	}
	return &KVLog{kv: kv}, nil
}

func (l *KVLog) keyFor(docPath string, seq int) string {
	safe := strings.ReplaceAll(docPath, "/", "_")
	return fmt.Sprintf("%s.%08d", safe, seq)
}

func (l *KVLog) Append(ctx context.Context, docPath string, data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.Entries(ctx, docPath)
	if err != nil {
		return 0, err
	}
	seq := len(entries) + 1

	if _, err := l.kv.Put(ctx, l.keyFor(docPath, seq), data); err != nil {
		return 0, fmt.Errorf("append log entry: %w", err)
	}
	return seq, nil
}

func (l *KVLog) Entries(ctx context.Context, docPath string) ([]LogEntry, error) {
	keys, err := l.kv.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list log keys: %w", err)
	}

	prefix := strings.ReplaceAll(docPath, "/", "_") + "."
	var out []LogEntry
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := l.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var seq int
		fmt.Sscanf(strings.TrimPrefix(key, prefix), "%d", &seq)
		out = append(out, LogEntry{Seq: seq, Data: entry.Value(), CreatedAt: entry.Created()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
