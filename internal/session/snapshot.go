package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"typesim/internal/types"
)

// Current snapshot schema version. Increment when Snapshot changes shape.
const snapshotSchemaVersion uint16 = 1

// ErrSnapshotSchema is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotSchema = errors.New("unsupported snapshot schema")

// Snapshot is the serialized registry, in registration order.
type Snapshot struct {
	Schema uint16          `msgpack:"schema"`
	Types  []SnapshotEntry `msgpack:"types"`
}

// SnapshotEntry is one registered type. Size and Align are only set for
// atomics; Members holds struct members or union variants.
type SnapshotEntry struct {
	Name    string   `msgpack:"name"`
	Kind    string   `msgpack:"kind"`
	Size    int      `msgpack:"size,omitempty"`
	Align   int      `msgpack:"align,omitempty"`
	Members []string `msgpack:"members,omitempty"`
}

func entryOf(d types.Definition) SnapshotEntry {
	e := SnapshotEntry{Name: d.Name, Kind: d.Variant.Kind.String()}
	switch d.Variant.Kind {
	case types.KindAtomic:
		e.Size = d.Variant.Atomic.Size
		e.Align = d.Variant.Atomic.Align
	default:
		e.Members = d.Variant.Refs()
	}
	return e
}

func (e SnapshotEntry) definition() (types.Definition, error) {
	kind, err := types.ParseKind(e.Kind)
	if err != nil {
		return types.Definition{}, fmt.Errorf("type %q: %w", e.Name, err)
	}
	var v types.Variant
	switch kind {
	case types.KindAtomic:
		v = types.NewAtomic(e.Size, e.Align)
	case types.KindStruct:
		v = types.NewStruct(e.Members...)
	case types.KindUnion:
		v = types.NewUnion(e.Members...)
	}
	return types.Definition{Name: e.Name, Variant: v}, nil
}

// Snapshot captures the current registry.
func (s *Session) Snapshot() Snapshot {
	defs := s.reg.Definitions()
	snap := Snapshot{Schema: snapshotSchemaVersion, Types: make([]SnapshotEntry, 0, len(defs))}
	for _, d := range defs {
		snap.Types = append(snap.Types, entryOf(d))
	}
	return snap
}

// Save writes a msgpack snapshot of the registry to w.
func (s *Session) Save(w io.Writer) error {
	snap := s.Snapshot()
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// SaveFile writes a snapshot to path, replacing it atomically.
func (s *Session) SaveFile(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := s.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return err
	}
	s.log.Debug("snapshot saved", zap.String("path", path), zap.Int("types", s.reg.Len()))
	return nil
}

// Load reads a snapshot from r and registers its types on top of the
// current registry. Nothing is registered unless every entry validates.
func (s *Session) Load(r io.Reader) (int, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Schema != snapshotSchemaVersion {
		return 0, fmt.Errorf("%w: %d", ErrSnapshotSchema, snap.Schema)
	}
	defs := make([]types.Definition, 0, len(snap.Types))
	for _, e := range snap.Types {
		d, err := e.definition()
		if err != nil {
			return 0, err
		}
		defs = append(defs, d)
	}
	return s.apply(defs, func(i int) string {
		return fmt.Sprintf("snapshot entry %d", i)
	})
}

// LoadSnapshotFile loads the snapshot stored at path.
func (s *Session) LoadSnapshotFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := s.Load(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	s.log.Debug("snapshot loaded", zap.String("path", path), zap.Int("types", n))
	return n, nil
}
