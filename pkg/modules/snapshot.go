package modules

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/forge18/luanext-typechecker/pkg/typeenv"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// snapshotSchemaVersion is bumped whenever ExportEntry's shape changes, so
// a snapshot written by an older build is rejected rather than
// misinterpreted. Grounded on the teacher's DiskPayload.Schema convention
// (internal/driver/dcache.go in the surge example).
const snapshotSchemaVersion uint16 = 1

// ExportEntry is one exported name's serializable form. Named types
// (classes, interfaces, enums, aliases) round-trip by name: on restore
// they are re-resolved against the destination session's type
// environment, which must already carry the same stdlib and any
// previously-restored sibling snapshots. Every other shape of type
// (functions, object literals, unions, …) is not structurally
// serialized — Rendered keeps a human-readable record of what it was, and
// restoring it yields types.Unknown, degrading gracefully rather than
// guessing at a structure this snapshot format does not carry.
type ExportEntry struct {
	Name     string
	Named    bool // true if Rendered is a type name resolvable via typeenv.Resolve
	Rendered string
}

// ModuleSnapshot is the serializable form of one checked module's export
// tables, keyed by canonical path rather than by the numeric id a fresh
// Registry would assign differently.
type ModuleSnapshot struct {
	Schema        uint16
	Path          string
	Values        []ExportEntry
	ExportedTypes []ExportEntry
}

// RegistrySnapshot is every checked module's snapshot, written together so
// a restore can populate a fresh Registry's records in one pass.
type RegistrySnapshot struct {
	Schema  uint16
	Modules []ModuleSnapshot
}

func encodeExports(exports map[string]types.Type) []ExportEntry {
	entries := make([]ExportEntry, 0, len(exports))
	for name, t := range exports {
		entry := ExportEntry{Name: name, Rendered: t.String()}
		switch t.(type) {
		case *types.ClassType, *types.InterfaceType, *types.EnumType, *types.AliasType:
			entry.Named = true
		}
		entries = append(entries, entry)
	}
	return entries
}

func decodeExports(root *typeenv.Env, entries []ExportEntry) map[string]types.Type {
	out := make(map[string]types.Type, len(entries))
	for _, e := range entries {
		if !e.Named {
			out[e.Name] = types.Unknown
			continue
		}
		if entry, ok := root.LookupType(e.Rendered); ok {
			out[e.Name] = entry.Type
			continue
		}
		out[e.Name] = types.Unknown
	}
	return out
}

// Snapshot captures every Checked module in r as a RegistrySnapshot.
func (r *Registry) Snapshot() RegistrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := RegistrySnapshot{Schema: snapshotSchemaVersion}
	for _, id := range r.sortedIDsLocked() {
		rec := r.records[id]
		if rec.State != Checked {
			continue
		}
		snap.Modules = append(snap.Modules, ModuleSnapshot{
			Schema:        snapshotSchemaVersion,
			Path:          rec.Path,
			Values:        encodeExports(rec.Exports),
			ExportedTypes: encodeExports(rec.ExportedTypes),
		})
	}
	return snap
}

func (r *Registry) sortedIDsLocked() []ModuleID {
	ids := make([]ModuleID, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// WriteSnapshot encodes r's snapshot to w in msgpack form.
func (r *Registry) WriteSnapshot(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(r.Snapshot())
}

// ReadSnapshot decodes a RegistrySnapshot previously written by
// WriteSnapshot.
func ReadSnapshot(r io.Reader) (RegistrySnapshot, error) {
	var snap RegistrySnapshot
	err := msgpack.NewDecoder(r).Decode(&snap)
	return snap, err
}

// Restore seeds r with snap's modules, marking each Checked with its
// decoded export tables so the lazy-check callback skips re-checking it.
// root is the session's type environment, used to re-resolve named-type
// exports; it must already have the same stdlib loaded as the session
// that produced snap.
func (r *Registry) Restore(snap RegistrySnapshot, root *typeenv.Env) {
	if snap.Schema != snapshotSchemaVersion {
		return
	}
	for _, m := range snap.Modules {
		id := r.IDFor(m.Path)
		rec := r.record(id)
		r.mu.Lock()
		rec.Exports = decodeExports(root, m.Values)
		rec.ExportedTypes = decodeExports(root, m.ExportedTypes)
		rec.State = Checked
		r.mu.Unlock()
	}
}
