package pairing

import (
	"github.com/pythonstrup/openclaw-docker/internal/store"
)

// Paths locates the two pairing collections on disk.
type Paths struct {
	Pending string
	Paired  string
}

// LoadPending reads pending.json, treating a missing or corrupt file
// as an empty collection.
func (p Paths) LoadPending() Pending {
	return store.Load(p.Pending, Pending{})
}

// LoadPaired reads paired.json, treating a missing or corrupt file as
// an empty collection.
func (p Paths) LoadPaired() Paired {
	return store.Load(p.Paired, Paired{})
}

// SaveBoth persists an approval result. Each rename is individually
// atomic but there is no cross-file transaction; paired.json is
// written first so a crash in between leaves the request both paired
// and pending, which a later re-approval resolves.
func (p Paths) SaveBoth(pending Pending, paired Paired) error {
	if err := store.Save(p.Paired, paired); err != nil {
		return err
	}
	return store.Save(p.Pending, pending)
}
