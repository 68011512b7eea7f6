// Package store implements the fact store (spec.md §4.1): dense,
// arena-indexed fact storage with per-field equality indices and an
// external-id lookup map.
package store

import (
	"fmt"
	"sync"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/value"
)

// generatedIDOffset separates facts created by CreateFact actions from
// facts supplied directly to process_facts (spec.md §4.5 CreateFact).
const generatedIDOffset uint64 = 1_000_000

// IDSet is a set of internal fact IDs, the currency alpha/beta memories
// trade in.
type IDSet map[uint64]struct{}

func NewIDSet(ids ...uint64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id uint64)      { s[id] = struct{}{} }
func (s IDSet) Remove(id uint64)   { delete(s, id) }
func (s IDSet) Has(id uint64) bool { _, ok := s[id]; return ok }
func (s IDSet) Slice() []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

type slot struct {
	fact fact.Fact
	live bool
}

// Store is the arena-indexed fact table. Zero value is not usable; use
// New.
type Store struct {
	mu sync.RWMutex

	slots []slot // dense, index = internal id, for ids < generatedIDOffset
	gen   []slot // dense, index = internal id - generatedIDOffset

	externalIndex map[string]uint64

	indexedFields map[string]bool
	// fieldIndex[field][valueHashKey] = set of live ids with that value
	fieldIndex map[string]map[any]IDSet

	nextGeneratedID uint64
}

// New creates an empty store. indexedFields names the fields that should
// be maintained in an equality index from the start; AddIndex adds more
// later.
func New(indexedFields ...string) *Store {
	s := &Store{
		externalIndex:   make(map[string]uint64),
		indexedFields:   make(map[string]bool),
		fieldIndex:      make(map[string]map[any]IDSet),
		nextGeneratedID: generatedIDOffset,
	}
	for _, f := range indexedFields {
		s.AddIndex(f)
	}
	return s
}

// AddIndex starts maintaining an equality index for field, backfilling
// from every currently-live fact. Idempotent.
func (s *Store) AddIndex(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addIndexLocked(field)
}

func (s *Store) addIndexLocked(field string) {
	if s.indexedFields[field] {
		return
	}
	s.indexedFields[field] = true
	idx := make(map[any]IDSet)
	s.fieldIndex[field] = idx
	backfill := func(slots []slot, base uint64) {
		for i, sl := range slots {
			if !sl.live {
				continue
			}
			if v, ok := sl.fact.Get(field); ok {
				key := v.HashKey()
				set, ok := idx[key]
				if !ok {
					set = NewIDSet()
					idx[key] = set
				}
				set.Add(base + uint64(i))
			}
		}
	}
	backfill(s.slots, 0)
	backfill(s.gen, generatedIDOffset)
}

// Insert assigns a dense internal id and stores the fact, binding its
// external id (if any) to the new id. A previous fact bound to the same
// external id stays live under its own internal id. Never fails except
// for out-of-memory (spec.md §4.1).
func (s *Store) Insert(f fact.Fact) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint64(len(s.slots))
	f.InternalID = id
	s.slots = append(s.slots, slot{fact: f, live: true})
	s.bindExternalLocked(f)
	s.indexInsertLocked(id, f)
	return id
}

// InsertGenerated stores a fact created by a CreateFact action, under the
// reserved high id range (spec.md §4.5).
func (s *Store) InsertGenerated(f fact.Fact) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextGeneratedID
	s.nextGeneratedID++
	f.InternalID = id
	idx := id - generatedIDOffset
	for uint64(len(s.gen)) <= idx {
		s.gen = append(s.gen, slot{})
	}
	s.gen[idx] = slot{fact: f, live: true}
	s.bindExternalLocked(f)
	s.indexInsertLocked(id, f)
	return id
}

func (s *Store) bindExternalLocked(f fact.Fact) {
	if f.HasExternalID() {
		s.externalIndex[f.ExternalID] = f.InternalID
	}
}

func (s *Store) indexInsertLocked(id uint64, f fact.Fact) {
	for field, idx := range s.fieldIndex {
		v, ok := f.Get(field)
		if !ok {
			continue
		}
		key := v.HashKey()
		set, ok := idx[key]
		if !ok {
			set = NewIDSet()
			idx[key] = set
		}
		set.Add(id)
	}
}

func (s *Store) indexRemoveLocked(id uint64, f fact.Fact) {
	for field, idx := range s.fieldIndex {
		v, ok := f.Get(field)
		if !ok {
			continue
		}
		key := v.HashKey()
		if set, ok := idx[key]; ok {
			set.Remove(id)
			if len(set) == 0 {
				delete(idx, key)
			}
		}
	}
}

func (s *Store) slotFor(id uint64) (*slot, bool) {
	if id >= generatedIDOffset {
		idx := id - generatedIDOffset
		if idx >= uint64(len(s.gen)) {
			return nil, false
		}
		return &s.gen[idx], true
	}
	if id >= uint64(len(s.slots)) {
		return nil, false
	}
	return &s.slots[id], true
}

// Get returns the live fact bound to id, if any.
func (s *Store) Get(id uint64) (fact.Fact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slotFor(id)
	if !ok || !sl.live {
		return fact.Fact{}, false
	}
	return sl.fact, true
}

// GetMany batches Get for a list of ids.
func (s *Store) GetMany(ids []uint64) []*fact.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*fact.Fact, len(ids))
	for i, id := range ids {
		sl, ok := s.slotFor(id)
		if ok && sl.live {
			f := sl.fact
			out[i] = &f
		}
	}
	return out
}

// Update applies field updates in place and re-indexes touched fields.
// Updating a vacant slot is a no-op returning ErrNotFound.
func (s *Store) Update(id uint64, updates map[string]value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slotFor(id)
	if !ok || !sl.live {
		return fmt.Errorf("store: update fact %d: %w", id, bingoerr.ErrNotFound)
	}
	before := sl.fact
	s.indexRemoveLocked(id, before)
	if sl.fact.Fields == nil {
		sl.fact.Fields = make(map[string]value.Value, len(updates))
	}
	for k, v := range updates {
		sl.fact.Fields[k] = v
	}
	s.indexInsertLocked(id, sl.fact)
	return nil
}

// Remove marks the slot vacant, unbinds its external id, and drops it
// from every field index. Removing a vacant slot is a no-op returning
// ErrNotFound.
func (s *Store) Remove(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slotFor(id)
	if !ok || !sl.live {
		return fmt.Errorf("store: remove fact %d: %w", id, bingoerr.ErrNotFound)
	}
	f := sl.fact
	s.indexRemoveLocked(id, f)
	if f.HasExternalID() {
		if bound, ok := s.externalIndex[f.ExternalID]; ok && bound == id {
			delete(s.externalIndex, f.ExternalID)
		}
	}
	*sl = slot{}
	return nil
}

// FindByField returns the live ids whose field equals value: O(1)
// average when field is indexed, O(n) scan otherwise.
func (s *Store) FindByField(field string, v value.Value) IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.fieldIndex[field]; ok {
		set, ok := idx[v.HashKey()]
		if !ok {
			return NewIDSet()
		}
		out := make(IDSet, len(set))
		for id := range set {
			out.Add(id)
		}
		return out
	}
	out := NewIDSet()
	s.scan(func(id uint64, f fact.Fact) {
		if fv, ok := f.Get(field); ok && fv.Equal(v) {
			out.Add(id)
		}
	})
	return out
}

// Criterion is one (field, value) equality pair for FindByCriteria.
type Criterion struct {
	Field string
	Value value.Value
}

// FindByCriteria intersects the per-field id sets, starting with the
// smallest to keep the intersection cheap (spec.md §4.1).
func (s *Store) FindByCriteria(criteria []Criterion) IDSet {
	if len(criteria) == 0 {
		return NewIDSet()
	}
	sets := make([]IDSet, len(criteria))
	for i, c := range criteria {
		sets[i] = s.FindByField(c.Field, c.Value)
	}
	sortSetsBySize(sets)
	result := sets[0]
	for _, other := range sets[1:] {
		result = intersect(result, other)
		if len(result) == 0 {
			break
		}
	}
	return result
}

func sortSetsBySize(sets []IDSet) {
	for i := 1; i < len(sets); i++ {
		j := i
		for j > 0 && len(sets[j]) < len(sets[j-1]) {
			sets[j], sets[j-1] = sets[j-1], sets[j]
			j--
		}
	}
}

func intersect(a, b IDSet) IDSet {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	out := NewIDSet()
	for id := range small {
		if big.Has(id) {
			out.Add(id)
		}
	}
	return out
}

func (s *Store) scan(f func(id uint64, fct fact.Fact)) {
	for i, sl := range s.slots {
		if sl.live {
			f(uint64(i), sl.fact)
		}
	}
	for i, sl := range s.gen {
		if sl.live {
			f(generatedIDOffset+uint64(i), sl.fact)
		}
	}
}

// LookupExternal returns the live fact currently bound to an external id
// (spec.md P4): the most-recently-inserted live fact with that id, or
// none if it was never bound or has since been removed/replaced.
func (s *Store) LookupExternal(externalID string) (fact.Fact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.externalIndex[externalID]
	if !ok {
		return fact.Fact{}, false
	}
	sl, ok := s.slotFor(id)
	if !ok || !sl.live {
		return fact.Fact{}, false
	}
	return sl.fact, true
}

// Reserve preallocates slot capacity for an expected number of facts, so
// the first capacityHint inserts into the non-generated range don't
// trigger repeated slice growth. A no-op once the store already holds
// facts.
func (s *Store) Reserve(capacityHint int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) == 0 && cap(s.slots) < capacityHint {
		grown := make([]slot, 0, capacityHint)
		s.slots = grown
	}
}

// Count returns the number of currently-live facts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	s.scan(func(uint64, fact.Fact) { n++ })
	return n
}
