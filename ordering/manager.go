// Package ordering maintains the sibling order keys of the hierarchy: boards
// under a project, tasks under a board, subtasks under a task. Keys are
// integers, unique within a parent, increasing in insertion sequence and
// tolerant of gaps; deletes compact the survivors back to a dense 0..n-1.
package ordering

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
)

// Sibling is the slice of a hierarchy node the manager cares about.
type Sibling struct {
	ID    primitive.ObjectID
	Order int
}

// Siblings is the narrow store view the manager operates through. ListByParent
// must return siblings sorted by order ascending.
type Siblings interface {
	ListByParent(ctx context.Context, parentID primitive.ObjectID) ([]Sibling, error)
	SetOrder(ctx context.Context, id primitive.ObjectID, order int) error
}

// ItemOrder is one entry of a batch reorder request.
type ItemOrder struct {
	ID    primitive.ObjectID `json:"id"`
	Order int                `json:"order"`
}

// Manager serializes order mutations per parent. Sibling renumbering is a
// read-then-write sequence, so concurrent reorders of the same parent would
// otherwise race and lose updates.
type Manager struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func NewManager() *Manager {
	return &Manager{locks: make(map[primitive.ObjectID]*sync.Mutex)}
}

func (m *Manager) parentLock(parentID primitive.ObjectID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[parentID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[parentID] = l
	}
	return l
}

// Append computes the next order key under the parent (max existing + 1, or 0
// for the first sibling) and calls insert with it. The computation and the
// insert run under the parent's lock so two appends cannot claim the same key.
func (m *Manager) Append(ctx context.Context, s Siblings, parentID primitive.ObjectID, insert func(order int) error) error {
	l := m.parentLock(parentID)
	l.Lock()
	defer l.Unlock()

	siblings, err := s.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}

	order := 0
	for _, sib := range siblings {
		if sib.Order >= order {
			order = sib.Order + 1
		}
	}

	return insert(order)
}

// ReorderBatch writes each entry's order verbatim after validating that every
// id belongs to the stated parent and that no two entries share an order.
// A duplicate order fails the whole request rather than silently picking a
// winner.
func (m *Manager) ReorderBatch(ctx context.Context, s Siblings, parentID primitive.ObjectID, orders []ItemOrder) error {
	if len(orders) == 0 {
		return errs.ValidationFailed("reorder request must contain at least one item")
	}

	l := m.parentLock(parentID)
	l.Lock()
	defer l.Unlock()

	siblings, err := s.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}

	members := make(map[primitive.ObjectID]bool, len(siblings))
	for _, sib := range siblings {
		members[sib.ID] = true
	}

	seenIDs := make(map[primitive.ObjectID]bool, len(orders))
	seenOrders := make(map[int]bool, len(orders))
	for _, entry := range orders {
		if !members[entry.ID] {
			return errs.ValidationFailed("item %s does not belong to the stated parent", entry.ID.Hex())
		}
		if seenIDs[entry.ID] {
			return errs.ValidationFailed("item %s appears more than once in reorder request", entry.ID.Hex())
		}
		if seenOrders[entry.Order] {
			return errs.ValidationFailed("duplicate order %d in reorder request", entry.Order)
		}
		seenIDs[entry.ID] = true
		seenOrders[entry.Order] = true
	}

	for _, entry := range orders {
		if err := s.SetOrder(ctx, entry.ID, entry.Order); err != nil {
			return err
		}
	}
	return nil
}

// MoveToPosition moves one sibling to the given position (clamped to the
// collection bounds) and renumbers only the contiguous range between the old
// and new slots. The order keys in that range are reassigned to the shifted
// siblings, so the multiset of keys is unchanged and uniqueness is preserved.
func (m *Manager) MoveToPosition(ctx context.Context, s Siblings, parentID, id primitive.ObjectID, position int) error {
	l := m.parentLock(parentID)
	l.Lock()
	defer l.Unlock()

	siblings, err := s.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}

	idx := -1
	for i, sib := range siblings {
		if sib.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return errs.InvalidReference("item %s does not belong to the stated parent", id.Hex())
	}

	if position < 0 {
		position = 0
	}
	if position > len(siblings)-1 {
		position = len(siblings) - 1
	}
	if position == idx {
		return nil
	}

	keys := make([]int, len(siblings))
	for i, sib := range siblings {
		keys[i] = sib.Order
	}

	if idx < position {
		// Siblings between the vacated and target slots shift up one slot.
		for i := idx; i < position; i++ {
			if err := s.SetOrder(ctx, siblings[i+1].ID, keys[i]); err != nil {
				return err
			}
		}
	} else {
		for i := position; i < idx; i++ {
			if err := s.SetOrder(ctx, siblings[i].ID, keys[i+1]); err != nil {
				return err
			}
		}
	}
	return s.SetOrder(ctx, id, keys[position])
}

// Compact renumbers a parent's remaining siblings to the dense sequence
// 0..n-1, preserving their relative order. Run after a delete or a move-out;
// it also repairs any key drift that accumulated under the parent.
func (m *Manager) Compact(ctx context.Context, s Siblings, parentID primitive.ObjectID) error {
	l := m.parentLock(parentID)
	l.Lock()
	defer l.Unlock()

	return m.compactLocked(ctx, s, parentID)
}

func (m *Manager) compactLocked(ctx context.Context, s Siblings, parentID primitive.ObjectID) error {
	siblings, err := s.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}
	for i, sib := range siblings {
		if sib.Order != i {
			if err := s.SetOrder(ctx, sib.ID, i); err != nil {
				return err
			}
		}
	}
	return nil
}

// MoveAcross relocates one child from srcParent to dstParent: the child is
// appended at the destination via insert (which must re-parent it), then the
// vacated source is compacted. Both parent locks are held for the duration,
// acquired in id order so two opposite moves cannot deadlock.
func (m *Manager) MoveAcross(ctx context.Context, s Siblings, srcParent, dstParent primitive.ObjectID, insert func(order int) error) error {
	first, second := m.parentLock(srcParent), m.parentLock(dstParent)
	if dstParent.Hex() < srcParent.Hex() {
		first, second = second, first
	}
	first.Lock()
	defer first.Unlock()
	if second != first {
		second.Lock()
		defer second.Unlock()
	}

	siblings, err := s.ListByParent(ctx, dstParent)
	if err != nil {
		return err
	}
	order := 0
	for _, sib := range siblings {
		if sib.Order >= order {
			order = sib.Order + 1
		}
	}
	if err := insert(order); err != nil {
		return err
	}

	return m.compactLocked(ctx, s, srcParent)
}
