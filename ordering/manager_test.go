package ordering

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
)

// memSiblings is a map-backed Siblings implementation for exercising the
// manager without a database.
type memSiblings struct {
	parentOf map[primitive.ObjectID]primitive.ObjectID
	orders   map[primitive.ObjectID]int
}

func newMemSiblings() *memSiblings {
	return &memSiblings{
		parentOf: make(map[primitive.ObjectID]primitive.ObjectID),
		orders:   make(map[primitive.ObjectID]int),
	}
}

func (m *memSiblings) add(parentID primitive.ObjectID, order int) primitive.ObjectID {
	id := primitive.NewObjectID()
	m.parentOf[id] = parentID
	m.orders[id] = order
	return id
}

func (m *memSiblings) ListByParent(ctx context.Context, parentID primitive.ObjectID) ([]Sibling, error) {
	var out []Sibling
	for id, parent := range m.parentOf {
		if parent == parentID {
			out = append(out, Sibling{ID: id, Order: m.orders[id]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memSiblings) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	m.orders[id] = order
	return nil
}

func (m *memSiblings) keysOf(parentID primitive.ObjectID) []int {
	siblings, _ := m.ListByParent(context.Background(), parentID)
	keys := make([]int, len(siblings))
	for i, sib := range siblings {
		keys[i] = sib.Order
	}
	return keys
}

func TestAppendAssignsSequentialKeys(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()

	for want := 0; want < 3; want++ {
		err := mgr.Append(context.Background(), s, parent, func(order int) error {
			assert.Equal(t, want, order)
			s.add(parent, order)
			return nil
		})
		require.NoError(t, err)
	}
}

func TestAppendAfterGapUsesMaxPlusOne(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	s.add(parent, 0)
	s.add(parent, 5)

	err := mgr.Append(context.Background(), s, parent, func(order int) error {
		assert.Equal(t, 6, order)
		s.add(parent, order)
		return nil
	})
	require.NoError(t, err)
}

func TestReorderBatchAppliesVerbatim(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	a := s.add(parent, 0)
	b := s.add(parent, 1)
	c := s.add(parent, 2)

	err := mgr.ReorderBatch(context.Background(), s, parent, []ItemOrder{
		{ID: c, Order: 0},
		{ID: a, Order: 10},
		{ID: b, Order: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, s.orders[a])
	assert.Equal(t, 5, s.orders[b])
	assert.Equal(t, 0, s.orders[c])
}

func TestReorderBatchRejectsBadRequests(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	a := s.add(parent, 0)
	b := s.add(parent, 1)
	foreign := s.add(primitive.NewObjectID(), 0)

	cases := []struct {
		name   string
		orders []ItemOrder
	}{
		{"empty", nil},
		{"foreign id", []ItemOrder{{ID: foreign, Order: 0}}},
		{"duplicate id", []ItemOrder{{ID: a, Order: 0}, {ID: a, Order: 1}}},
		{"duplicate order", []ItemOrder{{ID: a, Order: 3}, {ID: b, Order: 3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := mgr.ReorderBatch(context.Background(), s, parent, tc.orders)
			assert.True(t, errs.IsKind(err, errs.KindValidationFailed))
		})
	}

	// Nothing was applied by the failed batches.
	assert.Equal(t, 0, s.orders[a])
	assert.Equal(t, 1, s.orders[b])
}

func TestMoveToPositionPreservesKeyMultiset(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	// Gapped keys survive a move untouched as a set.
	a := s.add(parent, 0)
	b := s.add(parent, 2)
	c := s.add(parent, 5)
	d := s.add(parent, 9)

	err := mgr.MoveToPosition(context.Background(), s, parent, a, 2)
	require.NoError(t, err)

	siblings, _ := s.ListByParent(context.Background(), parent)
	gotIDs := []primitive.ObjectID{siblings[0].ID, siblings[1].ID, siblings[2].ID, siblings[3].ID}
	assert.Equal(t, []primitive.ObjectID{b, c, a, d}, gotIDs)
	assert.Equal(t, []int{0, 2, 5, 9}, s.keysOf(parent))
}

func TestMoveToPositionClampsOutOfRange(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	a := s.add(parent, 0)
	b := s.add(parent, 1)
	c := s.add(parent, 2)

	require.NoError(t, mgr.MoveToPosition(context.Background(), s, parent, a, 99))
	siblings, _ := s.ListByParent(context.Background(), parent)
	assert.Equal(t, a, siblings[2].ID)

	require.NoError(t, mgr.MoveToPosition(context.Background(), s, parent, c, -4))
	siblings, _ = s.ListByParent(context.Background(), parent)
	assert.Equal(t, c, siblings[0].ID)
	assert.Equal(t, b, siblings[1].ID)
}

func TestMoveToPositionRejectsForeignItem(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	s.add(parent, 0)
	foreign := s.add(primitive.NewObjectID(), 0)

	err := mgr.MoveToPosition(context.Background(), s, parent, foreign, 0)
	assert.True(t, errs.IsKind(err, errs.KindInvalidReference))
}

func TestCompactRenumbersDense(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	a := s.add(parent, 1)
	b := s.add(parent, 4)
	c := s.add(parent, 9)

	require.NoError(t, mgr.Compact(context.Background(), s, parent))

	assert.Equal(t, 0, s.orders[a])
	assert.Equal(t, 1, s.orders[b])
	assert.Equal(t, 2, s.orders[c])
}

func TestMoveAcrossAppendsAndCompactsSource(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	src := primitive.NewObjectID()
	dst := primitive.NewObjectID()
	moved := s.add(src, 0)
	stays := s.add(src, 3)
	s.add(dst, 0)
	s.add(dst, 1)

	err := mgr.MoveAcross(context.Background(), s, src, dst, func(order int) error {
		assert.Equal(t, 2, order)
		s.parentOf[moved] = dst
		s.orders[moved] = order
		return nil
	})
	require.NoError(t, err)

	// Source got compacted after the move-out.
	assert.Equal(t, 0, s.orders[stays])
	assert.Equal(t, []int{0, 1, 2}, s.keysOf(dst))
}

func TestMoveAcrossSameParentDoesNotDeadlock(t *testing.T) {
	s := newMemSiblings()
	mgr := NewManager()
	parent := primitive.NewObjectID()
	moved := s.add(parent, 0)

	err := mgr.MoveAcross(context.Background(), s, parent, parent, func(order int) error {
		s.orders[moved] = order
		return nil
	})
	require.NoError(t, err)
}
