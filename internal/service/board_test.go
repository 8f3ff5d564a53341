package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
)

type memNotes struct {
	next int64
	rows map[int64]model.PublicMessage
}

func (m *memNotes) Create(_ context.Context, storeID int64, message string) (int64, error) {
	m.next++
	m.rows[m.next] = model.PublicMessage{ID: m.next, Message: message, StoreID: storeID}
	return m.next, nil
}

func (m *memNotes) Update(_ context.Context, storeID, id int64, message string) error {
	r, ok := m.rows[id]
	if !ok || r.StoreID != storeID {
		return repository.ErrNotFound
	}
	r.Message = message
	m.rows[id] = r
	return nil
}

func (m *memNotes) Delete(_ context.Context, storeID, id int64) error {
	r, ok := m.rows[id]
	if !ok || r.StoreID != storeID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memNotes) ListByStore(_ context.Context, storeID int64) ([]model.PublicMessage, error) {
	var out []model.PublicMessage
	for i := int64(1); i <= m.next; i++ {
		if r, ok := m.rows[i]; ok && r.StoreID == storeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestBoardLifecycle(t *testing.T) {
	notes := &memNotes{rows: map[int64]model.PublicMessage{}}
	b := NewBoard(notes)
	ctx := context.Background()
	s1, s2 := model.StoreScope{StoreID: 1}, model.StoreScope{StoreID: 2}

	n, err := b.Add(ctx, s1, "  冷氣維修 ")
	require.NoError(t, err)
	assert.Equal(t, "冷氣維修", n.Message)

	_, err = b.Add(ctx, s1, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, b.Modify(ctx, s2, n.ID, "x"), repository.ErrNotFound)
	require.NoError(t, b.Modify(ctx, s1, n.ID, "週日公休"))

	list, err := b.List(ctx, s1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "週日公休", list[0].Message)

	assert.ErrorIs(t, b.Delete(ctx, s2, n.ID), repository.ErrNotFound)
	require.NoError(t, b.Delete(ctx, s1, n.ID))
	list, err = b.List(ctx, s1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type memMembers map[int64][]model.Member

func (m memMembers) AddIfAbsent(_ context.Context, memDB int64, memberID, name string) (bool, error) {
	for _, r := range m[memDB] {
		if r.MemberID == memberID {
			return false, nil
		}
	}
	m[memDB] = append(m[memDB], model.Member{StoreID: memDB, MemberID: memberID, Name: name})
	return true, nil
}

func (m memMembers) Latest(_ context.Context, memDB int64) (string, error) {
	rows := m[memDB]
	if len(rows) == 0 {
		return "0", nil
	}
	return rows[len(rows)-1].MemberID, nil
}

func (m memMembers) List(_ context.Context, memDB int64) ([]model.Member, error) {
	return m[memDB], nil
}

func TestMembersShareMemberDatabase(t *testing.T) {
	stores := fakeStores{1: {ID: 1, MemberDB: 1}, 2: {ID: 2, MemberDB: 1}, 3: {ID: 3}}
	mem := memMembers{}
	m := NewMembers(stores, mem)
	ctx := context.Background()

	latest, err := m.Latest(ctx, model.StoreScope{StoreID: 3})
	require.NoError(t, err)
	assert.Equal(t, "0", latest)

	added, err := m.Add(ctx, model.StoreScope{StoreID: 1}, "M001", "王小明")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.Add(ctx, model.StoreScope{StoreID: 2}, "M001", "別人")
	require.NoError(t, err)
	assert.False(t, added)

	latest, err = m.Latest(ctx, model.StoreScope{StoreID: 2})
	require.NoError(t, err)
	assert.Equal(t, "M001", latest)

	_, err = m.Add(ctx, model.StoreScope{StoreID: 1}, "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = m.List(ctx, model.StoreScope{StoreID: 9})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
