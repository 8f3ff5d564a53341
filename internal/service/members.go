package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// MemberStore persists member records keyed by member database.
type MemberStore interface {
	AddIfAbsent(ctx context.Context, memDB int64, memberID, name string) (bool, error)
	Latest(ctx context.Context, memDB int64) (string, error)
	List(ctx context.Context, memDB int64) ([]model.Member, error)
}

// Members keeps customer member records.  Stores sharing a member database
// see the same members.
type Members struct {
	stores  StoreLookup
	members MemberStore
}

func NewMembers(stores StoreLookup, members MemberStore) *Members {
	return &Members{stores: stores, members: members}
}

func (m *Members) memberDB(ctx context.Context, scope model.StoreScope) (int64, error) {
	s, err := m.stores.GetByID(ctx, scope.StoreID)
	if err != nil {
		return 0, fmt.Errorf("store %d: %w", scope.StoreID, err)
	}
	if s.MemberDB == 0 {
		return s.ID, nil
	}
	return s.MemberDB, nil
}

// Add records a member unless the member id is already taken; added
// reports whether a row was written.
func (m *Members) Add(ctx context.Context, scope model.StoreScope, memberID, name string) (bool, error) {
	memberID, name = strings.TrimSpace(memberID), strings.TrimSpace(name)
	if memberID == "" || name == "" {
		return false, fmt.Errorf("%w: member id and name are required", ErrInvalidInput)
	}
	db, err := m.memberDB(ctx, scope)
	if err != nil {
		return false, err
	}
	return m.members.AddIfAbsent(ctx, db, memberID, name)
}

// Latest returns the highest member id, "0" when there is none.
func (m *Members) Latest(ctx context.Context, scope model.StoreScope) (string, error) {
	db, err := m.memberDB(ctx, scope)
	if err != nil {
		return "", err
	}
	return m.members.Latest(ctx, db)
}

func (m *Members) List(ctx context.Context, scope model.StoreScope) ([]model.Member, error) {
	db, err := m.memberDB(ctx, scope)
	if err != nil {
		return nil, err
	}
	return m.members.List(ctx, db)
}
