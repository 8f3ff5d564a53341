package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// NoteStore persists board notes.
type NoteStore interface {
	Create(ctx context.Context, storeID int64, message string) (int64, error)
	Update(ctx context.Context, storeID, id int64, message string) error
	Delete(ctx context.Context, storeID, id int64) error
	ListByStore(ctx context.Context, storeID int64) ([]model.PublicMessage, error)
}

// Board manages the notes printed under a store's daily listing.
type Board struct {
	notes NoteStore
}

func NewBoard(notes NoteStore) *Board { return &Board{notes: notes} }

func (b *Board) Add(ctx context.Context, scope model.StoreScope, message string) (model.PublicMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.PublicMessage{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	id, err := b.notes.Create(ctx, scope.StoreID, message)
	if err != nil {
		return model.PublicMessage{}, fmt.Errorf("add note: %w", err)
	}
	return model.PublicMessage{ID: id, Message: message, StoreID: scope.StoreID}, nil
}

func (b *Board) Modify(ctx context.Context, scope model.StoreScope, id int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if err := b.notes.Update(ctx, scope.StoreID, id, message); err != nil {
		return fmt.Errorf("modify note %d: %w", id, err)
	}
	return nil
}

func (b *Board) Delete(ctx context.Context, scope model.StoreScope, id int64) error {
	if err := b.notes.Delete(ctx, scope.StoreID, id); err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	return nil
}

func (b *Board) List(ctx context.Context, scope model.StoreScope) ([]model.PublicMessage, error) {
	return b.notes.ListByStore(ctx, scope.StoreID)
}
