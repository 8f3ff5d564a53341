package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// LanguageOption is one entry of the language menu.
type LanguageOption struct {
	Code  string
	Label string
}

// LanguageOptions lists the selectable chat languages in menu order.
var LanguageOptions = []LanguageOption{
	{"zh-TW", "繁體中文"},
	{"zh-CN", "簡體中文"},
	{"en", "英文"},
	{"ja", "日文"},
	{"ko", "韓文"},
	{"th", "泰文"},
	{"es", "西班牙文"},
	{"ms", "馬來文"},
	{"vi", "越南文"},
}

// LanguageStore persists one language code per LINE user.
type LanguageStore interface {
	Upsert(ctx context.Context, lineID, language string) error
	Get(ctx context.Context, lineID string) (string, error)
}

// Languages manages chat language preferences.
type Languages struct {
	store LanguageStore
}

func NewLanguages(store LanguageStore) *Languages {
	return &Languages{store: store}
}

// Set records code for lineID.
func (l *Languages) Set(ctx context.Context, lineID, code string) error {
	code = strings.TrimSpace(code)
	if lineID == "" {
		return fmt.Errorf("%w: line id is required", ErrInvalidInput)
	}
	if !KnownLanguage(code) {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	if err := l.store.Upsert(ctx, lineID, code); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	return nil
}

// Get returns the stored preference of lineID.
func (l *Languages) Get(ctx context.Context, lineID string) (model.LanguagePreference, error) {
	code, err := l.store.Get(ctx, lineID)
	if err != nil {
		return model.LanguagePreference{}, err
	}
	return model.LanguagePreference{LineID: lineID, Language: code}, nil
}

func KnownLanguage(code string) bool {
	for _, o := range LanguageOptions {
		if o.Code == code {
			return true
		}
	}
	return false
}
