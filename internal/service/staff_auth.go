package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
	"github.com/iliyamo/spa-booking-bot/internal/utils"
)

// StoreLookup resolves stores.
type StoreLookup interface {
	GetByKey(ctx context.Context, key string) (model.Store, error)
	GetByID(ctx context.Context, id int64) (model.Store, error)
	Branches(ctx context.Context, mainID int64) ([]int64, error)
}

// StaffAccounts is the credential side of the staff table.
type StaffAccounts interface {
	GetByName(ctx context.Context, storeID int64, name string) (model.Staff, error)
	BindLine(ctx context.Context, storeID, staffID int64, lineUserID string) error
}

// StaffAuth checks staff credentials.  The store license key selects the
// store; the issued token carries the store scope of later requests.
type StaffAuth struct {
	stores StoreLookup
	staff  StaffAccounts
	secret string
	ttlMin int
}

func NewStaffAuth(stores StoreLookup, staff StaffAccounts, secret string, ttlMin int) *StaffAuth {
	if ttlMin <= 0 {
		ttlMin = 60
	}
	return &StaffAuth{stores: stores, staff: staff, secret: secret, ttlMin: ttlMin}
}

func (a *StaffAuth) authenticate(ctx context.Context, storeKey, name, password string) (model.Staff, error) {
	if strings.TrimSpace(storeKey) == "" || strings.TrimSpace(name) == "" || password == "" {
		return model.Staff{}, fmt.Errorf("%w: store key, name and password are required", ErrInvalidInput)
	}
	store, err := a.stores.GetByKey(ctx, strings.TrimSpace(storeKey))
	if errors.Is(err, repository.ErrNotFound) {
		return model.Staff{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Staff{}, err
	}
	staff, err := a.staff.GetByName(ctx, store.ID, strings.TrimSpace(name))
	if errors.Is(err, repository.ErrNotFound) {
		return model.Staff{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Staff{}, err
	}
	if !utils.VerifyPassword(staff.PasswordHash, password) {
		return model.Staff{}, ErrInvalidCredentials
	}
	return staff, nil
}

// Login returns an access token for the staff member.
func (a *StaffAuth) Login(ctx context.Context, storeKey, name, password string) (utils.AccessToken, model.Staff, error) {
	staff, err := a.authenticate(ctx, storeKey, name, password)
	if err != nil {
		return utils.AccessToken{}, model.Staff{}, err
	}
	tok, err := utils.NewAccessToken(a.secret, staff, a.ttlMin)
	if err != nil {
		return utils.AccessToken{}, model.Staff{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, staff, nil
}

// BindLine links a LINE account to the staff member so notices reach them.
func (a *StaffAuth) BindLine(ctx context.Context, storeKey, name, password, lineUserID string) (model.Staff, error) {
	if strings.TrimSpace(lineUserID) == "" {
		return model.Staff{}, fmt.Errorf("%w: line user id is required", ErrInvalidInput)
	}
	staff, err := a.authenticate(ctx, storeKey, name, password)
	if err != nil {
		return model.Staff{}, err
	}
	if err := a.staff.BindLine(ctx, staff.StoreID, staff.ID, strings.TrimSpace(lineUserID)); err != nil {
		return model.Staff{}, fmt.Errorf("bind line: %w", err)
	}
	staff.LineUserID = strings.TrimSpace(lineUserID)
	return staff, nil
}
