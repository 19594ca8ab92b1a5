package account

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, tenantID, email string) error
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		GetAccount(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, tenantID, email string) (Account, error)
		FilterAccounts(ctx context.Context, tenantID string, filter QueryFilter) ([]Account, error)
		UpdateAccount(ctx context.Context, acct Account) (Account, error)
	}

	Service interface {
		Create(ctx context.Context, na NewAccount) (Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		Filter(ctx context.Context, tenantID string, filter QueryFilter) ([]Account, error)
		Authenticate(ctx context.Context, tenantID, email, password string) (Account, error)
		SetLastLogin(ctx context.Context, acct Account) error
		Deactivate(ctx context.Context, id string) error

		// progress.AccountDirectory
		AccountEmail(ctx context.Context, userID string) (mail.Address, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, na NewAccount) (Account, error) {
	if err := svc.repo.CheckEmailUniqueness(ctx, na.TenantID, na.Email); err != nil {
		if err == ErrEmailExists {
			return Account{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return Account{}, err
	}

	now := time.Now().UTC()
	acct := Account{
		ID:        uuid.New().String(),
		TenantID:  na.TenantID,
		Name:      na.Name,
		Email:     na.Email,
		Role:      na.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(na.Password); err != nil {
		return Account{}, err
	}
	return svc.repo.CreateAccount(ctx, acct)
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, id)
}

func (svc *service) Filter(ctx context.Context, tenantID string, filter QueryFilter) ([]Account, error) {
	filter.Clean()
	return svc.repo.FilterAccounts(ctx, tenantID, filter)
}

// Authenticate checks the credentials without revealing which of the two was
// wrong.
func (svc *service) Authenticate(ctx context.Context, tenantID, email, password string) (Account, error) {
	acct, err := svc.repo.GetAccountByEmail(ctx, tenantID, core.CleanString(email, true))
	if err != nil {
		if err == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if err = acct.CheckPassword(password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acct.IsActive {
		return Account{}, ErrAccountInactive
	}
	return acct, nil
}

func (svc *service) SetLastLogin(ctx context.Context, acct Account) error {
	acct.LastLogin = time.Now().UTC()
	_, err := svc.repo.UpdateAccount(ctx, acct)
	return err
}

func (svc *service) Deactivate(ctx context.Context, id string) error {
	acct, err := svc.repo.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !acct.IsActive {
		return nil
	}
	acct.IsActive = false
	acct.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acct)
	return err
}

func (svc *service) AccountEmail(ctx context.Context, userID string) (mail.Address, error) {
	acct, err := svc.repo.GetAccount(ctx, userID)
	if err != nil {
		return mail.Address{}, err
	}
	return acct.Address(), nil
}
