package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/account"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{db: db}
}

type accountRow struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	LastLogin    null.Time `db:"last_login"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func newAccountRow(acct account.Account) accountRow {
	row := accountRow{
		ID:           acct.ID,
		TenantID:     acct.TenantID,
		Name:         acct.Name,
		Email:        acct.Email,
		Role:         string(acct.Role),
		IsActive:     acct.IsActive,
		PasswordHash: acct.PasswordHash,
		CreatedAt:    acct.CreatedAt,
		UpdatedAt:    acct.UpdatedAt,
	}
	if !acct.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(acct.LastLogin)
	}
	return row
}

func (row accountRow) toCore() account.Account {
	acct := account.Account{
		ID:           row.ID,
		TenantID:     row.TenantID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         account.Role(row.Role),
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		acct.LastLogin = row.LastLogin.Time
	}
	return acct
}

func (repo *accountRepository) CheckEmailUniqueness(ctx context.Context, tenantID, email string) error {
	const q = `SELECT COUNT(*) FROM account WHERE tenant_id = $1 AND email = $2`
	var count int
	if err := repo.db.GetContext(ctx, &count, q, tenantID, email); err != nil {
		return errors.Wrap(err, "checking account email")
	}
	if count > 0 {
		return account.ErrEmailExists
	}
	return nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	const q = `
		INSERT INTO account (id, tenant_id, name, email, role, is_active, password_hash, last_login, created_at, updated_at)
		VALUES (:id, :tenant_id, :name, :email, :role, :is_active, :password_hash, :last_login, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newAccountRow(acct)); err != nil {
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acct, nil
}

func (repo *accountRepository) GetAccount(ctx context.Context, id string) (account.Account, error) {
	const q = `SELECT * FROM account WHERE id = $1`
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "getting account")
	}
	return row.toCore(), nil
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, tenantID, email string) (account.Account, error) {
	const q = `SELECT * FROM account WHERE tenant_id = $1 AND email = $2`
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, q, tenantID, email); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "getting account by email")
	}
	return row.toCore(), nil
}

func (repo *accountRepository) FilterAccounts(ctx context.Context, tenantID string, filter account.QueryFilter) ([]account.Account, error) {
	q := `SELECT * FROM account WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		q += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		q += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	q += " ORDER BY email"

	var rows []accountRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	accounts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.toCore())
	}
	return accounts, nil
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	const q = `
		UPDATE account SET name = :name, email = :email, role = :role, is_active = :is_active,
			password_hash = :password_hash, last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newAccountRow(acct))
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}
