package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/elimu/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) CheckEmailUniqueness(_ context.Context, tenantID, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acct := range repo.db.table {
		if acct.TenantID == tenantID && acct.Email == email {
			return account.ErrEmailExists
		}
	}
	return nil
}

func (repo *accountRepository) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, id string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acct, ok := repo.db.table[id]; ok {
		return *acct, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, tenantID, email string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acct := range repo.db.table {
		if acct.TenantID == tenantID && acct.Email == email {
			return *acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) FilterAccounts(_ context.Context, tenantID string, filter account.QueryFilter) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var accounts []account.Account
	for _, acct := range repo.db.table {
		if acct.TenantID != tenantID {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(acct.Name), search) &&
				!strings.Contains(strings.ToLower(acct.Email), search) {
				continue
			}
		}
		if filter.Role != "" && acct.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && acct.IsActive != *filter.IsActive {
			continue
		}
		accounts = append(accounts, *acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
	return accounts, nil
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[acct.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	repo.db.table[acct.ID] = &acct
	return acct, nil
}
