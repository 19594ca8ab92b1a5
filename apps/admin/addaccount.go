package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/account"
)

// addAccount updates or creates an account.Account
func (cli *commandLine) addAccount(tenantID, name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	acct, err := cli.acctRepo.GetAccountByEmail(ctx, tenantID, email)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		acct = account.Account{
			ID:        uuid.New().String(),
			TenantID:  tenantID,
			Email:     email,
			Role:      account.RoleStudent,
			CreatedAt: now,
		}
		acct.Name = core.CleanString(name)
		if isAdmin {
			acct.Role = account.RoleAdmin
		}
		acct.IsActive = true
		acct.UpdatedAt = now
		if err = acct.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.acctRepo.CreateAccount(ctx, acct)
		return err
	}

	acct.Name = core.CleanString(name)
	if isAdmin {
		acct.Role = account.RoleAdmin
	}
	acct.IsActive = true
	acct.UpdatedAt = now
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.acctRepo.UpdateAccount(ctx, acct)
	return err
}
