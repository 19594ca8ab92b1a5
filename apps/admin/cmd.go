package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/elimu/core/account"
	"github.com/trezcool/elimu/core/progress"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	acctRepo account.Repository
	progSvc  progress.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (goose commands)")
	fmt.Println("  addaccount -tenant TENANT_ID -name NAME -email EMAIL [-admin] - add or update an account; password prompted")
	fmt.Println("  resetpassword -tenant TENANT_ID -email EMAIL - reset an account's password; password prompted")
	fmt.Println("  resetprogress -id PROGRESS_ID - reset a learner's course progress")
	fmt.Println("  markcompleted -id PROGRESS_ID [-certificate REF] - mark a learner's course progress completed")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAccountCmd := flag.NewFlagSet("addaccount", flag.ExitOnError)
	addAccountTenant := addAccountCmd.String("tenant", "", "The account's tenant ID.")
	addAccountName := addAccountCmd.String("name", "", "The account's full name.")
	addAccountEmail := addAccountCmd.String("email", "", "The account's email. The password will be prompted next.")
	addAccountAdmin := addAccountCmd.Bool("admin", false, "Grant the admin role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordTenant := resetPasswordCmd.String("tenant", "", "The account's tenant ID.")
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	resetProgressCmd := flag.NewFlagSet("resetprogress", flag.ExitOnError)
	resetProgressID := resetProgressCmd.String("id", "", "The course progress ID.")

	markCompletedCmd := flag.NewFlagSet("markcompleted", flag.ExitOnError)
	markCompletedID := markCompletedCmd.String("id", "", "The course progress ID.")
	markCompletedCert := markCompletedCmd.String("certificate", "", "An optional certificate reference.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addaccount":
		if err := addAccountCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAccountTenant == "" || *addAccountName == "" || *addAccountEmail == "" {
			addAccountCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addAccountCmd.Usage()
			return errHelp
		}
		return cli.addAccount(*addAccountTenant, *addAccountName, *addAccountEmail, pwd, *addAccountAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordTenant == "" || *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordTenant, *resetPasswordEmail, pwd)
	case "resetprogress":
		if err := resetProgressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetProgressID == "" {
			resetProgressCmd.Usage()
			return errHelp
		}
		return cli.resetProgress(*resetProgressID)
	case "markcompleted":
		if err := markCompletedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *markCompletedID == "" {
			markCompletedCmd.Usage()
			return errHelp
		}
		return cli.markCompleted(*markCompletedID, *markCompletedCert)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
