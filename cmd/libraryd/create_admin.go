package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/registeruser"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

var (
	errNoTerminal       = errors.New("stdin is not a terminal, use --password-stdin")
	errPasswordMismatch = errors.New("passwords do not match")
)

// operatorActor is the actor on whose behalf CLI operators create accounts.
// Whoever can run libraryd against the storage is trusted as an administrator.
var operatorActor = core.BuildActor(core.NewID(), ledger.RoleAdmin)

func (c *cli) createAdminCommand() *cobra.Command {
	var name, email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, the password is prompted for",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, rt *runtime) error {
			var password string
			var err error

			if passwordStdin {
				password, err = readPasswordLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}

			if err != nil {
				return err
			}

			handlers, err := rt.handlers()
			if err != nil {
				return err
			}

			result, err := handlers.RegisterUser.Handle(cmd.Context(), registeruser.BuildCommand(
				core.NewID(),
				operatorActor,
				name,
				email,
				password,
				ledger.RoleAdmin,
				time.Now(),
			))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", result.Value.Email, result.Value.ID)

			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "display name of the admin")
	cmd.Flags().StringVar(&email, "email", "", "login email of the admin")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit into int

	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}

	read := func(label string) (string, error) {
		fmt.Fprint(prompt, label)
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}

		return string(password), nil
	}

	password, err := read("Password: ")
	if err != nil {
		return "", err
	}

	repeated, err := read("Repeat password: ")
	if err != nil {
		return "", err
	}

	if password != repeated {
		return "", errPasswordMismatch
	}

	return password, nil
}
