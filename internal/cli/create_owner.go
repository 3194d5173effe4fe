package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entrypoint"
)

type createOwnerOptions struct {
	Username string
	Email    string
	FullName string
	Password string
}

// OwnerCreator creates the first owner account.
type OwnerCreator interface {
	CreateOwner(username, email, password, fullName string) (*auth.Identity, error)
}

// PasswordReader prompts for a password without echoing it.
type PasswordReader func(prompt string) (string, error)

func newCreateOwnerCommand() *cobra.Command {
	var opts createOwnerOptions

	cmd := &cobra.Command{
		Use:   "create-owner",
		Short: "Create the owner account",
		Long: "Create the single owner account. Fails once an owner exists.\n" +
			"The password is prompted for when --password is not given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			db, err := entrypoint.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeQuietly(db)

			identity, err := createOwner(entrypoint.NewAuthService(db, cfg), opts, terminalPassword(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			cmd.Printf("Created owner %q (user #%d)\n", identity.User.Username, identity.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "owner login name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "owner email address (required)")
	cmd.Flags().StringVar(&opts.FullName, "full-name", "", "display name, defaults to the username")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password, prompted for when omitted")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func createOwner(creator OwnerCreator, opts createOwnerOptions, readPassword PasswordReader) (*auth.Identity, error) {
	fullName := strings.TrimSpace(opts.FullName)
	if fullName == "" {
		fullName = opts.Username
	}

	password := opts.Password
	if password == "" {
		first, err := readPassword("Password: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		second, err := readPassword("Repeat password: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		if first != second {
			return nil, errors.New("passwords do not match")
		}
		password = first
	}

	identity, err := creator.CreateOwner(opts.Username, opts.Email, password, fullName)
	if errors.Is(err, auth.ErrSetupAlreadyDone) {
		return nil, fmt.Errorf("%w: use the owner account to manage staff", err)
	}
	return identity, err
}

func terminalPassword(prompts io.Writer) PasswordReader {
	return func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("stdin is not a terminal, pass --password")
		}
		fmt.Fprint(prompts, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompts)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
}
