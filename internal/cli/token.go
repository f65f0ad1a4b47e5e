package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/common"
	"github.com/dmitrijs2005/peermail/internal/server/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errSecretRequired = errors.New("--secret is required when stdin is not a terminal")

type tokenOptions struct {
	Address string
	Secret  string
	TTL     time.Duration
}

// NewTokenCommand creates the token command, which mints a bearer token
// for the setup API.
func NewTokenCommand() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a setup API token for a local account",
		Long: `Mint a setup API token for a local account.

The secret must match the server's secret key. When --secret is omitted it
is read from the terminal without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "address", "", "account address (<id>*<domain>)")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "server secret key")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func runToken(cmd *cobra.Command, opts *tokenOptions) error {
	if _, err := address.Parse(opts.Address); err != nil {
		return fmt.Errorf("invalid address %q: %w", opts.Address, err)
	}
	if opts.TTL <= 0 {
		return errors.New("--ttl must be positive")
	}

	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		fd := int(os.Stdin.Fd())
		if !isTerminal(fd) {
			return errSecretRequired
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Enter secret key: ")
		pw, err := readPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		secret = pw
	}
	defer common.WipeByteArray(secret)

	if len(secret) == 0 {
		return errSecretRequired
	}

	token, err := auth.GenerateToken(opts.Address, secret, opts.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
