package cli

import (
	"fmt"

	"github.com/dmitrijs2005/peermail/internal/address"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peermail/internal/server/services"
	"github.com/spf13/cobra"
)

type accountAddOptions struct {
	Address   string
	Name      string
	NoReplies bool
}

// NewAccountCommand creates the account command group.
func NewAccountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage local accounts",
	}
	cmd.AddCommand(newAccountAddCommand(rootOpts))
	return cmd
}

func newAccountAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &accountAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a local account",
		Long: `Register a local account such as 0*example.com.

The domain part of the address must be the domain the server answers for.
Accounts created with --no-replies cannot be messaged by their contacts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountAdd(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "address", "", "account address (<id>*<domain>)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name shown to contacts")
	cmd.Flags().BoolVar(&opts.NoReplies, "no-replies", false, "do not accept messages from contacts")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runAccountAdd(cmd *cobra.Command, rootOpts *RootOptions, opts *accountAddOptions) error {
	a, err := address.Parse(opts.Address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", opts.Address, err)
	}

	return rootOpts.withStore(cmd.Context(), func(repos repomanager.RepositoryManager) error {
		svc := services.NewAccountService(repos, a.Domain, rootOpts.logger(cmd.ErrOrStderr()))
		account, err := svc.Create(cmd.Context(), a.String(), opts.Name, !opts.NoReplies)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", account.Address, account.DisplayName)
		return err
	})
}
