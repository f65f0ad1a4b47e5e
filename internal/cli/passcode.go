package cli

import (
	"fmt"

	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peermail/internal/server/services"
	"github.com/spf13/cobra"
)

// NewPassCodeCommand creates the pass-code command. It issues a code
// directly against the store, bypassing the setup API.
func NewPassCodeCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "pass-code",
		Short: "Issue a one-time pass code for a local account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd.Context(), func(repos repomanager.RepositoryManager) error {
				svc := services.NewPassCodeService(repos, rootOpts.logger(cmd.ErrOrStderr()))
				code, err := svc.Issue(cmd.Context(), owner)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), code)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&owner, "address", "", "owner address (<id>*<domain>)")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}
