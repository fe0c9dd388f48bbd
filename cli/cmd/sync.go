package cmd

import (
	"errors"
	"fmt"

	"github.com/gravitl/usersync/idpsync"
	"github.com/gravitl/usersync/logic"
	"github.com/gravitl/usersync/servercfg"
	"github.com/spf13/cobra"
)

var (
	syncForce          bool
	syncUpdateExisting bool
	syncDeleteOrphans  bool
)

var errUntrustedSync = errors.New("refusing to sync outside a dev environment without --force")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Args:  cobra.NoArgs,
	Short: "Reconcile local users with the identity provider",
	Long: `Reconcile local users with the identity provider.
Without flags, users are created and updated from the provider and linked
users it no longer has are deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncForce && !servercfg.IsDevEnvironment() {
			return errUntrustedSync
		}
		mode := idpsync.ModeFull
		switch {
		case syncUpdateExisting:
			mode = idpsync.ModeUpdateExisting
		case syncDeleteOrphans:
			mode = idpsync.ModeDeleteOrphans
		}

		ctx := cmd.Context()
		client, err := idpsync.NewClient(ctx)
		if err != nil {
			return err
		}
		coordinator := idpsync.NewCoordinator(client, logic.NewUserStore())
		result, err := coordinator.Run(ctx, mode)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode: %s\nsynced: %d\ncreated: %d\nupdated: %d\ndeleted: %d\nfailed: %d\n",
			mode, result.Synced, result.Created, result.Updated, result.Deleted, len(result.Errors))
		for _, recErr := range result.Errors {
			fmt.Fprintln(out, "  "+recErr.Error())
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "run outside a dev environment")
	syncCmd.Flags().BoolVar(&syncUpdateExisting, "update-existing", false, "only refresh users whose email already exists locally")
	syncCmd.Flags().BoolVar(&syncDeleteOrphans, "delete-orphans", false, "only delete linked users the provider no longer has")
	syncCmd.MarkFlagsMutuallyExclusive("update-existing", "delete-orphans")
}
