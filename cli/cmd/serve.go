package cmd

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	controller "github.com/gravitl/usersync/controllers"
	"github.com/gravitl/usersync/db"
	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/idpsync"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/logic"
	"github.com/gravitl/usersync/servercfg"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Serve the REST API and run the periodic sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, os.Interrupt)
		defer stop()
		defer func() {
			if err := db.CloseDB(); err != nil {
				logger.Log(0, "error closing database:", err.Error())
			}
		}()

		if servercfg.GetMasterKey() == "" {
			logger.Log(0, "warning: MASTER_KEY not set, the api will refuse every request")
		}

		store := logic.NewUserStore()
		client, err := idpsync.NewClient(ctx)
		switch {
		case err == nil:
			store.OnChange(logic.PushToIDP(client, store))
			logger.Log(0, "identity provider,", servercfg.GetAuthProvider()+",", "initialized")
		case errors.Is(err, idp.ErrNotConfigured):
			logger.Log(0, "continuing without an identity provider:", err.Error())
		default:
			return err
		}
		coordinator := idpsync.NewCoordinator(client, store)
		if client != nil {
			stopHook := coordinator.StartHook(ctx, servercfg.GetIDPSyncInterval())
			defer stopHook()
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go controller.NewAPI(store, coordinator).HandleRESTRequests(ctx, &wg)
		wg.Wait()
		return nil
	},
}
