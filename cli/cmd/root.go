package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/gravitl/usersync/config"
	"github.com/gravitl/usersync/db"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/schema"
	"github.com/gravitl/usersync/servercfg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "usersync",
	Short:         "Keeps local users in sync with an identity provider",
	Long:          `Keeps local users in sync with an identity provider`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// GetRoot returns the root of all subcommands
func GetRoot() *cobra.Command {
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	servercfg.SetVersion(version)
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		logger.Log(0, "error:", err.Error())
		os.Exit(1)
	}
}

// setup loads .env and the config file, then connects the database.
func setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.ReadConfig(configPath)
	switch {
	case err == nil:
		config.Config = cfg
	case configPath == "" && errors.Is(err, os.ErrNotExist):
		logger.Log(1, "no config file found, using environment only")
	default:
		return err
	}

	logger.Verbosity = int(servercfg.GetVerbosity())

	if err := db.InitializeDB(schema.ListModels()...); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	logger.Log(1, "database successfully connected")
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default environments/<USERSYNC_ENV>.yaml)")

	// IMP: Bind subcommands here
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}
