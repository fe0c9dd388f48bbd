package servercfg

import (
	"os"
	"strconv"
	"time"

	"github.com/gravitl/usersync/config"
)

var (
	Version = "dev"
)

const (
	// DevEnvironment - environment where sync runs without confirmation
	DevEnvironment = "dev"
	// ProdEnvironment - environment requiring an explicit force flag
	ProdEnvironment = "prod"

	defaultSyncInterval = 15 * time.Minute
	defaultFetchTimeout = 2 * time.Minute
	defaultFetchRetries = 3
)

// SetVersion - set version of usersync
func SetVersion(v string) {
	Version = v
}

// GetVersion - version of usersync
func GetVersion() string {
	return Version
}

// GetDB - gets the database type
func GetDB() string {
	database := "sqlite"
	if os.Getenv("DATABASE") != "" {
		database = os.Getenv("DATABASE")
	} else if config.Config.Server.Database != "" {
		database = config.Config.Server.Database
	}
	return database
}

// GetSQLitePath - gets the sqlite file (or in-memory uri) to use
func GetSQLitePath() string {
	path := "data/usersync.db"
	if os.Getenv("SQLITE_PATH") != "" {
		path = os.Getenv("SQLITE_PATH")
	} else if config.Config.Server.SQLitePath != "" {
		path = config.Config.Server.SQLitePath
	}
	return path
}

// GetAPIPort - gets the api port
func GetAPIPort() string {
	apiport := "8081"
	if os.Getenv("API_PORT") != "" {
		apiport = os.Getenv("API_PORT")
	} else if config.Config.Server.APIPort != "" {
		apiport = config.Config.Server.APIPort
	}
	return apiport
}

// GetMasterKey - gets the configured master key of server
func GetMasterKey() string {
	key := ""
	if os.Getenv("MASTER_KEY") != "" {
		key = os.Getenv("MASTER_KEY")
	} else if config.Config.Server.MasterKey != "" {
		key = config.Config.Server.MasterKey
	}
	return key
}

// GetAllowedOrigin - get the allowed origin
func GetAllowedOrigin() string {
	allowedorigin := "*"
	if os.Getenv("CORS_ALLOWED_ORIGIN") != "" {
		allowedorigin = os.Getenv("CORS_ALLOWED_ORIGIN")
	} else if config.Config.Server.AllowedOrigin != "" {
		allowedorigin = config.Config.Server.AllowedOrigin
	}
	return allowedorigin
}

// GetVerbosity - gets the log verbosity, clamped to 0-4
func GetVerbosity() int32 {
	var verbosity = 0
	var err error
	if os.Getenv("VERBOSITY") != "" {
		verbosity, err = strconv.Atoi(os.Getenv("VERBOSITY"))
		if err != nil {
			verbosity = 0
		}
	} else if config.Config.Server.Verbosity != 0 {
		verbosity = int(config.Config.Server.Verbosity)
	}
	if verbosity < 0 || verbosity > 4 {
		verbosity = 0
	}
	return int32(verbosity)
}

// GetEnvironment - returns the environment the server is running in (e.g. dev, prod)
func GetEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if config.Config.Server.Environment != "" {
		return config.Config.Server.Environment
	}
	return ProdEnvironment
}

// IsDevEnvironment - checks if sync may run without an explicit force
func IsDevEnvironment() bool {
	return GetEnvironment() == DevEnvironment
}

// GetAuthProvider - gets the identity provider kept in sync
func GetAuthProvider() string {
	if os.Getenv("AUTH_PROVIDER") != "" {
		return os.Getenv("AUTH_PROVIDER")
	}
	return config.Config.IDP.AuthProvider
}

// GetIDPSyncInterval - interval of the periodic sync hook
func GetIDPSyncInterval() time.Duration {
	return getDuration("IDP_SYNC_INTERVAL", config.Config.IDP.SyncInterval, defaultSyncInterval)
}

// GetIDPFetchTimeout - overall bound on fetching the remote user set
func GetIDPFetchTimeout() time.Duration {
	return getDuration("IDP_FETCH_TIMEOUT", config.Config.IDP.FetchTimeout, defaultFetchTimeout)
}

// GetIDPFetchRetries - number of retries for a failed remote listing
func GetIDPFetchRetries() int {
	retries := defaultFetchRetries
	if v, err := strconv.Atoi(os.Getenv("IDP_FETCH_RETRIES")); err == nil && v >= 0 {
		retries = v
	} else if config.Config.IDP.FetchRetries != 0 {
		retries = config.Config.IDP.FetchRetries
	}
	return retries
}

func getDuration(envKey, fileValue string, fallback time.Duration) time.Duration {
	raw := os.Getenv(envKey)
	if raw == "" {
		raw = fileValue
	}
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
