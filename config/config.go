// Package config holds the usersync environment file.
// Reads from the environments/<USERSYNC_ENV>.yaml file by default; every value
// can be overridden by an environment variable through the servercfg package.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// setting dev by default
func getEnv() string {
	env := os.Getenv("USERSYNC_ENV")
	if len(env) == 0 {
		return "dev"
	}
	return env
}

// Config : application config stored as global variable
var Config *EnvironmentConfig = &EnvironmentConfig{}

// EnvironmentConfig - environment conf struct
type EnvironmentConfig struct {
	Server ServerConfig `yaml:"server"`
	SQL    SQLConfig    `yaml:"sql"`
	IDP    IDPConfig    `yaml:"idp"`
}

// ServerConfig - server conf struct
type ServerConfig struct {
	APIPort       string `yaml:"apiport"`
	AllowedOrigin string `yaml:"allowedorigin"`
	MasterKey     string `yaml:"masterkey"`
	Database      string `yaml:"database" validate:"omitempty,oneof=sqlite postgres"`
	SQLitePath    string `yaml:"sqlitepath"`
	Verbosity     int32  `yaml:"verbosity" validate:"gte=0,lte=4"`
	Environment   string `yaml:"environment" validate:"omitempty,oneof=dev prod"`
}

// SQLConfig - Generic SQL Config
type SQLConfig struct {
	Host     string `yaml:"host"`
	Port     int32  `yaml:"port" validate:"gte=0,lte=65535"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
	SSLMode  string `yaml:"sslmode"`
}

// IDPConfig - identity provider settings used by the sync hook
type IDPConfig struct {
	AuthProvider string `yaml:"authprovider" validate:"omitempty,oneof=firebase google okta static"`
	// durations use Go syntax, e.g. "15m"
	SyncInterval string `yaml:"syncinterval"`
	FetchTimeout string `yaml:"fetchtimeout"`
	FetchRetries int    `yaml:"fetchretries" validate:"gte=0"`

	FirebaseProjectID       string `yaml:"firebaseprojectid"`
	FirebaseCredentialsFile string `yaml:"firebasecredentialsfile"`
	FirebaseEmulatorHost    string `yaml:"firebaseemulatorhost"`

	GoogleCredentialsFile string `yaml:"googlecredentialsfile"`
	GoogleAdminEmail      string `yaml:"googleadminemail" validate:"omitempty,email"`
	GoogleCustomerID      string `yaml:"googlecustomerid"`

	OktaOrgURL   string `yaml:"oktaorgurl" validate:"omitempty,url"`
	OktaAPIToken string `yaml:"oktaapitoken"`

	StaticFile string `yaml:"staticfile"`
}

// ReadConfig - reads and validates the env file
func ReadConfig(absolutePath string) (*EnvironmentConfig, error) {
	if len(absolutePath) == 0 {
		absolutePath = fmt.Sprintf("environments/%s.yaml", getEnv())
	}
	f, err := os.Open(absolutePath)
	var cfg EnvironmentConfig
	if err != nil {
		return &cfg, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return &cfg, fmt.Errorf("decoding %s: %w", absolutePath, err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return &cfg, fmt.Errorf("invalid config %s: %w", absolutePath, err)
	}
	return &cfg, nil
}
