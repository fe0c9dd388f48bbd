package servercfg

import (
	"os"

	"github.com/gravitl/usersync/config"
)

func getString(envKey, fileValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fileValue
}

// GetFirebaseProjectID - project whose auth users are synced
func GetFirebaseProjectID() string {
	return getString("FIREBASE_PROJECT_ID", config.Config.IDP.FirebaseProjectID)
}

// GetFirebaseCredentialsFile - service account json for firebase
func GetFirebaseCredentialsFile() string {
	return getString("FIREBASE_CREDENTIALS_FILE", config.Config.IDP.FirebaseCredentialsFile)
}

// GetFirebaseEmulatorHost - host:port of a local auth emulator, if any
func GetFirebaseEmulatorHost() string {
	return getString("FIREBASE_AUTH_EMULATOR_HOST", config.Config.IDP.FirebaseEmulatorHost)
}

// GetGoogleCredentialsFile - service account json with domain-wide delegation
func GetGoogleCredentialsFile() string {
	return getString("GOOGLE_CREDENTIALS_FILE", config.Config.IDP.GoogleCredentialsFile)
}

// GetGoogleAdminEmail - workspace admin impersonated by the service account
func GetGoogleAdminEmail() string {
	return getString("GOOGLE_ADMIN_EMAIL", config.Config.IDP.GoogleAdminEmail)
}

// GetGoogleCustomerID - workspace customer, "my_customer" by default
func GetGoogleCustomerID() string {
	id := getString("GOOGLE_CUSTOMER_ID", config.Config.IDP.GoogleCustomerID)
	if id == "" {
		id = "my_customer"
	}
	return id
}

// GetOktaOrgURL - okta org url
func GetOktaOrgURL() string {
	return getString("OKTA_ORG_URL", config.Config.IDP.OktaOrgURL)
}

// GetOktaAPIToken - okta api token
func GetOktaAPIToken() string {
	return getString("OKTA_API_TOKEN", config.Config.IDP.OktaAPIToken)
}

// GetStaticIDPFile - yaml file backing the static provider
func GetStaticIDPFile() string {
	return getString("STATIC_IDP_FILE", config.Config.IDP.StaticFile)
}
