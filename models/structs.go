package models

import "time"

// Error - a constant error string
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrorResponse is struct for error
type ErrorResponse struct {
	Code    int
	Message string
}

// SuccessResponse is struct for sending error message with code.
type SuccessResponse struct {
	Code     int
	Message  string
	Response interface{}
}

// IDPSyncStatus - state of the most recent sync
type IDPSyncStatus struct {
	// Status would be one of: in_progress, completed or failed.
	Status string `json:"status"`
	// Description is empty if the sync is ongoing or completed,
	// and describes the error when the sync fails.
	Description string `json:"description"`
}

// SyncResult - counters of one reconciliation pass
type SyncResult struct {
	Mode    string   `json:"mode"`
	Synced  int      `json:"synced"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// UserRequest - body of user create and update calls
type UserRequest struct {
	Email         string `json:"email" validate:"required,email"`
	DisplayName   string `json:"display_name" validate:"max=150"`
	Password      string `json:"password,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// ReturnUser - user as exposed by the api, without the password
type ReturnUser struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
