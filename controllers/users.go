package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/idpsync"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/logic"
	"github.com/gravitl/usersync/models"
	"github.com/gravitl/usersync/schema"
	"github.com/samber/lo"
)

var validate = validator.New()

func (a *API) userHandlers(r *mux.Router) {
	r.HandleFunc("/api/users", logic.SecurityCheck(http.HandlerFunc(a.getUsers))).Methods(http.MethodGet)
	r.HandleFunc("/api/users", logic.SecurityCheck(http.HandlerFunc(a.createUser))).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id}", logic.SecurityCheck(http.HandlerFunc(a.getUser))).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id}", logic.SecurityCheck(http.HandlerFunc(a.updateUser))).Methods(http.MethodPut)
	r.HandleFunc("/api/users/{id}", logic.SecurityCheck(http.HandlerFunc(a.deleteUser))).Methods(http.MethodDelete)
}

func toReturnUser(user schema.User) models.ReturnUser {
	return models.ReturnUser{
		ID:            user.ID,
		ExternalID:    user.GetExternalID(),
		Email:         user.Email,
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *API) getUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.List(r.Context())
	if err != nil {
		logic.ReturnErrorResponse(w, r, logic.FormatError(err, "internal"))
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(users, func(user schema.User, _ int) models.ReturnUser {
		return toReturnUser(user)
	}))
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logic.ReturnErrorResponse(w, r, formatStoreError(err))
		return
	}
	writeJSON(w, http.StatusOK, toReturnUser(*user))
}

func decodeUserRequest(r *http.Request) (models.UserRequest, error) {
	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, validate.Struct(req)
}

// createUser is the organic local create; the push listener creates and
// links the remote identity.
func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUserRequest(r)
	if err != nil {
		logic.ReturnErrorResponse(w, r, logic.FormatError(err, "badrequest"))
		return
	}
	ctx := r.Context()
	if _, err := a.store.GetByEmail(ctx, req.Email); err == nil {
		logic.ReturnErrorResponse(w, r, logic.FormatError(errors.New("email already registered"), "conflict"))
		return
	}

	username, err := idpsync.NewUsernameResolver(a.store).Resolve(ctx,
		idpsync.UsernameBase(idp.User{Email: req.Email, DisplayName: req.DisplayName}), "")
	if err != nil {
		logic.ReturnErrorResponse(w, r, logic.FormatError(err, "internal"))
		return
	}
	first, last := idp.SplitDisplayName(req.DisplayName)
	user := &schema.User{
		Email:         req.Email,
		Username:      username,
		FirstName:     first,
		LastName:      last,
		EmailVerified: req.EmailVerified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.store.Register(ctx, user, req.Password); err != nil {
		logic.ReturnErrorResponse(w, r, formatStoreError(err))
		return
	}
	logger.Log(1, "created user", user.Email)
	// reread to pick up the link written by the push listener
	if stored, err := a.store.Get(ctx, user.ID); err == nil {
		user = stored
	}
	writeJSON(w, http.StatusOK, toReturnUser(*user))
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUserRequest(r)
	if err != nil {
		logic.ReturnErrorResponse(w, r, logic.FormatError(err, "badrequest"))
		return
	}
	ctx := r.Context()
	user, err := a.store.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		logic.ReturnErrorResponse(w, r, formatStoreError(err))
		return
	}
	user.Email = req.Email
	user.EmailVerified = req.EmailVerified
	if req.DisplayName != "" {
		user.FirstName, user.LastName = idp.SplitDisplayName(req.DisplayName)
	}
	if err := a.store.Update(ctx, user); err != nil {
		logic.ReturnErrorResponse(w, r, formatStoreError(err))
		return
	}
	logger.Log(1, "updated user", user.Email)
	writeJSON(w, http.StatusOK, toReturnUser(*user))
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := a.store.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		logic.ReturnErrorResponse(w, r, formatStoreError(err))
		return
	}
	if err := a.store.Delete(ctx, user); err != nil {
		logic.ReturnErrorResponse(w, r, formatStoreError(err))
		return
	}
	logger.Log(1, "deleted user", user.Email)
	logic.ReturnSuccessResponse(w, r, user.Email+" deleted.")
}

func formatStoreError(err error) models.ErrorResponse {
	if errors.Is(err, schema.ErrUserNotFound) || errors.Is(err, schema.ErrUserIdentifiersNotProvided) {
		return logic.FormatError(err, "notfound")
	}
	if errors.Is(err, schema.ErrUserExists) {
		return logic.FormatError(err, "conflict")
	}
	return logic.FormatError(err, "internal")
}
