package controller

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/idpsync"
	"github.com/gravitl/usersync/logic"
	"github.com/gravitl/usersync/servercfg"
)

var errUntrustedSync = errors.New("sync outside a dev environment requires force=true")

func (a *API) idpHandlers(r *mux.Router) {
	r.HandleFunc("/api/idp/sync", logic.SecurityCheck(http.HandlerFunc(a.syncIDP))).Methods(http.MethodPost)
	r.HandleFunc("/api/idp/sync/status", logic.SecurityCheck(http.HandlerFunc(a.getIDPSyncStatus))).Methods(http.MethodGet)
}

func (a *API) syncIDP(w http.ResponseWriter, r *http.Request) {
	mode, err := idpsync.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		logic.ReturnErrorResponse(w, r, logic.FormatError(err, "badrequest"))
		return
	}
	if !servercfg.IsDevEnvironment() && r.URL.Query().Get("force") != "true" {
		logic.ReturnErrorResponse(w, r, logic.FormatError(errUntrustedSync, "forbidden"))
		return
	}

	result, err := a.sync.Run(r.Context(), mode)
	if err != nil {
		errType := "internal"
		switch {
		case errors.Is(err, idpsync.ErrSyncInProgress):
			errType = "conflict"
		case errors.Is(err, idp.ErrNotConfigured):
			errType = "badrequest"
		case errors.Is(err, idpsync.ErrIncompleteFetch):
			errType = "unavailable"
		}
		logic.ReturnErrorResponse(w, r, logic.FormatError(err, errType))
		return
	}
	logic.ReturnSuccessResponseWithJson(w, r, result.Model(mode), "sync "+string(mode)+" complete")
}

func (a *API) getIDPSyncStatus(w http.ResponseWriter, r *http.Request) {
	logic.ReturnSuccessResponseWithJson(w, r, a.sync.Status(), "")
}
