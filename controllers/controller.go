package controller

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gravitl/usersync/idpsync"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/logic"
	"github.com/gravitl/usersync/servercfg"
)

// API serves the user and sync endpoints.
type API struct {
	store *logic.UserStore
	sync  *idpsync.Coordinator
}

func NewAPI(store *logic.UserStore, coordinator *idpsync.Coordinator) *API {
	return &API{store: store, sync: coordinator}
}

// Router returns the routes with CORS applied.
func (a *API) Router() http.Handler {
	r := mux.NewRouter()

	headersOk := handlers.AllowedHeaders([]string{"Access-Control-Allow-Origin", "X-Requested-With", "Content-Type", "authorization"})
	originsOk := handlers.AllowedOrigins([]string{servercfg.GetAllowedOrigin()})
	methodsOk := handlers.AllowedMethods([]string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete})

	a.userHandlers(r)
	a.idpHandlers(r)

	return handlers.CORS(originsOk, headersOk, methodsOk)(r)
}

// HandleRESTRequests serves until ctx is done, then shuts down gracefully.
func (a *API) HandleRESTRequests(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	port := servercfg.GetAPIPort()
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log(0, "REST server failed:", err.Error())
		}
	}()
	logger.Log(0, "REST Server successfully started on port ", port, " (REST)")

	<-ctx.Done()
	logger.Log(0, "Stopping the REST server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log(0, "REST shutdown error occurred -", err.Error())
	}
	logger.Log(0, "REST Server closed.")
}
