package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"presence.monitor/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service handler.Service) *mux.Router {

	monitorHandler := handler.MonitorHandler{
		Service: service,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/status", monitorHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/card", monitorHandler.Card).Methods(http.MethodGet)
	api.HandleFunc("/toggle", monitorHandler.Toggle).Methods(http.MethodPost)
	api.HandleFunc("/refresh", monitorHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/history", monitorHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
