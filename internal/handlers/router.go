package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/buildinfo"
	"github.com/friendstransport/fleetgo/internal/config"
	"github.com/friendstransport/fleetgo/internal/consignment"
	"github.com/friendstransport/fleetgo/internal/events"
	"github.com/friendstransport/fleetgo/internal/ledger"
	"github.com/friendstransport/fleetgo/internal/middleware"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/payment"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/websocket"
	"github.com/gorilla/mux"
)

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	cfg      *config.Config
	store    store.Store
	hub      *websocket.Hub
	parcels  *consignment.Service
	ledgers  *ledger.Service
	payments *payment.Service
}

// NewRouter creates a new HTTP router with all routes. hub may be nil, in
// which case events are dropped and /ws/events is not served.
func NewRouter(cfg *config.Config, s store.Store, hub *websocket.Hub) *Router {
	var notifier events.Notifier = events.Discard{}
	if hub != nil {
		notifier = hub
	}

	r := &Router{
		Router:   mux.NewRouter(),
		cfg:      cfg,
		store:    s,
		hub:      hub,
		parcels:  consignment.NewService(s, notifier),
		ledgers:  ledger.NewService(s, notifier),
		payments: payment.NewService(s, notifier),
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Public routes
	r.HandleFunc("/api/auth/login", r.login).Methods("POST")
	r.HandleFunc("/api/parcel/track/{id}", r.trackParcel).Methods("GET")
	r.HandleFunc("/api/ledger/track/{id}", r.trackLedger).Methods("GET")
	if hub != nil {
		r.HandleFunc("/ws/events", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(hub, w, req)
		})
	}

	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	// Admin routes
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth, middleware.RequireAdmin)
	admin.HandleFunc("/parcel/{id}", r.deleteParcel).Methods("DELETE")
	admin.HandleFunc("/warehouse", r.createWarehouse).Methods("POST")

	// Employee routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth)
	api.HandleFunc("/parcel/new", r.createParcel).Methods("POST")
	api.HandleFunc("/parcel/edit/{id}", r.editParcel).Methods("PUT")
	api.HandleFunc("/parcel/labels/{id}", r.parcelLabels).Methods("GET")
	api.HandleFunc("/ledger/new", r.createLedger).Methods("POST")
	api.HandleFunc("/ledger/labels/{id}", r.ledgerLabels).Methods("GET")
	api.HandleFunc("/ledger/edit/{id}", r.editLedger).Methods("PUT")
	api.HandleFunc("/ledger/scan-deliver/{id}", r.scanDeliver).Methods("POST")
	api.HandleFunc("/ledger/verify-deliver/{id}", r.verifyDeliver).Methods("PUT")
	api.HandleFunc("/payment-tracking/batch-update", r.batchUpdatePayments).Methods("PATCH")
	api.HandleFunc("/payment-tracking/{id}/received", r.markReceived).Methods("PATCH")
	api.HandleFunc("/payment-tracking/{id}/topay", r.markToPay).Methods("PATCH")
	api.HandleFunc("/warehouse", r.listWarehouses).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"store":  r.cfg.StoreDriver,
		"build":  buildinfo.Current(),
	}
	if r.hub != nil {
		status["subscribers"] = r.hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, status)
}

// actor returns the employee set by the auth middleware
func actor(req *http.Request) models.EmployeeContext {
	a, _ := middleware.ActorFromContext(req.Context())
	return a
}

// decode reads a JSON body into v
func decode(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request payload")
	}
	return nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps err to its status code and sends {"error", "kind"}
func respondError(w http.ResponseWriter, req *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", req.Method, req.URL.Path, err)
	}
	respondJSON(w, status, map[string]string{
		"error": apperr.Message(err),
		"kind":  string(kind),
	})
}
