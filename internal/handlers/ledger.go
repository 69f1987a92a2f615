package handlers

import (
	"net/http"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/ledger"
	"github.com/gorilla/mux"
)

// createLedger dispatches arrived parcels under a new memo number
func (r *Router) createLedger(w http.ResponseWriter, req *http.Request) {
	var body ledger.CreateRequest
	if err := decode(req, &body); err != nil {
		respondError(w, req, err)
		return
	}

	l, err := r.ledgers.Create(req.Context(), body, actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, newLedgerView(l))
}

// trackLedger returns a ledger by memo number or ID
func (r *Router) trackLedger(w http.ResponseWriter, req *http.Request) {
	l, err := r.ledgers.Track(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, newLedgerView(l))
}

// EditLedgerResponse reports the edited ledger, or that it was deleted with its last parcel
type EditLedgerResponse struct {
	Ledger  *ledgerView `json:"ledger,omitempty"`
	Deleted bool        `json:"deleted"`
}

// editLedger changes vehicle, charges or membership of a dispatched ledger
func (r *Router) editLedger(w http.ResponseWriter, req *http.Request) {
	var body ledger.EditRequest
	if err := decode(req, &body); err != nil {
		respondError(w, req, err)
		return
	}

	res, err := r.ledgers.Edit(req.Context(), mux.Vars(req)["id"], body, actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	out := EditLedgerResponse{Deleted: res.Deleted}
	if res.Ledger != nil {
		v := newLedgerView(res.Ledger)
		out.Ledger = &v
	}
	respondJSON(w, http.StatusOK, out)
}

// ScanDeliverRequest lists the parcels scanned off a vehicle
type ScanDeliverRequest struct {
	Parcels []string `json:"parcels"`
}

// scanDeliver delivers the scanned parcels of a ledger
func (r *Router) scanDeliver(w http.ResponseWriter, req *http.Request) {
	var body ScanDeliverRequest
	if err := decode(req, &body); err != nil {
		respondError(w, req, err)
		return
	}
	if len(body.Parcels) == 0 {
		respondError(w, req, apperr.Validation("at least one scanned parcel is required"))
		return
	}
	r.deliver(w, req, body.Parcels)
}

// verifyDeliver delivers every remaining parcel of a ledger
func (r *Router) verifyDeliver(w http.ResponseWriter, req *http.Request) {
	r.deliver(w, req, nil)
}

func (r *Router) deliver(w http.ResponseWriter, req *http.Request, scanned []string) {
	l, err := r.ledgers.Deliver(req.Context(), mux.Vars(req)["id"], scanned, actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, newLedgerView(l))
}
