package handlers

import (
	"net/http"

	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/gorilla/mux"
)

// BatchUpdateRequest lists the tracking IDs of one memo whose payment was collected
type BatchUpdateRequest struct {
	MemoID   string   `json:"memoId"`
	OrderIDs []string `json:"orderIds"`
}

// markReceived marks a To Pay parcel as paid
func (r *Router) markReceived(w http.ResponseWriter, req *http.Request) {
	r.setPayment(w, req, models.PaymentStatusReceived)
}

// markToPay reverts a parcel to To Pay
func (r *Router) markToPay(w http.ResponseWriter, req *http.Request) {
	r.setPayment(w, req, models.PaymentStatusToPay)
}

func (r *Router) setPayment(w http.ResponseWriter, req *http.Request, status models.PaymentStatus) {
	key := mux.Vars(req)["id"]

	var (
		pt  *models.PaymentTracking
		err error
	)
	if status == models.PaymentStatusReceived {
		pt, err = r.payments.MarkReceived(req.Context(), key, actor(req))
	} else {
		pt, err = r.payments.MarkToPay(req.Context(), key, actor(req))
	}
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, pt)
}

// batchUpdatePayments settles the delivered To Pay parcels of one memo
func (r *Router) batchUpdatePayments(w http.ResponseWriter, req *http.Request) {
	var body BatchUpdateRequest
	if err := decode(req, &body); err != nil {
		respondError(w, req, err)
		return
	}

	result, err := r.payments.BatchUpdateForLedger(req.Context(), body.MemoID, body.OrderIDs, actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
