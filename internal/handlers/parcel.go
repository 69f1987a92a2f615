package handlers

import (
	"net/http"

	"github.com/friendstransport/fleetgo/internal/consignment"
	"github.com/gorilla/mux"
)

// createParcel books a new consignment
func (r *Router) createParcel(w http.ResponseWriter, req *http.Request) {
	var booking consignment.BookingRequest
	if err := decode(req, &booking); err != nil {
		respondError(w, req, err)
		return
	}

	trackingID, err := r.parcels.CreateParcel(req.Context(), booking, actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"message":    "Parcel created successfully",
		"trackingId": trackingID,
	})
}

// trackParcel returns a parcel with its items, clients, payment status and history
func (r *Router) trackParcel(w http.ResponseWriter, req *http.Request) {
	t, err := r.parcels.Track(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, newTrackingView(t))
}

// editParcel applies a partial update
func (r *Router) editParcel(w http.ResponseWriter, req *http.Request) {
	var patch consignment.ParcelPatch
	if err := decode(req, &patch); err != nil {
		respondError(w, req, err)
		return
	}

	p, err := r.parcels.EditParcel(req.Context(), mux.Vars(req)["id"], patch, actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, newParcelView(p))
}

// deleteParcel removes a parcel and everything it owns
func (r *Router) deleteParcel(w http.ResponseWriter, req *http.Request) {
	p, err := r.parcels.DeleteParcel(req.Context(), mux.Vars(req)["id"], actor(req))
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message":    "Parcel deleted successfully",
		"trackingId": p.TrackingID,
	})
}
