package handlers

import (
	"net/http"
	"strconv"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/services/printer"
	"github.com/gorilla/mux"
)

// copiesParam reads ?count=, defaulting to one label
func copiesParam(req *http.Request) (int, error) {
	raw := req.URL.Query().Get("count")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > printer.MaxCopies {
		return 0, apperr.Validation("count must be between 1 and %d", printer.MaxCopies)
	}
	return n, nil
}

func labelFor(p *models.Parcel) printer.ParcelLabel {
	l := printer.ParcelLabel{
		TrackingID: p.TrackingID,
		Date:       p.PlacedAt.Format("02/01/2006"),
	}
	if p.Receiver != nil {
		l.ReceiverName = p.Receiver.Name
		l.ReceiverPhone = p.Receiver.PhoneNo
	}
	if p.SourceWarehouse != nil {
		l.Source = p.SourceWarehouse.Name
	}
	if p.DestinationWarehouse != nil {
		l.Destination = p.DestinationWarehouse.Name
	}
	return l
}

func (r *Router) sendLabels(w http.ResponseWriter, req *http.Request, name string, labels []printer.ParcelLabel, copies int) {
	pdf, err := printer.GenerateLabelsPDF(labels, printer.DefaultLayout(r.cfg.LabelBaseURL, copies))
	if err != nil {
		respondError(w, req, apperr.Unavailable(err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+name+".pdf")
	w.Write(pdf)
}

// parcelLabels prints count QR stickers for one parcel
func (r *Router) parcelLabels(w http.ResponseWriter, req *http.Request) {
	copies, err := copiesParam(req)
	if err != nil {
		respondError(w, req, err)
		return
	}
	t, err := r.parcels.Track(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, req, err)
		return
	}
	r.sendLabels(w, req, t.Parcel.TrackingID, []printer.ParcelLabel{labelFor(t.Parcel)}, copies)
}

// ledgerLabels prints count QR stickers for every parcel of a ledger
func (r *Router) ledgerLabels(w http.ResponseWriter, req *http.Request) {
	copies, err := copiesParam(req)
	if err != nil {
		respondError(w, req, err)
		return
	}
	l, parcels, err := r.ledgers.Manifest(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, req, err)
		return
	}

	labels := make([]printer.ParcelLabel, 0, len(parcels))
	for i := range parcels {
		labels = append(labels, labelFor(&parcels[i]))
	}
	r.sendLabels(w, req, l.LedgerNo, labels, copies)
}
