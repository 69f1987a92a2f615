package handlers

import (
	"github.com/friendstransport/fleetgo/internal/consignment"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/money"
)

// Response shapes. Amounts are stored scaled and sent as decimals.

type itemView struct {
	models.Item
	Freight money.Amount `json:"freight"`
	Hamali  money.Amount `json:"hamali"`
}

type parcelView struct {
	*models.Parcel
	Items              []itemView   `json:"items,omitempty"`
	Freight            money.Amount `json:"freight"`
	Hamali             money.Amount `json:"hamali"`
	DoorDeliveryCharge money.Amount `json:"doorDeliveryCharge"`
}

func newParcelView(p *models.Parcel) parcelView {
	v := parcelView{
		Parcel:             p,
		Freight:            money.Amount(p.Freight),
		Hamali:             money.Amount(p.Hamali),
		DoorDeliveryCharge: money.Amount(p.DoorDeliveryCharge),
	}
	for _, it := range p.Items {
		v.Items = append(v.Items, itemView{
			Item:    it,
			Freight: money.Amount(it.Freight),
			Hamali:  money.Amount(it.Hamali),
		})
	}
	return v
}

type trackingView struct {
	Parcel        parcelView           `json:"parcel"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus,omitempty"`
	Events        []models.ParcelEvent `json:"events"`
}

func newTrackingView(t *consignment.Tracking) trackingView {
	return trackingView{
		Parcel:        newParcelView(t.Parcel),
		PaymentStatus: t.PaymentStatus,
		Events:        t.Events,
	}
}

type ledgerView struct {
	*models.Ledger
	Charges money.Amount `json:"charges"`
}

func newLedgerView(l *models.Ledger) ledgerView {
	return ledgerView{Ledger: l, Charges: money.Amount(l.Charges)}
}
