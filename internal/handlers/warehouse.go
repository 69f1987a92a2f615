package handlers

import (
	"net/http"
	"strings"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/sequence"
	"github.com/friendstransport/fleetgo/internal/store"
)

// WarehouseRequest is the admin payload for a new warehouse
type WarehouseRequest struct {
	WarehouseCode string `json:"warehouseCode"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	PhoneNo       string `json:"phoneNo"`
	IsSource      bool   `json:"isSource"`
	Order         int    `json:"order"`
}

func (w WarehouseRequest) validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return apperr.Validation("warehouse name is required")
	}
	// the code must be able to prefix tracking IDs
	if _, err := sequence.FormatTrackingID(strings.TrimSpace(w.WarehouseCode), 1); err != nil {
		return apperr.Validation("invalid warehouse code %q", w.WarehouseCode)
	}
	return nil
}

// listWarehouses returns all warehouses in display order
func (r *Router) listWarehouses(w http.ResponseWriter, req *http.Request) {
	var list []models.Warehouse
	err := r.store.WithTx(req.Context(), func(tx store.Tx) error {
		var err error
		list, err = tx.Warehouses().List()
		return err
	})
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// createWarehouse registers a warehouse with both counters at zero
func (r *Router) createWarehouse(w http.ResponseWriter, req *http.Request) {
	var body WarehouseRequest
	if err := decode(req, &body); err != nil {
		respondError(w, req, err)
		return
	}
	if err := body.validate(); err != nil {
		respondError(w, req, err)
		return
	}

	wh := &models.Warehouse{
		WarehouseCode: strings.TrimSpace(body.WarehouseCode),
		Name:          strings.TrimSpace(body.Name),
		Address:       strings.TrimSpace(body.Address),
		PhoneNo:       strings.TrimSpace(body.PhoneNo),
		IsSource:      body.IsSource,
		DisplayOrder:  body.Order,
	}
	err := r.store.WithTx(req.Context(), func(tx store.Tx) error {
		return tx.Warehouses().Create(wh)
	})
	if apperr.Is(err, apperr.KindConflict) {
		respondError(w, req, apperr.Conflict(err, "warehouse code %s already exists", wh.WarehouseCode))
		return
	}
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, wh)
}
