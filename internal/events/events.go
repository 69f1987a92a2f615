// Package events builds parcel audit records and fans them out to live
// subscribers once the transaction that wrote them has committed.
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/store"
	"gorm.io/datatypes"
)

// Notifier receives committed parcel events
type Notifier interface {
	Publish(ev models.ParcelEvent)
}

// Discard drops every event
type Discard struct{}

// Publish implements Notifier
func (Discard) Publish(models.ParcelEvent) {}

// New builds an event for parcel p. An empty actorID is stored as NULL. snapshot is stored as JSON; a value that
// cannot be encoded is logged and left out.
func New(kind models.EventKind, p *models.Parcel, actorID string, snapshot interface{}, at time.Time) models.ParcelEvent {
	ev := models.ParcelEvent{
		ParcelID:   p.ID,
		TrackingID: p.TrackingID,
		Kind:       kind,
		ActorID:    models.ActorRef(actorID),
		CreatedAt:  at,
	}
	if snapshot != nil {
		raw, err := json.Marshal(snapshot)
		if err != nil {
			log.Printf("⚠️ Event snapshot for %s not encoded: %v", p.TrackingID, err)
		} else {
			ev.Snapshot = datatypes.JSON(raw)
		}
	}
	return ev
}

// Record appends ev inside tx and returns the stored copy for publishing after commit
func Record(tx store.Tx, ev models.ParcelEvent) (models.ParcelEvent, error) {
	if err := tx.Events().Append(&ev); err != nil {
		return ev, err
	}
	return ev, nil
}

// PublishAll hands every event to n in order
func PublishAll(n Notifier, evs []models.ParcelEvent) {
	if n == nil {
		return
	}
	for _, ev := range evs {
		n.Publish(ev)
	}
}
