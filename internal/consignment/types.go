package consignment

import (
	"strings"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/money"
)

// MaxQuantity bounds the units on one item line
const MaxQuantity = 100_000

// ItemInput is one cargo line of a booking or an edit. Freight and Hamali are per unit.
type ItemInput struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Quantity int          `json:"quantity"`
	Freight  money.Amount `json:"freight"`
	Hamali   money.Amount `json:"hamali"`
}

func (in ItemInput) validate(i int) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("item %d: name is required", i+1)
	}
	if strings.TrimSpace(in.Type) == "" {
		return apperr.Validation("item %d: item type is required", i+1)
	}
	if in.Quantity <= 0 || in.Quantity > MaxQuantity {
		return apperr.Validation("item %d: quantity must be between 1 and %d", i+1, MaxQuantity)
	}
	if in.Freight < 0 || in.Hamali < 0 {
		return apperr.Validation("item %d: amounts must not be negative", i+1)
	}
	if in.Freight.Scaled() > money.MaxAmount || in.Hamali.Scaled() > money.MaxAmount {
		return apperr.Validation("item %d: amounts must not exceed %s", i+1, money.Format(money.MaxAmount))
	}
	return nil
}

func validateItems(items []ItemInput) error {
	for i, in := range items {
		if err := in.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// PartyDetails is a sender or receiver as given at booking time
type PartyDetails struct {
	Name    string `json:"name"`
	PhoneNo string `json:"phoneNo"`
	Address string `json:"address"`
	GST     string `json:"gst"`
}

func (d PartyDetails) client(role models.ClientRole) *models.Client {
	return &models.Client{
		Role:    role,
		Name:    strings.TrimSpace(d.Name),
		PhoneNo: strings.TrimSpace(d.PhoneNo),
		Address: strings.TrimSpace(d.Address),
		GST:     strings.TrimSpace(d.GST),
	}
}

// PartyPatch changes only the fields that are set
type PartyPatch struct {
	Name    *string `json:"name,omitempty"`
	PhoneNo *string `json:"phoneNo,omitempty"`
	Address *string `json:"address,omitempty"`
	GST     *string `json:"gst,omitempty"`
}

func (p PartyPatch) apply(c *models.Client) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.PhoneNo != nil {
		c.PhoneNo = strings.TrimSpace(*p.PhoneNo)
	}
	if p.Address != nil {
		c.Address = strings.TrimSpace(*p.Address)
	}
	if p.GST != nil {
		c.GST = strings.TrimSpace(*p.GST)
	}
}

// BookingRequest is everything needed to book a parcel.
// SourceWarehouse may be empty, in which case the actor's warehouse is used.
type BookingRequest struct {
	Items                []ItemInput        `json:"items"`
	Sender               PartyDetails       `json:"senderDetails"`
	Receiver             PartyDetails       `json:"receiverDetails"`
	SourceWarehouse      string             `json:"sourceWarehouse"`
	DestinationWarehouse string             `json:"destinationWarehouse"`
	Payment              models.PaymentMode `json:"payment"`
	IsDoorDelivery       bool               `json:"isDoorDelivery"`
	DoorDeliveryCharge   money.Amount       `json:"doorDeliveryCharge"`
}

// Validate checks the request without touching the store
func (r BookingRequest) Validate() error {
	if strings.TrimSpace(r.DestinationWarehouse) == "" {
		return apperr.Validation("destination warehouse is required")
	}
	if len(r.Items) == 0 {
		return apperr.Validation("at least one item is required")
	}
	if err := validateItems(r.Items); err != nil {
		return err
	}
	if !r.Payment.Valid() {
		return apperr.Validation("payment must be %q or %q", models.PaymentToPay, models.PaymentPaid)
	}
	if r.DoorDeliveryCharge < 0 || r.DoorDeliveryCharge.Scaled() > money.MaxAmount {
		return apperr.Validation("door delivery charge must be between 0 and %s", money.Format(money.MaxAmount))
	}
	return nil
}

// ParcelPatch is a sparse edit. Nil and empty fields are left alone.
type ParcelPatch struct {
	AddItems             []ItemInput          `json:"addItems,omitempty"`
	DelItems             []string             `json:"delItems,omitempty"`
	SenderDetails        *PartyPatch          `json:"senderDetails,omitempty"`
	ReceiverDetails      *PartyPatch          `json:"receiverDetails,omitempty"`
	DestinationWarehouse *string              `json:"destinationWarehouse,omitempty"`
	SourceWarehouse      *string              `json:"sourceWarehouse,omitempty"`
	Payment              *models.PaymentMode  `json:"payment,omitempty"`
	IsDoorDelivery       *bool                `json:"isDoorDelivery,omitempty"`
	DoorDeliveryCharge   *money.Amount        `json:"doorDeliveryCharge,omitempty"`
	Status               *models.ParcelStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ParcelPatch) IsEmpty() bool {
	return len(p.AddItems) == 0 &&
		len(p.DelItems) == 0 &&
		p.SenderDetails == nil &&
		p.ReceiverDetails == nil &&
		p.DestinationWarehouse == nil &&
		p.SourceWarehouse == nil &&
		p.Payment == nil &&
		p.IsDoorDelivery == nil &&
		p.DoorDeliveryCharge == nil &&
		p.Status == nil
}

// Validate checks the patch without touching the store
func (p ParcelPatch) Validate() error {
	if p.IsEmpty() {
		return apperr.Validation("update data is required")
	}
	if err := validateItems(p.AddItems); err != nil {
		return err
	}
	if p.Payment != nil && !p.Payment.Valid() {
		return apperr.Validation("payment must be %q or %q", models.PaymentToPay, models.PaymentPaid)
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Validation("unknown status %q", *p.Status)
	}
	if p.DoorDeliveryCharge != nil && (*p.DoorDeliveryCharge < 0 || p.DoorDeliveryCharge.Scaled() > money.MaxAmount) {
		return apperr.Validation("door delivery charge must be between 0 and %s", money.Format(money.MaxAmount))
	}
	for _, code := range []*string{p.DestinationWarehouse, p.SourceWarehouse} {
		if code != nil && strings.TrimSpace(*code) == "" {
			return apperr.Validation("warehouse code must not be blank")
		}
	}
	return nil
}

// Totals sums line freight and hamali over items. A sum past
// money.MaxAmount is a validation error.
func Totals(items []models.Item) (freight, hamali int64, err error) {
	for _, it := range items {
		lf, err := it.LineFreight()
		if err == nil {
			freight, err = money.Add(freight, lf)
		}
		if err != nil {
			return 0, 0, apperr.Validation("freight for %s is out of range", it.Name)
		}
		lh, err := it.LineHamali()
		if err == nil {
			hamali, err = money.Add(hamali, lh)
		}
		if err != nil {
			return 0, 0, apperr.Validation("hamali for %s is out of range", it.Name)
		}
	}
	return freight, hamali, nil
}
