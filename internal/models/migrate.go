package models

// All lists every persisted model in dependency order for schema synchronization
func All() []interface{} {
	return []interface{}{
		&Warehouse{},
		&ItemType{},
		&Employee{},
		&Client{},
		&Parcel{},
		&Item{},
		&Ledger{},
		&LedgerParcel{},
		&PaymentTracking{},
		&ParcelEvent{},
	}
}
