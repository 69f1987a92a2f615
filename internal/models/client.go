package models

// ClientRole is the side of the consignment a client snapshot belongs to
type ClientRole string

const (
	ClientRoleSender   ClientRole = "sender"
	ClientRoleReceiver ClientRole = "receiver"
)

// Client is a sender or receiver snapshot owned by exactly one parcel.
// Repeat customers get a fresh row per booking.
type Client struct {
	ID      string     `gorm:"primaryKey;type:uuid" json:"id"`
	Role    ClientRole `gorm:"type:varchar(16);not null" json:"role"`
	Name    string     `gorm:"index" json:"name"`
	PhoneNo string     `json:"phoneNo"`
	Address string     `json:"address"`
	GST     string     `gorm:"column:gst" json:"gst"`
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clients"
}
