package models

import (
	"time"
)

// Role is an employee's access level
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
)

// Employee is a staff account. Only login and the EmployeeContext derived from it are handled here.
type Employee struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Password    string    `gorm:"not null" json:"-"`
	Name        string    `json:"name"`
	PhoneNo     string    `json:"phoneNo"`
	Role        Role      `gorm:"type:varchar(16);not null" json:"role"`
	WarehouseID *string   `gorm:"type:uuid" json:"warehouseId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Employee model
func (Employee) TableName() string {
	return "employees"
}

// EmployeeContext is the acting user as supplied by the auth layer on every call
type EmployeeContext struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	WarehouseID string `json:"warehouseId,omitempty"`
}

// IsAdmin reports whether the actor has the admin role
func (e EmployeeContext) IsAdmin() bool {
	return e.Role == RoleAdmin
}
