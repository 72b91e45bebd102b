package models

import (
	"time"

	"gorm.io/datatypes"
)

// Customer mirrors a gateway customer.
type Customer struct {
	ID         string            `gorm:"column:id;type:varchar(64);primaryKey" json:"-" bson:"id" patch:"-"`
	CustomerID string            `gorm:"column:customer_id;type:varchar(64);not null;uniqueIndex" json:"customerId" bson:"customerId" patch:"-"`
	UserID     *string           `gorm:"column:user_id;type:varchar(64);index" json:"userId,omitempty" bson:"userId,omitempty"`
	Name       *string           `gorm:"column:name;type:varchar(128)" json:"name,omitempty" bson:"name,omitempty"`
	Contact    *string           `gorm:"column:contact;type:varchar(32)" json:"contact,omitempty" bson:"contact,omitempty"`
	Email      *string           `gorm:"column:email;type:varchar(128)" json:"email,omitempty" bson:"email,omitempty"`
	Notes      datatypes.JSONMap `gorm:"column:notes" json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt" bson:"createdAt" patch:"-"`
	UpdatedAt  time.Time         `json:"updatedAt" bson:"updatedAt" patch:"-"`
}

func (Customer) TableName() string {
	return "customer"
}
