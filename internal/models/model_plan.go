package models

import (
	"database/sql/driver"
	"time"

	"github.com/fatflowers/billing/pkg/tool"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type PlanItem struct {
	Name        string `json:"name" bson:"name"`
	Amount      int64  `json:"amount" bson:"amount"`
	Currency    string `json:"currency" bson:"currency"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

func (i PlanItem) Value() (driver.Value, error)                     { return jsonValue(i) }
func (i *PlanItem) Scan(src any) error                              { return scanJSON(i, src) }
func (PlanItem) GormDBDataType(db *gorm.DB, f *schema.Field) string { return jsonDBDataType(db, f) }

// Plan is a billing plan. Notes.tokens is the per-cycle token grant.
type Plan struct {
	ID        string            `gorm:"column:id;type:varchar(64);primaryKey" json:"-" bson:"id"`
	PlanID    string            `gorm:"column:plan_id;type:varchar(64);not null;uniqueIndex" json:"planId" bson:"planId"`
	Period    string            `gorm:"column:period;type:varchar(16);not null" json:"period" bson:"period"`
	Interval  int               `gorm:"column:billing_interval;not null" json:"interval" bson:"interval"`
	Item      PlanItem          `gorm:"column:item" json:"item" bson:"item"`
	Notes     datatypes.JSONMap `gorm:"column:notes" json:"notes" bson:"notes"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updatedAt"`
}

func (Plan) TableName() string {
	return "plan"
}

// Tokens returns notes.tokens as an integer, 0 when absent or unparseable.
func (p *Plan) Tokens() int64 {
	if p == nil || p.Notes == nil {
		return 0
	}
	return tool.ToInt64(p.Notes["tokens"])
}
