package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status int

type Audit struct {
	CreatedAt time.Time
	UpdatedBy sql.NullString
}

type Product struct {
	Id         int64 `db:",key"`
	Name       string
	CategoryId int64 `db:"category_id"`
	Status     Status
	Cached     []byte `db:"-"`
	Audit
	internal int
}

type OrderLine struct {
	OrderId uuid.UUID `db:",explicitkey"`
	LineNo  int       `db:",explicitkey"`
	Price   float64
	Meta    map[string]string
}

func (OrderLine) TableName() string { return "sales.order_lines" }

// Untagged structs are not entities.
type Options struct {
	Verbose bool
}
