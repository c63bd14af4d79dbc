package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueDateLayout is the default format for entering and displaying due dates.
const DueDateLayout = "01/02/2006"

// isoDateLayout is accepted as an alternative on input.
const isoDateLayout = "2006-01-02"

// Order is a customer order tracked by exactly one owning user
type Order struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	OrderNumber string          `json:"order_number"`
	DueDate     *time.Time      `json:"due_date,omitempty"` // nil sorts after every dated order
	BuyerName   string          `json:"buyer_name"`
	Address     string          `json:"address"`
	Phone       string          `json:"phone"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderInput carries raw, unvalidated order fields as entered by the user.
// Total stays a string until it has passed validation.
type OrderInput struct {
	OrderNumber string
	DueDate     *time.Time
	BuyerName   string
	Address     string
	Phone       string
	Total       string
}

// NewOrder creates a new order owned by ownerID with generated ID and timestamps
func NewOrder(ownerID uuid.UUID, in OrderInput, total decimal.Decimal) *Order {
	now := time.Now().UTC()
	o := &Order{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Apply(in, total)
	return o
}

// Apply overwrites every mutable field. ID and OwnerID are never touched.
func (o *Order) Apply(in OrderInput, total decimal.Decimal) {
	o.OrderNumber = in.OrderNumber
	o.DueDate = normalizeDate(in.DueDate)
	o.BuyerName = in.BuyerName
	o.Address = in.Address
	o.Phone = in.Phone
	o.Total = total
}

// FormattedDueDate returns the due date in DueDateLayout, or "" when absent
func (o *Order) FormattedDueDate() string {
	if o.DueDate == nil {
		return ""
	}
	return o.DueDate.Format(DueDateLayout)
}

// FormattedTotal returns the total with two decimal places
func (o *Order) FormattedTotal() string {
	return o.Total.StringFixed(2)
}

// ParseDueDate parses a due date in DueDateLayout or YYYY-MM-DD form.
// An empty string yields a nil date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{DueDateLayout, isoDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid due date %q: expected MM/DD/YYYY or YYYY-MM-DD", s)
}

// normalizeDate copies t in UTC so stored values compare and sort consistently.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
