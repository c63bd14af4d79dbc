package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRepository provides order data access
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, owner_id, order_number, due_date, buyer_name, address, phone, total, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		o.ID.String(),
		o.OwnerID.String(),
		o.OrderNumber,
		nullableTime(o.DueDate),
		o.BuyerName,
		o.Address,
		o.Phone,
		o.Total.String(),
		o.CreatedAt,
		o.UpdatedAt,
	)
	return storeErr("create order", err)
}

// Update overwrites every mutable field of an existing order. The owner is never changed.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE orders SET order_number = ?, due_date = ?, buyer_name = ?, address = ?,
			phone = ?, total = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		o.OrderNumber,
		nullableTime(o.DueDate),
		o.BuyerName,
		o.Address,
		o.Phone,
		o.Total.String(),
		o.UpdatedAt,
		o.ID.String(),
	)
	if err != nil {
		return storeErr("update order", err)
	}
	return expectRow("update order", res)
}

// Delete removes an order
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id.String())
	if err != nil {
		return storeErr("delete order", err)
	}
	return expectRow("delete order", res)
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get order", err)
	}
	return o, nil
}

// GetByOwner retrieves all orders of a user, earliest due date first.
// Orders without a due date come after every dated order.
func (r *OrderRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders WHERE owner_id = ?
		ORDER BY due_date IS NULL, due_date ASC, created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID.String())
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storeErr("list orders", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list orders", err)
	}

	return orders, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var id, ownerID, total string
	var dueDate sql.NullTime

	err := row.Scan(
		&id, &ownerID, &o.OrderNumber, &dueDate, &o.BuyerName,
		&o.Address, &o.Phone, &total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad order id %q: %w", id, err)
	}
	if o.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("bad owner id %q: %w", ownerID, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("bad total %q: %w", total, err)
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC()
		o.DueDate = &d
	}

	return &o, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
