package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

const orderColumns = `id, order_id, merchant_order_id, customer_name, customer_phone, seat_number, screen,
	items, subtotal, handling_charge, total, payment_status, status, source, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		order       model.Order
		items       []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.OrderID,
		&order.MerchantOrderID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.SeatNumber,
		&order.Screen,
		&items,
		&order.Subtotal,
		&order.HandlingCharge,
		&order.Total,
		&order.PaymentStatus,
		&order.Status,
		&order.Source,
		&order.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return order, err
	}

	order.Items = make([]model.Item, 0)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return order, fmt.Errorf("decode order items: %w", err)
		}
	}

	if completedAt.Valid {
		t := completedAt.Time
		order.CompletedAt = &t
	}

	return order, nil
}

// CreateOrder stores a new order and fills in its ID and CreatedAt.
func (r *Repository) CreateOrder(ctx context.Context, order *model.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	return r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		err := db.QueryRowContext(ctx, `INSERT INTO orders (order_id, merchant_order_id, customer_name, customer_phone,
			seat_number, screen, items, subtotal, handling_charge, total, payment_status, status, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13) RETURNING id, created_at`,
			order.OrderID,
			order.MerchantOrderID,
			order.CustomerName,
			order.CustomerPhone,
			order.SeatNumber,
			order.Screen,
			string(items),
			order.Subtotal,
			order.HandlingCharge,
			order.Total,
			order.PaymentStatus,
			order.Status,
			order.Source,
		).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrOrderAlreadyExists
			}
			return err
		}

		return nil
	})
}

func (r *Repository) GetOrderByMerchantID(ctx context.Context, merchantOrderID string) (*model.Order, error) {
	var order model.Order

	err := r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE merchant_order_id = $1`, merchantOrderID)

		var err error
		order, err = scanOrder(row)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// GetOrdersByStatus returns orders matching both statuses, oldest first.
func (r *Repository) GetOrdersByStatus(ctx context.Context, paymentStatus model.PaymentStatus, status model.OrderStatus) ([]model.Order, error) {
	result := make([]model.Order, 0)

	err := r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		result = result[:0]

		rows, err := db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
			WHERE payment_status = $1 AND status = $2 ORDER BY created_at`, paymentStatus, status)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return err
			}

			result = append(result, order)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdatePaymentStatus writes status unless the order is already paid or
// already has that status. changed reports whether a row was modified.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, merchantOrderID string, status model.PaymentStatus) (bool, error) {
	var changed bool

	err := r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE orders SET payment_status = $1, updated_at = now()
			WHERE merchant_order_id = $2 AND payment_status <> $1 AND payment_status <> $3`,
			status,
			merchantOrderID,
			model.PaymentStatusPaid,
		)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}

		changed = affected > 0
		return nil
	})

	return changed, err
}

// UpdateOrderStatus moves a pending order to a final fulfilment status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, merchantOrderID string, status model.OrderStatus) error {
	return r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE orders SET status = $1, completed_at = $2, updated_at = now()
			WHERE merchant_order_id = $3 AND status = $4`,
			status,
			time.Now().UTC(),
			merchantOrderID,
			model.OrderStatusPending,
		)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}

		var current string
		err = db.QueryRowContext(ctx, `SELECT status FROM orders WHERE merchant_order_id = $1`, merchantOrderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		return model.ErrOrderNotPending
	})
}
