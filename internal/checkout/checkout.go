// Package checkout converts a session cart into a persisted order. The
// original storefront issued three independent remote calls (create order,
// create line items, decrement stock) and could strand a half-written order
// when a later step failed. Here the same steps run inside one serializable
// transaction, so a declined decrement rolls everything back and nothing is
// left behind.
package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/andhika/furnistore/internal/database"
	"github.com/andhika/furnistore/internal/models"
)

// Result is what the presentation layer sees. Remote failures are converted
// into a message here; they never propagate as raw errors to the caller.
type Result struct {
	OK      bool          `json:"ok"`
	Message string        `json:"message"`
	Order   *models.Order `json:"order,omitempty"`
}

const (
	msgEmptyCart        = "cart is empty"
	msgOrderFailed      = "failed to create order"
	msgOrderItemsFailed = "failed to create order items"
	msgSuccess          = "checkout successful"
)

// TotalPrice sums price x quantity over the given items.
func TotalPrice(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Submit persists the order, its line items, and decrements stock per item
// sequentially so the first declined decrement stops the whole submission.
// The caller clears the cart only when the result is OK.
func Submit(ctx context.Context, db *sql.DB, customer Customer, items []models.CartItem) Result {
	if len(items) == 0 {
		return Result{OK: false, Message: msgEmptyCart}
	}

	total := TotalPrice(items)

	var order *models.Order
	var failMessage string

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		failMessage = ""

		o := &models.Order{
			FullName:   customer.FullName,
			Email:      customer.Email,
			Phone:      customer.Phone,
			Address:    customer.Address,
			City:       customer.City,
			PostalCode: customer.PostalCode,
			TotalPrice: total,
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (full_name, email, phone, address, city, postal_code, total_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 RETURNING id, created_at`,
			o.FullName, o.Email, o.Phone, o.Address, o.City, o.PostalCode, o.TotalPrice,
		).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			failMessage = msgOrderFailed
			return fmt.Errorf("create order: %w", err)
		}

		for _, it := range items {
			var oi models.OrderItem
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, furniture_id, quantity, price, created_at)
				 VALUES ($1, $2, $3, $4, NOW())
				 RETURNING id, created_at`,
				o.ID, it.ID, it.Quantity, it.Price,
			).Scan(&oi.ID, &oi.CreatedAt)
			if err != nil {
				failMessage = msgOrderItemsFailed
				return fmt.Errorf("create order item: %w", err)
			}

			oi.OrderID = o.ID
			oi.FurnitureID = it.ID
			oi.Quantity = it.Quantity
			oi.Price = it.Price
			o.Items = append(o.Items, oi)
		}

		// Sequential on purpose: the first declined decrement aborts before
		// any further stock is touched.
		for _, it := range items {
			var decremented bool
			err := tx.QueryRowContext(ctx,
				`SELECT decrement_stock($1, $2)`,
				it.ID, it.Quantity,
			).Scan(&decremented)
			if err != nil {
				failMessage = msgOrderFailed
				return fmt.Errorf("decrement stock for %s: %w", it.ID, err)
			}
			if !decremented {
				failMessage = fmt.Sprintf("insufficient stock for %s", it.Name)
				return database.ErrInsufficientStock
			}
		}

		order = o
		return nil
	})

	if err != nil {
		log.Printf("Checkout failed: %v", err)
		if failMessage == "" {
			failMessage = msgOrderFailed
		}
		return Result{OK: false, Message: failMessage}
	}

	return Result{OK: true, Message: msgSuccess, Order: order}
}
