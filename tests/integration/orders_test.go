package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/andhika/furnistore/internal/checkout"
	"github.com/andhika/furnistore/internal/database"
	"github.com/andhika/furnistore/internal/models"
	"github.com/andhika/furnistore/internal/store"
)

func TestGetOrderNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.GetOrder(context.Background(), db, uuid.New())
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected order-not-found error, got: %v", err)
	}
}

func TestListOrdersCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	f := createFurniture(t, db, "Oak Dining Chair", "Chairs", 10000, "", 100)

	for i := 0; i < 15; i++ {
		result := checkout.Submit(ctx, db, testCustomer(), []models.CartItem{cartItemFor(f, 1)})
		if !result.OK {
			t.Fatalf("Submit %d failed: %s", i, result.Message)
		}
	}

	page1, err := store.ListOrders(ctx, db, "", 10)
	if err != nil {
		t.Fatalf("List orders page 1: %v", err)
	}

	if !page1.HasMore {
		t.Error("Page 1 should have more results")
	}
	if page1.NextCursor == "" {
		t.Error("Page 1 should have a next cursor")
	}

	orders1, ok := page1.Items.([]models.Order)
	if !ok {
		t.Fatalf("Unexpected items type %T", page1.Items)
	}
	if len(orders1) != 10 {
		t.Errorf("Expected 10 orders on page 1, got %d", len(orders1))
	}

	// newest first
	for i := 1; i < len(orders1); i++ {
		prev, cur := orders1[i-1], orders1[i]
		if cur.CreatedAt.After(prev.CreatedAt) {
			t.Errorf("Orders not newest-first at index %d", i)
		}
	}

	page2, err := store.ListOrders(ctx, db, page1.NextCursor, 10)
	if err != nil {
		t.Fatalf("List orders page 2: %v", err)
	}

	if page2.HasMore {
		t.Error("Page 2 should not have more results")
	}

	orders2, ok := page2.Items.([]models.Order)
	if !ok {
		t.Fatalf("Unexpected items type %T", page2.Items)
	}
	if len(orders2) != 5 {
		t.Errorf("Expected 5 orders on page 2, got %d", len(orders2))
	}

	seen := make(map[uuid.UUID]bool)
	for _, o := range append(orders1, orders2...) {
		if seen[o.ID] {
			t.Errorf("Order %s appeared on both pages", o.ID)
		}
		seen[o.ID] = true
	}
}

func TestListOrdersRejectsBadCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.ListOrders(context.Background(), db, "not-base64!!", 10)
	if err == nil {
		t.Error("Expected error for malformed cursor")
	}

	// a valid but exhausted cursor yields an empty page
	cursor := store.EncodeCursor(store.OrderCursor{
		CreatedAt: time.Now().Add(-24 * time.Hour),
		ID:        uuid.New(),
	})
	page, err := store.ListOrders(context.Background(), db, cursor, 10)
	if err != nil {
		t.Fatalf("List orders with old cursor: %v", err)
	}
	if page.HasMore {
		t.Error("Exhausted cursor should not report more results")
	}
}
