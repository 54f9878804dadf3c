package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/andhika/furnistore/internal/cart"
	"github.com/andhika/furnistore/internal/catalog"
	"github.com/andhika/furnistore/internal/checkout"
	"github.com/andhika/furnistore/internal/config"
	"github.com/andhika/furnistore/internal/database"
	"github.com/andhika/furnistore/internal/models"
	"github.com/andhika/furnistore/internal/store"
)

const sessionHeader = "X-Cart-Session"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	var publisher *checkout.Publisher
	if cfg.Events.AMQPURL != "" {
		publisher, err = checkout.NewPublisher(cfg.Events.AMQPURL, cfg.Events.OrdersQueue)
		if err != nil {
			log.Fatalf("Connect to broker: %v", err)
		}
		defer publisher.Close()
		log.Printf("Publishing order events to queue %q", cfg.Events.OrdersQueue)
	}

	carts := cart.NewStore()

	mux := http.NewServeMux()

	mux.HandleFunc("/furniture", handleFurniture(db))
	mux.HandleFunc("/furniture/search", handleFurnitureSearch(db))
	mux.HandleFunc("/furniture/", handleFurnitureByID(db))
	mux.HandleFunc("/cart", handleCart(carts))
	mux.HandleFunc("/cart/items", handleCartItems(db, carts))
	mux.HandleFunc("/cart/items/", handleCartItemByID(carts))
	mux.HandleFunc("/checkout", handleCheckout(db, carts, publisher))
	mux.HandleFunc("/orders", handleOrders(db))
	mux.HandleFunc("/orders/", handleOrderByID(db))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func handleFurniture(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		items, err := catalog.FetchAll(r.Context(), db)
		if err != nil {
			log.Printf("List furniture: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to load catalog")
			return
		}

		respondJSON(w, http.StatusOK, items)
	}
}

func handleFurnitureSearch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		items, err := catalog.Search(r.Context(), db, r.URL.Query().Get("q"))
		if err != nil {
			log.Printf("Search furniture: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to search catalog")
			return
		}

		respondJSON(w, http.StatusOK, items)
	}
}

func handleFurnitureByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/furniture/"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid furniture ID")
			return
		}

		item, err := catalog.FetchByID(r.Context(), db, id)
		if err != nil {
			respondError(w, http.StatusNotFound, "Furniture not found")
			return
		}

		respondJSON(w, http.StatusOK, item)
	}
}

func handleCart(carts *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			session := carts.Create()
			respondJSON(w, http.StatusCreated, map[string]string{"session_id": session.String()})

		case http.MethodGet:
			c, ok := sessionCart(w, r, carts)
			if !ok {
				return
			}
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"items":       c.Items(),
				"total_price": c.TotalPrice(),
			})

		case http.MethodDelete:
			c, ok := sessionCart(w, r, carts)
			if !ok {
				return
			}
			c.Clear()
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItems(db *sql.DB, carts *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		c, ok := sessionCart(w, r, carts)
		if !ok {
			return
		}

		var req struct {
			FurnitureID string `json:"furniture_id"`
			Quantity    int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		id, err := uuid.Parse(req.FurnitureID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid furniture ID")
			return
		}
		if req.Quantity < 1 {
			req.Quantity = 1
		}

		item, err := catalog.FetchByID(r.Context(), db, id)
		if err != nil {
			respondError(w, http.StatusNotFound, "Furniture not found")
			return
		}

		c.AddOrMergeItem(cartItemFrom(item, req.Quantity))

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"items":       c.Items(),
			"total_price": c.TotalPrice(),
		})
	}
}

func handleCartItemByID(carts *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionCart(w, r, carts)
		if !ok {
			return
		}

		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/cart/items/"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid item ID")
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req struct {
				Quantity  *int  `json:"quantity"`
				Purchased *bool `json:"purchased"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			c.UpdateItem(id, cart.Update{Quantity: req.Quantity, Purchased: req.Purchased})
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"items":       c.Items(),
				"total_price": c.TotalPrice(),
			})

		case http.MethodDelete:
			c.RemoveItem(id)
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCheckout(db *sql.DB, carts *cart.Store, publisher *checkout.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		c, ok := sessionCart(w, r, carts)
		if !ok {
			return
		}

		var customer checkout.Customer
		if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if problems := customer.Validate(); len(problems) > 0 {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": problems})
			return
		}

		result := checkout.Submit(r.Context(), db, customer, c.Items())
		if !result.OK {
			respondJSON(w, http.StatusUnprocessableEntity, result)
			return
		}

		// The cart is cleared exactly once, only after the order committed.
		c.Clear()
		publisher.PublishOrderPlaced(r.Context(), result.Order)

		respondJSON(w, http.StatusCreated, result)
	}
}

func handleOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 20
		}

		page, err := store.ListOrders(r.Context(), db, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			log.Printf("List orders: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to load orders")
			return
		}

		respondJSON(w, http.StatusOK, page)
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/orders/"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, err := store.GetOrder(r.Context(), db, id)
		if err != nil {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}

		respondJSON(w, http.StatusOK, order)
	}
}

func cartItemFrom(f *models.Furniture, quantity int) models.CartItem {
	return models.CartItem{
		ID:       f.ID,
		Name:     f.Name,
		Category: f.Category,
		Price:    f.Price,
		Image:    f.Image,
		Quantity: quantity,
	}
}

func sessionCart(w http.ResponseWriter, r *http.Request, carts *cart.Store) (*cart.Cart, bool) {
	session, err := uuid.Parse(r.Header.Get(sessionHeader))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing or invalid "+sessionHeader+" header")
		return nil, false
	}

	c := carts.Get(session)
	if c == nil {
		respondError(w, http.StatusNotFound, "Cart session not found")
		return nil, false
	}

	return c, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
