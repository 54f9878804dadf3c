package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andhika/furnistore/internal/models"
)

// OrderMessage is the payload sent to the orders queue when a checkout
// succeeds. Warehouse consumers use it to start fulfillment.
type OrderMessage struct {
	OrderID string             `json:"order_id"`
	Items   []OrderMessageItem `json:"items"`
}

type OrderMessageItem struct {
	FurnitureID string `json:"furniture_id"`
	Quantity    int    `json:"quantity"`
}

// Publisher emits order-placed events to RabbitMQ. A nil Publisher is valid
// and publishes nothing, so deployments without a broker skip it entirely.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// PublishOrderPlaced sends the event best-effort. Failures are logged and
// never affect the checkout result the shopper sees.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, order *models.Order) {
	if p == nil || order == nil {
		return
	}

	msg := OrderMessage{OrderID: order.ID.String()}
	for _, it := range order.Items {
		msg.Items = append(msg.Items, OrderMessageItem{
			FurnitureID: it.FurnitureID.String(),
			Quantity:    it.Quantity,
		})
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Marshal order message: %v", err)
		return
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		log.Printf("Publish order %s: %v", order.ID, err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.ch.Close()
	p.conn.Close()
}
