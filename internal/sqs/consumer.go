package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const receiveErrorBackoff = time.Second

// ConsumerAPI defines the interface for SQS operations used by Consumer.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// MessageHandler handles a decoded product message. A message is deleted
// from the queue only when its handler returns nil.
type MessageHandler func(ctx context.Context, msg ProductMessage) error

// Consumer handles consuming messages from AWS SQS.
type Consumer struct {
	client   ConsumerAPI
	queueURL string
	handler  MessageHandler
}

// NewConsumer creates a new SQS Consumer with the given client and queue URL.
// Messages are logged by LogNotification unless WithHandler replaces it.
func NewConsumer(client ConsumerAPI, queueURL string) *Consumer {
	return &Consumer{
		client:   client,
		queueURL: queueURL,
		handler:  LogNotification,
	}
}

// WithHandler sets the handler invoked for every received message.
func (c *Consumer) WithHandler(handler MessageHandler) *Consumer {
	c.handler = handler
	return c
}

// Start begins consuming messages from the SQS queue until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Starting SQS consumer", slog.String("queueURL", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping SQS consumer")
			return ctx.Err()
		default:
			if err := c.receiveMessages(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				slog.Error("Error receiving messages", slog.Any("err", err))
				select {
				case <-ctx.Done():
				case <-time.After(receiveErrorBackoff):
				}
			}
		}
	}
}

func (c *Consumer) receiveMessages(ctx context.Context) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(c.queueURL),
		MaxNumberOfMessages:   10,
		WaitTimeSeconds:       20, // Long polling
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		if err := c.processMessage(ctx, message); err != nil {
			slog.Error("Error processing message", slog.Any("err", err))
			continue
		}

		// Delete message after successful processing
		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("Error deleting message", slog.Any("err", err))
		}
	}

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, message types.Message) error {
	if message.Body == nil {
		return fmt.Errorf("message body is nil")
	}

	var productMsg ProductMessage
	if err := json.Unmarshal([]byte(*message.Body), &productMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	handler := c.handler
	if handler == nil {
		handler = LogNotification
	}
	return handler(ctx, productMsg)
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// LogNotification logs the received message as a notification.
func LogNotification(_ context.Context, msg ProductMessage) error {
	slog.Info("Received product notification",
		slog.String("action", msg.Action),
		slog.String("summary", msg.Summary()),
		slog.Int64("product_id", msg.ProductID),
		slog.String("name", msg.Name),
		slog.Float64("price", msg.Price),
		slog.Int("stock_quantity", msg.StockQuantity),
		slog.Int64("count", msg.Count),
	)
	return nil
}

// Summary renders the message as a human-readable line.
func (m ProductMessage) Summary() string {
	switch m.Action {
	case ActionCreated:
		return fmt.Sprintf("Produto %d (%s) inserido com estoque %d", m.ProductID, m.Name, m.StockQuantity)
	case ActionUpdated:
		return fmt.Sprintf("Produto %d (%s) atualizado", m.ProductID, m.Name)
	case ActionDeleted:
		return fmt.Sprintf("Produto %d (%s) removido", m.ProductID, m.Name)
	case ActionDeletedByStock:
		return fmt.Sprintf("Foram excluídos %d produtos com estoque até %d", m.Count, m.StockQuantity)
	default:
		return fmt.Sprintf("Ação desconhecida %q", m.Action)
	}
}
