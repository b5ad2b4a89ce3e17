package fcm

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"signal-backend/internal/domain"
)

const DefaultTopic = "bitcoin-signals"

// ErrDisabled is returned by NewClient when no Firebase credentials are configured.
var ErrDisabled = errors.New("fcm: no firebase credentials configured")

type sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client publishes signal notifications to an FCM topic.
type Client struct {
	client sender
	topic  string
	log    log.FieldLogger
}

// NewClient initializes Firebase Cloud Messaging from a credentials file or
// an inline JSON document. The file takes precedence.
func NewClient(ctx context.Context, credPath, credJSON, topic string, logger log.FieldLogger) (*Client, error) {
	var opt option.ClientOption
	switch {
	case credPath != "":
		opt = option.WithCredentialsFile(credPath)
	case credJSON != "":
		opt = option.WithCredentialsJSON([]byte(credJSON))
	default:
		return nil, ErrDisabled
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	if topic == "" {
		topic = DefaultTopic
	}
	logger.WithField("topic", topic).Info("Firebase Cloud Messaging initialized")
	return &Client{client: client, topic: topic, log: logger}, nil
}

func (c *Client) Name() string { return "fcm" }

// Send publishes n to the configured topic.
func (c *Client) Send(ctx context.Context, n domain.Notification) error {
	response, err := c.client.Send(ctx, buildMessage(c.topic, n))
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	c.log.WithFields(log.Fields{"topic": c.topic, "message_id": response}).Debug("fcm message sent")
	return nil
}

func buildMessage(topic string, n domain.Notification) *messaging.Message {
	return &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "signal_alerts",
				Priority:  messaging.PriorityHigh,
			},
		},
	}
}

var _ domain.Notifier = (*Client)(nil)
