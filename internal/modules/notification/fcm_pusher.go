package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"

	"parcelway/internal/types"
)

// FCMPusher sends notifications as FCM messages to a per-user topic. Client
// apps subscribe to TopicForUser(uid) after sign-in.
type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(client *messaging.Client) *FCMPusher {
	return &FCMPusher{client: client}
}

func TopicForUser(userID types.ID) string {
	return "user_" + string(userID)
}

func (p *FCMPusher) Push(ctx context.Context, n *Notification) error {
	data := map[string]string{
		"type":            string(n.Type),
		"notification_id": string(n.ID),
	}
	for k, v := range n.Metadata {
		data[k] = fmt.Sprint(v)
	}

	msg := &messaging.Message{
		Topic: TopicForUser(n.UserID),
		Data:  data,
		Notification: &messaging.Notification{
			Title: titleFor(n.Type),
			Body:  n.Message,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	messageID, err := p.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM to topic %s: %w", msg.Topic, err)
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"message_id":      messageID,
	}).Debug("fcm sent")
	return nil
}

func titleFor(t Type) string {
	switch t {
	case TypeParcelAccepted:
		return "Parcel accepted"
	case TypeTripMatchFound:
		return "New trip match"
	case TypeParcelStatusChanged:
		return "Parcel update"
	case TypeTripStatusChanged:
		return "Trip update"
	default:
		return "Notification"
	}
}
