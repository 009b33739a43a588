package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/campusgrid/grievance/db"
)

// FCMService delivers push notifications for grievance updates. The
// Firebase client is optional: when credentials are missing the service
// stays usable and every send becomes a logged no-op, so notification
// records and the rest of the pipeline are unaffected.
type FCMService struct {
	PG     *sql.DB
	client *messaging.Client
}

func NewFCMService(pg *sql.DB) (*FCMService, error) {
	service := &FCMService{PG: pg}

	credFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if credFile == "" {
		credFile = "firebase-service-account-key.json"
	}

	opt := option.WithCredentialsFile(credFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("Firebase app not initialized: %v (push delivery disabled)", err)
		return service, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("Firebase messaging client not initialized: %v (push delivery disabled)", err)
		return service, nil
	}

	service.client = client
	log.Println("FCM Service: Firebase messaging initialized")

	return service, nil
}

// SendNotification pushes a stored notification to its recipient's
// device. Missing tokens and disabled clients are not errors.
func (s *FCMService) SendNotification(ctx context.Context, n *db.Notification) error {
	if s.client == nil {
		log.Println("FCM client not initialized, skipping push")
		return nil
	}

	var fcmToken, fullName string
	err := s.PG.QueryRowContext(ctx, `
		SELECT fcm_token, full_name FROM principals
		WHERE id = $1 AND fcm_token IS NOT NULL AND fcm_token != ''
	`, n.RecipientID).Scan(&fcmToken, &fullName)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("No FCM token found for principal %s", n.RecipientID)
			return nil
		}
		return fmt.Errorf("error fetching recipient FCM token: %v", err)
	}

	message := &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: "Complaint update",
			Body:  n.Message,
		},
		Data: map[string]string{
			"notification_id": n.ID,
			"type":            "complaint_status",
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Icon:         "ic_notification",
				Sound:        "default",
				ChannelID:    "high_importance_channel",
				Priority:     messaging.PriorityHigh,
				DefaultSound: true,
			},
		},
	}

	response, err := s.client.Send(ctx, message)
	if err != nil {
		log.Printf("Error sending FCM message to %s: %v", fullName, err)
		return err
	}

	log.Printf("Successfully sent FCM notification to %s: %s", fullName, response)
	return nil
}
