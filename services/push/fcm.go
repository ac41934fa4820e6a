// Package pushsvc delivers browser push notifications through Firebase
// Cloud Messaging.
package pushsvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
)

type fcmService struct {
	client *messaging.Client
}

var _ notification.PushService = (*fcmService)(nil)

func NewFCMService(ctx context.Context, conf *core.Config) (*fcmService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(conf.Notification.FirebaseCredentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing FCM client")
	}
	return &fcmService{client: client}, nil
}

func (svc *fcmService) SendPush(ctx context.Context, deviceToken, title, body string) error {
	_, err := svc.client.Send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	return errors.Wrap(err, "sending push via FCM")
}
