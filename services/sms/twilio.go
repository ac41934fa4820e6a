// Package smssvc delivers reminder texts over Twilio's messaging API.
package smssvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
)

type twilioService struct {
	client       *twilio.RestClient
	smsFrom      string
	whatsAppFrom string
}

var _ notification.SMSService = (*twilioService)(nil)

func NewTwilioService(conf *core.Config) *twilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Notification.TwilioAccountSID,
		Password: conf.Notification.TwilioAuthToken,
	})
	return &twilioService{
		client:       client,
		smsFrom:      conf.Notification.TwilioSMSFrom,
		whatsAppFrom: conf.Notification.TwilioWhatsAppFrom,
	}
}

func (svc *twilioService) SendSMS(ctx context.Context, phoneNumber, body string) error {
	return svc.send(phoneNumber, svc.smsFrom, body)
}

// SendWhatsApp routes through the same messaging API; Twilio selects the
// WhatsApp channel from the address prefix.
func (svc *twilioService) SendWhatsApp(ctx context.Context, phoneNumber, body string) error {
	return svc.send("whatsapp:"+phoneNumber, "whatsapp:"+svc.whatsAppFrom, body)
}

func (svc *twilioService) send(to, from, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	_, err := svc.client.Api.CreateMessage(params)
	return errors.Wrap(err, "sending message via twilio")
}
