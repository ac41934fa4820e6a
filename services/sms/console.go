package smssvc

import (
	"context"
	"log"

	"github.com/reminderx/backend/core/notification"
)

// consoleService logs messages instead of sending them. Used in dev and
// tests.
type consoleService struct {
	disableOutput bool

	SentSMS      []string
	SentWhatsApp []string
}

var _ notification.SMSService = (*consoleService)(nil)

func NewConsoleService() *consoleService {
	return &consoleService{}
}

func NewConsoleServiceMock() *consoleService {
	return &consoleService{disableOutput: true}
}

func (svc *consoleService) SendSMS(ctx context.Context, phoneNumber, body string) error {
	svc.SentSMS = append(svc.SentSMS, phoneNumber)
	if !svc.disableOutput {
		log.Printf("SMS to %s: %s", phoneNumber, body)
	}
	return nil
}

func (svc *consoleService) SendWhatsApp(ctx context.Context, phoneNumber, body string) error {
	svc.SentWhatsApp = append(svc.SentWhatsApp, phoneNumber)
	if !svc.disableOutput {
		log.Printf("WhatsApp message to %s: %s", phoneNumber, body)
	}
	return nil
}
