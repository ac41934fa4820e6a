package pushsvc

import (
	"context"
	"log"

	"github.com/reminderx/backend/core/notification"
)

type consoleService struct {
	disableOutput bool

	SentTokens []string
}

var _ notification.PushService = (*consoleService)(nil)

func NewConsoleService() *consoleService {
	return &consoleService{}
}

func NewConsoleServiceMock() *consoleService {
	return &consoleService{disableOutput: true}
}

func (svc *consoleService) SendPush(ctx context.Context, deviceToken, title, body string) error {
	svc.SentTokens = append(svc.SentTokens, deviceToken)
	if !svc.disableOutput {
		log.Printf("push to %s: %s - %s", deviceToken, title, body)
	}
	return nil
}
