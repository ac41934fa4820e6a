package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/schedule"
	"github.com/reminderx/backend/core/user"
)

type (
	// SMSService is any service that can deliver short text messages.
	SMSService interface {
		SendSMS(ctx context.Context, phoneNumber, body string) error
		SendWhatsApp(ctx context.Context, phoneNumber, body string) error
	}

	// PushService is any service that can deliver push notifications to a
	// registered device.
	PushService interface {
		SendPush(ctx context.Context, deviceToken, title, body string) error
	}

	// ParticularSource is the slice of particular.Service the dispatcher
	// needs.
	ParticularSource interface {
		Query(ctx context.Context, filter *particular.QueryFilter, ordering []core.DBOrdering) ([]particular.Particular, error)
	}

	// UserSource is the slice of user.Service the dispatcher needs.
	UserSource interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	// Dispatcher walks every reminder due on a given day and fans the
	// resulting message out to the channels the reminder requests,
	// filtered by each recipient's notification preferences. An in-app
	// Notification record is always created.
	Dispatcher struct {
		notifSvc      Service
		particularSvc ParticularSource
		usrSvc        UserSource

		mailSvc core.EmailService
		smsSvc  SMSService
		pushSvc PushService

		logger core.Logger
	}
)

func NewDispatcher(
	notifSvc Service,
	particularSvc ParticularSource,
	usrSvc UserSource,
	mailSvc core.EmailService,
	smsSvc SMSService,
	pushSvc PushService,
	logger core.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifSvc:      notifSvc,
		particularSvc: particularSvc,
		usrSvc:        usrSvc,
		mailSvc:       mailSvc,
		smsSvc:        smsSvc,
		pushSvc:       pushSvc,
		logger:        logger,
	}
}

// Run dispatches all reminders due on day. Delivery failures on one
// channel are logged and do not block the others.
func (d *Dispatcher) Run(ctx context.Context, day time.Time) error {
	particulars, err := d.particularSvc.Query(ctx, nil, nil)
	if err != nil {
		return err
	}

	var dispatched int
	for _, p := range particulars {
		if p.Completed {
			continue
		}
		for _, r := range p.Reminders {
			if !schedule.OccursOn(r.Rule(), p.ExpiryDate, day) {
				continue
			}
			d.dispatch(ctx, p, r, day)
			dispatched++
		}
	}
	d.logger.Info(fmt.Sprintf("dispatched %d reminder(s) for %s", dispatched, day.Format(schedule.DayKeyFormat)))
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, p particular.Particular, r particular.Reminder, day time.Time) {
	msg := reminderMessage(p, day)

	recipients := append([]string{p.OwnerID}, p.Owners...)
	for _, userID := range recipients {
		usr, err := d.usrSvc.GetByID(ctx, userID)
		if err != nil {
			d.logger.Error(fmt.Sprintf("reminder %s: loading recipient %s", r.ID, userID), err)
			continue
		}

		if _, err = d.notifSvc.Create(ctx, Notification{
			UserID:          usr.ID,
			ParticularID:    p.ID,
			ParticularTitle: p.Title,
			Message:         msg,
		}); err != nil {
			d.logger.Error(fmt.Sprintf("reminder %s: recording notification", r.ID), err)
		}

		d.deliver(ctx, usr, r, p.Title, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, usr user.User, r particular.Reminder, title, msg string) {
	if r.HasMethod(particular.MethodEmail) && usr.EmailNotifications {
		d.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: usr.Username, Address: usr.Email}},
			Subject: "Reminder: " + title,
			BodyStr: msg,
		})
	}
	if r.HasMethod(particular.MethodSMS) && usr.SMSNotifications && usr.PhoneNumber != "" {
		if err := d.smsSvc.SendSMS(ctx, usr.PhoneNumber, msg); err != nil {
			d.logger.Error(fmt.Sprintf("sending SMS to user %s", usr.ID), err)
		}
	}
	if r.HasMethod(particular.MethodWhatsApp) && usr.WhatsAppNotifications && usr.PhoneNumber != "" {
		if err := d.smsSvc.SendWhatsApp(ctx, usr.PhoneNumber, msg); err != nil {
			d.logger.Error(fmt.Sprintf("sending WhatsApp message to user %s", usr.ID), err)
		}
	}
	if r.HasMethod(particular.MethodPush) && usr.PushNotifications && usr.DeviceToken != "" {
		if err := d.pushSvc.SendPush(ctx, usr.DeviceToken, "Reminder: "+title, msg); err != nil {
			d.logger.Error(fmt.Sprintf("sending push to user %s", usr.ID), err)
		}
	}
}

func reminderMessage(p particular.Particular, day time.Time) string {
	switch daysLeft := schedule.DaysLeft(p.ExpiryDate, day); {
	case daysLeft < 0:
		return fmt.Sprintf("%s expired on %s.", p.Title, p.ExpiryDate.Format("Jan 2, 2006"))
	case daysLeft == 0:
		return fmt.Sprintf("%s expires today.", p.Title)
	case daysLeft == 1:
		return fmt.Sprintf("%s expires tomorrow.", p.Title)
	default:
		return fmt.Sprintf("%s expires in %d days, on %s.", p.Title, daysLeft, p.ExpiryDate.Format("Jan 2, 2006"))
	}
}
