// Command worker runs the daily reminder dispatch on a cron schedule.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/user"
	emailsvc "github.com/reminderx/backend/services/email"
	logsvc "github.com/reminderx/backend/services/logger"
	pushsvc "github.com/reminderx/backend/services/push"
	smssvc "github.com/reminderx/backend/services/sms"
	"github.com/reminderx/backend/storage/database"
	sqlxrepos "github.com/reminderx/backend/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WORKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	var smsSvc notification.SMSService
	var pushSvc notification.PushService
	if conf.Debug {
		smsSvc = smssvc.NewConsoleService()
		pushSvc = pushsvc.NewConsoleService()
	} else {
		smsSvc = smssvc.NewTwilioService(conf)
		pushSvc, err = pushsvc.NewFCMService(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up FCM: %v", err), err)
		}
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), sqlxrepos.NewOTPRepository(db), mailSvc, conf)
	particularSvc := particular.NewService(sqlxrepos.NewParticularRepository(db))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db))

	core.ParseEmailTemplates(conf, logger)

	dispatcher := notification.NewDispatcher(notifSvc, particularSvc, usrSvc, mailSvc, smsSvc, pushSvc, logger)

	c := cron.New()
	_, err = c.AddFunc(conf.Notification.DispatchCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := dispatcher.Run(ctx, time.Now().UTC()); err != nil {
			logger.Error(fmt.Sprintf("dispatching reminders: %v", err), err)
		}
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("scheduling dispatch: %v", err), err)
	}

	logger.Info(fmt.Sprintf("Worker started, dispatch schedule %q", conf.Notification.DispatchCron))
	c.Start()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// let a running dispatch finish
	<-c.Stop().Done()
	logger.Info("Worker stopped")
}
