package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		AppName  string

		SecretKey        []byte
		FrontendBaseURL  string
		WorkDir          string
		DefaultFromEmail mail.Address

		SendgridApiKey string
		RollbarToken   string

		PasswordResetTimeoutDelta time.Duration
		OTPTimeout                time.Duration
		OTPResendCooldown         time.Duration
		OTPMaxPending             int

		Server       ServerConfig
		Database     DatabaseConfig
		Notification NotificationConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	NotificationConfig struct {
		// DispatchCron is a cron-style schedule string driving the reminder
		// dispatch worker (e.g. "0 9 * * *").
		DispatchCron string

		TwilioAccountSID   string
		TwilioAuthToken    string
		TwilioSMSFrom      string
		TwilioWhatsAppFrom string

		FirebaseCredentialsFile string
	}
)

func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }
func (c ServerConfig) Address() string   { return c.Host + ":" + c.Port }

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "ReminderX")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w#05=dz&u0xh2(h!x)#*c2(#yg4h^$cegm2emy+57-poq5-wer)enb$")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("otpTimeout", 10*time.Minute)
	conf.SetDefault("otpResendCooldown", time.Minute)
	conf.SetDefault("otpMaxPending", 3)

	conf.SetDefault("server.host", "0.0.0.0")
	conf.SetDefault("server.port", "8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.name", "reminderx")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.user", "reminderx")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("notification.dispatchCron", "0 9 * * *")
	conf.SetDefault("notification.twilioAccountSID", "")
	conf.SetDefault("notification.twilioAuthToken", "")
	conf.SetDefault("notification.twilioSMSFrom", "")
	conf.SetDefault("notification.twilioWhatsAppFrom", "")
	conf.SetDefault("notification.firebaseCredentialsFile", "")

	var testMode bool
	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:    conf.GetBool("debug"),
		TestMode: testMode,
		Env:      env,
		Build:    conf.GetString("build"),
		AppName:  conf.GetString("appName"),

		SecretKey:        []byte(conf.GetString("secretKey")),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		WorkDir:          wd,
		DefaultFromEmail: mail.Address{Name: conf.GetString("appName"), Address: conf.GetString("defaultFromEmail")},

		SendgridApiKey: conf.GetString("sendgridApiKey"),
		RollbarToken:   conf.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		OTPTimeout:                conf.GetDuration("otpTimeout"),
		OTPResendCooldown:         conf.GetDuration("otpResendCooldown"),
		OTPMaxPending:             conf.GetInt("otpMaxPending"),

		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			Port:                      conf.GetString("server.port"),
			DebugHost:                 conf.GetString("server.debugHost"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Name:          conf.GetString("database.name"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Notification: NotificationConfig{
			DispatchCron:            conf.GetString("notification.dispatchCron"),
			TwilioAccountSID:        conf.GetString("notification.twilioAccountSID"),
			TwilioAuthToken:         conf.GetString("notification.twilioAuthToken"),
			TwilioSMSFrom:           conf.GetString("notification.twilioSMSFrom"),
			TwilioWhatsAppFrom:      conf.GetString("notification.twilioWhatsAppFrom"),
			FirebaseCredentialsFile: conf.GetString("notification.firebaseCredentialsFile"),
		},
	}
}
