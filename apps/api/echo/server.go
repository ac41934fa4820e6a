package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
	"github.com/reminderx/backend/core/org"
	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/user"
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		UserSvc       user.Service
		ParticularSvc particular.Service
		OrgSvc        org.Service
		NotifSvc      notification.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		addr string
		deps *ServerDeps
		app  *echo.Echo

		serverErrors   chan error
		shutdownSignal chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(addr string, deps *ServerDeps) Server {
	s := &server{
		addr:           addr,
		deps:           deps,
		app:            echo.New(),
		serverErrors:   make(chan error, 1),
		shutdownSignal: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	initJWTConfig(conf)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, func() {
		s.shutdownSignal <- syscall.SIGTERM
	})
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(api, jwt, s.deps)
	registerParticularAPI(api, jwt, s.deps)
	registerOrgAPI(api, jwt, s.deps)
	registerNotificationAPI(api, jwt, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.serverErrors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.serverErrors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownSignal
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to ReminderX API!")
}
