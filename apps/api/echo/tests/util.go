package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/reminderx/backend/apps/api/echo"
	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
	"github.com/reminderx/backend/core/org"
	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/user"
	emailsvc "github.com/reminderx/backend/services/email"
	inmemdb "github.com/reminderx/backend/storage/database/inmem"
)

var (
	conf *core.Config

	usrRepo        user.Repository
	otpRepo        user.OTPRepository
	particularRepo particular.Repository
	orgRepo        org.Repository
	notifRepo      notification.Repository

	usrSvc        user.Service
	particularSvc particular.Service
	orgSvc        org.Service
	notifSvc      notification.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	otpRepo = inmemdb.NewOTPRepository(db)
	particularRepo = inmemdb.NewParticularRepository(db)
	orgRepo = inmemdb.NewOrgRepository(db)
	notifRepo = inmemdb.NewNotificationRepository(db)

	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	core.ParseEmailTemplates(conf, nopLogger{})

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.SentMessages = emailsvc.SentMessages[:0]
	usrSvc = user.NewServiceMock(usrRepo, otpRepo, mailSvc, conf)
	particularSvc = particular.NewService(particularRepo)
	orgSvc = org.NewService(orgRepo, usrSvc, mailSvc, conf)
	notifSvc = notification.NewService(notifRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	particular.InitValidators(validate, translator)

	// set up server
	return NewServer(
		"", /* addr */
		&ServerDeps{
			Conf:          conf,
			Logger:        nopLogger{},
			UserSvc:       usrSvc,
			ParticularSvc: particularSvc,
			OrgSvc:        orgSvc,
			NotifSvc:      notifSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func createUser(t *testing.T, uname, email, pwd, role string, plan user.Plan, orgID string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:           uname,
		Email:              email,
		IsActive:           &isActive,
		Role:               role,
		Plan:               plan,
		OrgID:              orgID,
		EmailNotifications: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func createParticular(t *testing.T, ownerID, orgID, title, category string, expiry time.Time) particular.Particular {
	t.Helper()
	p, err := particularSvc.Create(context.Background(), ownerID, orgID, particular.NewParticular{
		Title:      title,
		Category:   category,
		ExpiryDate: expiry,
	})
	if err != nil {
		t.Fatalf("particularSvc.Create() failed: %v", err)
	}
	return p
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
