package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/reminderx/backend/core/notification"
	"github.com/reminderx/backend/core/user"
)

func Test_notificationApi(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "awe", "awe@test.cd", "s3cr3tP4ss", user.RoleAdmin, user.PlanFree, "", true)
	other := createUser(t, "king", "king@test.cd", "s3cr3tP4ss", user.RoleAdmin, user.PlanFree, "", true)
	token := getToken(t, usr)

	ctx := context.Background()
	older, err := notifSvc.Create(ctx, notification.Notification{
		UserID:          usr.ID,
		ParticularTitle: "Passport",
		Message:         "Your Passport expires in 3 days.",
		CreatedAt:       time.Now().Add(-time.Hour).UTC(),
	})
	if err != nil {
		t.Fatalf("notifSvc.Create() failed: %v", err)
	}
	newer, err := notifSvc.Create(ctx, notification.Notification{
		UserID:          usr.ID,
		ParticularTitle: "Insurance",
		Message:         "Your Insurance expires today.",
	})
	if err != nil {
		t.Fatalf("notifSvc.Create() failed: %v", err)
	}
	foreign, err := notifSvc.Create(ctx, notification.Notification{
		UserID:          other.ID,
		ParticularTitle: "Visa",
		Message:         "Your Visa expired on Jan 2, 2026.",
	})
	if err != nil {
		t.Fatalf("notifSvc.Create() failed: %v", err)
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/notifications")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Query newest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/notifications", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var resp []notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(resp) != 2 {
			t.Fatalf("len = %d; want 2", len(resp))
		}
		if resp[0].ID != newer.ID || resp[1].ID != older.ID {
			t.Errorf("unexpected order: %+v", resp)
		}
	})

	t.Run("Mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/notifications/"+older.ID+"/read", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var resp notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if !resp.Read {
			t.Error("expected notification to be read")
		}
	})

	t.Run("Mark read: not mine", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/notifications/"+foreign.ID+"/read", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/notifications/"+older.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/notifications", token)
		app.ServeHTTP(rec, req)
		var resp []notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(resp) != 1 {
			t.Errorf("len = %d; want 1", len(resp))
		}
	})
}
