package tests

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	. "github.com/reminderx/backend/apps/api/echo"
	"github.com/reminderx/backend/core/org"
	"github.com/reminderx/backend/core/user"
	emailsvc "github.com/reminderx/backend/services/email"
)

var inviteTokenRx = regexp.MustCompile(`/verify-staff/([0-9a-f]+)`)

func lastSentInviteToken(t *testing.T) string {
	t.Helper()
	if len(emailsvc.SentMessages) == 0 {
		t.Fatal("no mail was sent")
	}
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	m := inviteTokenRx.FindStringSubmatch(msg.BodyStr)
	if m == nil {
		t.Fatalf("no invite token found in mail body: %q", msg.BodyStr)
	}
	return m[1]
}

func Test_orgApi_lifecycle(t *testing.T) {
	app := setup(t)

	founder := createUser(t, "boss", "boss@test.cd", "s3cr3tP4ss", user.RoleAdmin, user.PlanFree, "", true)
	staff := createUser(t, "staff", "staff@test.cd", "s3cr3tP4ss", user.RoleAdmin, user.PlanFree, "", true)
	// issued on the free plan; the admin endpoints below must honor the
	// plan upgrade that creating the organization triggers, not the token
	founderToken := getToken(t, founder)

	var created org.Organization
	t.Run("Create", func(t *testing.T) {
		body := marchallObj(t, org.NewOrganization{Name: "Kin Materials"})
		req, rec := newAuthRequest(http.MethodPost, "/api/organizations", founderToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if created.ID == "" || created.AdminID != founder.ID {
			t.Errorf("unexpected organization: %+v", created)
		}
		if len(created.OrganizationalID) != 6 {
			t.Errorf("OrganizationalID = %q; want a 6-digit identifier", created.OrganizationalID)
		}
	})

	t.Run("Create: already in an organization", func(t *testing.T) {
		body := marchallObj(t, org.NewOrganization{Name: "Second Shop"})
		req, rec := newAuthRequest(http.MethodPost, "/api/organizations", founderToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Retrieve mine", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/organizations/mine", founderToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var resp org.Organization
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.ID != created.ID {
			t.Errorf("ID = %q; want %q", resp.ID, created.ID)
		}
		if len(resp.Staff) != 1 || resp.Staff[0].ID != founder.ID {
			t.Errorf("unexpected staff: %+v", resp.Staff)
		}
	})

	t.Run("Retrieve mine: no organization", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/organizations/mine", getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Set icon", func(t *testing.T) {
		body := marchallObj(t, SetIconRequest{IconURL: "https://cdn.test.cd/icons/kin.png"})
		req, rec := newAuthRequest(http.MethodPut, "/api/organizations/mine/icon", founderToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var resp org.Organization
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.IconURL != "https://cdn.test.cd/icons/kin.png" {
			t.Errorf("IconURL = %q", resp.IconURL)
		}
	})

	var staffUsr user.User
	t.Run("Invite & verify staff", func(t *testing.T) {
		body := marchallObj(t, org.InviteStaff{Email: staff.Email})
		req, rec := newAuthRequest(http.MethodPost, "/api/organizations/mine/invite", founderToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		token := lastSentInviteToken(t)

		// the invitation link is consumed pre-login
		req, rec = newRequest(http.MethodPost, "/api/verify-staff", marchallObj(t, org.VerifyStaff{Token: token}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Token == "" || resp.User == nil {
			t.Fatal("expected a token and user on successful verification")
		}
		staffUsr = *resp.User
		if staffUsr.Role != user.RoleStaff || staffUsr.OrgID != created.ID || staffUsr.Plan != user.PlanMultiUsers {
			t.Errorf("unexpected staff user: %+v", staffUsr)
		}

		// a used invitation is gone
		req, rec = newRequest(http.MethodPost, "/api/verify-staff", marchallObj(t, org.VerifyStaff{Token: token}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on a consumed invitation; got %v", rec.Code)
		}
	})

	t.Run("Invite: staff may not invite", func(t *testing.T) {
		body := marchallObj(t, org.InviteStaff{Email: "more@test.cd"})
		req, rec := newAuthRequest(http.MethodPost, "/api/organizations/mine/invite", getToken(t, staffUsr), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("Send staff message", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)
		body := marchallObj(t, org.StaffMessage{Subject: "Expiring documents", Message: "Please renew your permits."})
		req, rec := newAuthRequest(http.MethodPost, "/api/staff/"+staffUsr.ID+"/send-message", founderToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if len(emailsvc.SentMessages) != sent+1 {
			t.Error("expected a staff message mail")
		}
	})

	t.Run("Send staff message: outside my organization", func(t *testing.T) {
		outsider := createUser(t, "lone", "lone@test.cd", "s3cr3tP4ss", user.RoleAdmin, user.PlanFree, "", true)
		body := marchallObj(t, org.StaffMessage{Subject: "Hi", Message: "Hello"})
		req, rec := newAuthRequest(http.MethodPost, "/api/staff/"+outsider.ID+"/send-message", founderToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}
