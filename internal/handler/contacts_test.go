package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/makeplus/makeplus-api/internal/model"
)

func validContact() map[string]string {
	return map[string]string{
		"name":    "Amélie Durand",
		"email":   "Amelie@Example.com",
		"phone":   "+33 1 23 45 67 89",
		"company": "Durand & Fils",
		"subject": "Congress booth",
		"message": "We would like a booth at the next congress.",
	}
}

// ---------------------------------------------------------------------------
// Public submission
// ---------------------------------------------------------------------------

func TestSubmitContact(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/contact", toJSON(t, validContact()))
	assertStatus(t, rr, http.StatusOK)

	var receipt ContactReceipt
	resp := decodeEnvelope(t, rr, &receipt)
	if resp.Message != "Message envoyé avec succès" || receipt.ID == 0 || receipt.Timestamp.IsZero() {
		t.Errorf("envelope = %+v, receipt = %+v", resp, receipt)
	}

	c, err := env.store.GetContact(context.Background(), receipt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Email != "amelie@example.com" || c.Language != model.LangFR || c.Status != model.ContactNew {
		t.Errorf("stored = %+v", c)
	}
	if c.Company != "Durand &amp; Fils" {
		t.Errorf("company = %q, want escaped", c.Company)
	}
	if c.IPAddress != "192.0.2.1" {
		t.Errorf("ip = %q", c.IPAddress)
	}
	if !c.EmailSent || c.EmailSentAt == nil {
		t.Error("expected email_sent to be recorded")
	}

	msgs := env.mailer.Messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d emails, want 2", len(msgs))
	}
	if msgs[0].To != "team@makeplus.test" || msgs[0].Subject != "[Makeplus Contact] Congress booth" {
		t.Errorf("notification = %+v", msgs[0])
	}
	if msgs[1].To != "amelie@example.com" {
		t.Errorf("auto-reply to = %q", msgs[1].To)
	}
}

func TestSubmitContact_English(t *testing.T) {
	env := newTestEnv(t)
	in := validContact()
	in["language"] = "en"

	rr := env.do(t, "POST", "/api/contact", toJSON(t, in))
	assertStatus(t, rr, http.StatusOK)
	if resp := decodeEnvelope(t, rr, nil); resp.Message != "Message sent successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestSubmitContact_FormEncoded(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{}
	for k, v := range validContact() {
		form.Set(k, v)
	}
	req, _ := http.NewRequest("POST", "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(env, req)
	assertStatus(t, rr, http.StatusOK)
}

func TestSubmitContact_MailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.Err = errors.New("smtp: connection refused")

	rr := env.do(t, "POST", "/api/contact", toJSON(t, validContact()))
	assertStatus(t, rr, http.StatusOK)

	var receipt ContactReceipt
	decodeEnvelope(t, rr, &receipt)
	c, err := env.store.GetContact(context.Background(), receipt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.EmailSent {
		t.Error("email_sent recorded although delivery failed")
	}
}

func TestSubmitContact_CollectsAllErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/contact", toJSON(t, map[string]string{
		"name":     "X",
		"email":    "nope",
		"phone":    "abc",
		"message":  "short",
		"language": "de",
	}))
	assertStatus(t, rr, http.StatusBadRequest)
	resp := decodeEnvelope(t, rr, nil)
	want := map[string]string{
		"name":     "Name must be between 2 and 100 characters",
		"email":    "Invalid email format",
		"phone":    "Phone must be between 10 and 20 characters",
		"subject":  "Subject is required",
		"message":  "Message must be between 10 and 2000 characters",
		"language": "Language must be either fr or en",
	}
	got := fieldMessages(resp.Errors)
	if len(resp.Errors) != len(want) {
		t.Errorf("got %d errors, want %d: %+v", len(resp.Errors), len(want), resp.Errors)
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s: got %q, want %q", field, got[field], msg)
		}
	}
	if len(env.mailer.Messages()) != 0 {
		t.Error("invalid submission sent emails")
	}
}

// ---------------------------------------------------------------------------
// Admin views
// ---------------------------------------------------------------------------

func seedContacts(t *testing.T, env *testEnv, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := range n {
		c := &model.Contact{
			Name:    fmt.Sprintf("Person %d", i),
			Email:   fmt.Sprintf("p%d@example.com", i),
			Subject: fmt.Sprintf("Subject %d", i),
			Message: "A message long enough.",
		}
		if err := env.store.CreateContact(context.Background(), c); err != nil {
			t.Fatal(err)
		}
		ids[i] = c.ID
	}
	return ids
}

func TestListContacts_Pagination(t *testing.T) {
	env := newTestEnv(t)
	seedContacts(t, env, 25)

	rr := env.do(t, "GET", "/api/admin/contacts", nil)
	assertStatus(t, rr, http.StatusOK)
	var page ContactPage
	decodeEnvelope(t, rr, &page)
	if len(page.Contacts) != 20 {
		t.Errorf("default page size = %d, want 20", len(page.Contacts))
	}
	p := page.Pagination
	if p.CurrentPage != 1 || p.TotalPages != 2 || p.TotalItems != 25 || p.ItemsPerPage != 20 || !p.HasNextPage {
		t.Errorf("pagination = %+v", p)
	}

	rr = env.do(t, "GET", "/api/admin/contacts?page=2&limit=20", nil)
	decodeEnvelope(t, rr, &page)
	if len(page.Contacts) != 5 || page.Pagination.HasNextPage || !page.Pagination.HasPrevPage {
		t.Errorf("page 2 = %d contacts, %+v", len(page.Contacts), page.Pagination)
	}

	rr = env.do(t, "GET", "/api/admin/contacts?limit=1000", nil)
	decodeEnvelope(t, rr, &page)
	if page.Pagination.ItemsPerPage != 100 {
		t.Errorf("limit not clamped: %d", page.Pagination.ItemsPerPage)
	}
}

func TestListContacts_Filters(t *testing.T) {
	env := newTestEnv(t)
	ids := seedContacts(t, env, 3)
	if err := env.store.UpdateContactStatus(context.Background(), ids[0], model.ContactArchived); err != nil {
		t.Fatal(err)
	}

	var page ContactPage
	decodeEnvelope(t, env.do(t, "GET", "/api/admin/contacts?status=archived", nil), &page)
	if page.Pagination.TotalItems != 1 || page.Contacts[0].ID != ids[0] {
		t.Errorf("status filter = %+v", page)
	}

	decodeEnvelope(t, env.do(t, "GET", "/api/admin/contacts?search=SUBJECT%202", nil), &page)
	if page.Pagination.TotalItems != 1 || page.Contacts[0].ID != ids[2] {
		t.Errorf("search = %+v", page)
	}

	assertStatus(t, env.do(t, "GET", "/api/admin/contacts?status=bogus", nil), http.StatusBadRequest)
}

func TestContactLifecycle(t *testing.T) {
	env := newTestEnv(t)
	id := seedContacts(t, env, 1)[0]
	path := fmt.Sprintf("/api/admin/contacts/%d", id)

	rr := env.do(t, "PUT", path+"/status", toJSON(t, map[string]string{"status": "replied"}))
	assertStatus(t, rr, http.StatusOK)
	var c model.Contact
	resp := decodeEnvelope(t, rr, &c)
	if resp.Message != "Status updated successfully" || c.Status != model.ContactReplied {
		t.Errorf("update = %+v %+v", resp, c)
	}

	rr = env.do(t, "PUT", path+"/status", toJSON(t, map[string]string{"status": "lost"}))
	assertStatus(t, rr, http.StatusBadRequest)

	var summary model.ContactSummary
	decodeEnvelope(t, env.do(t, "GET", "/api/admin/contacts/stats/summary", nil), &summary)
	if summary.Total != 1 || summary.Replied != 1 || summary.New != 0 {
		t.Errorf("summary = %+v", summary)
	}

	assertStatus(t, env.do(t, "DELETE", path, nil), http.StatusOK)
	rr = env.do(t, "GET", path, nil)
	assertStatus(t, rr, http.StatusNotFound)
	if resp := decodeEnvelope(t, rr, nil); resp.Message != "Contact submission not found" {
		t.Errorf("message = %q", resp.Message)
	}
	assertStatus(t, env.do(t, "DELETE", path, nil), http.StatusNotFound)
	assertStatus(t, env.do(t, "GET", "/api/admin/contacts/abc", nil), http.StatusNotFound)
}
