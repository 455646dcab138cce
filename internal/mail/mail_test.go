package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/makeplus/makeplus-api/internal/config"
	"github.com/makeplus/makeplus-api/internal/model"
)

func testContact(lang string) *model.Contact {
	return &model.Contact{
		ID:        1,
		Name:      "Jane O&#39;Doe",
		Email:     "jane@example.com",
		Subject:   "Quote &amp; timing",
		Message:   "&lt;script&gt;alert(1)&lt;/script&gt; please call back",
		Language:  lang,
		IPAddress: "203.0.113.7",
	}
}

func TestContactReceivedSendsBoth(t *testing.T) {
	rec := &Recorder{}
	n := NewNotifier(rec, "noreply@makeplus.local", "team@makeplus.local", nil)

	res, err := n.ContactReceived(context.Background(), testContact(model.LangEN))
	if err != nil {
		t.Fatalf("ContactReceived: %v", err)
	}
	if !res.Notification || !res.AutoReply {
		t.Errorf("result = %+v", res)
	}

	sent := rec.Messages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	notice, reply := sent[0], sent[1]
	if notice.To != "team@makeplus.local" || notice.Subject != "[Makeplus Contact] Quote & timing" {
		t.Errorf("notification = %+v", notice)
	}
	if strings.Contains(notice.HTML, "<script>") {
		t.Error("notification must escape submitted markup")
	}
	if strings.Contains(notice.HTML, "&amp;lt;") {
		t.Error("notification double-escaped stored content")
	}
	if reply.To != "jane@example.com" || reply.Subject != "Thank you for your message - Makeplus" {
		t.Errorf("auto-reply = %+v", reply)
	}
}

func TestAutoReplyLanguage(t *testing.T) {
	rec := &Recorder{}
	n := NewNotifier(rec, "from@x", "to@x", nil)
	for lang, want := range map[string]string{
		model.LangFR: "Merci pour votre message - Makeplus",
		"de":         "Merci pour votre message - Makeplus",
		model.LangEN: "Thank you for your message - Makeplus",
	} {
		rec.Sent = nil
		n.ContactReceived(context.Background(), testContact(lang))
		msgs := rec.Messages()
		if len(msgs) != 2 || msgs[1].Subject != want {
			t.Errorf("lang %q: got %+v", lang, msgs)
		}
	}
}

func TestContactReceivedReportsFailure(t *testing.T) {
	rec := &Recorder{Err: errors.New("connection refused")}
	n := NewNotifier(rec, "from@x", "to@x", nil)

	res, err := n.ContactReceived(context.Background(), testContact(model.LangFR))
	if err == nil {
		t.Fatal("expected an error")
	}
	if res.Notification || res.AutoReply {
		t.Errorf("result = %+v", res)
	}
}

func TestNewWithoutHostIsDisabled(t *testing.T) {
	m := New(config.MailConfig{}, nil)
	if err := m.Send(context.Background(), Message{To: "x@y"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}

func TestCompose(t *testing.T) {
	raw := string(compose(Message{From: "Makeplus <noreply@makeplus.local>", To: "a@b.c", Subject: "Merci é", HTML: "<p>x</p>\n"}))
	if !strings.Contains(raw, "Content-Type: text/html; charset=UTF-8\r\n") {
		t.Errorf("missing content type:\n%s", raw)
	}
	if !strings.Contains(raw, "Subject: =?utf-8?q?") {
		t.Errorf("subject not encoded:\n%s", raw)
	}
	if got := addressOf("Makeplus <noreply@makeplus.local>"); got != "noreply@makeplus.local" {
		t.Errorf("addressOf = %q", got)
	}
}
