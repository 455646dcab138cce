package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"time"

	"github.com/makeplus/makeplus-api/internal/model"
)

// Notifier sends the two emails that follow a contact submission.
type Notifier struct {
	mailer Mailer
	from   string
	to     string
	logger *slog.Logger
}

// NewNotifier sends from `from` and delivers notifications to `to`.
func NewNotifier(m Mailer, from, to string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{mailer: m, from: from, to: to, logger: logger}
}

// Result reports which of the two emails went out.
type Result struct {
	Notification bool
	AutoReply    bool
}

// ContactReceived sends the team notification and the submitter's
// auto-reply. Each is attempted independently; failures are joined.
func (n *Notifier) ContactReceived(ctx context.Context, c *model.Contact) (Result, error) {
	var (
		res  Result
		errs []error
	)

	notice, err := renderNotification(c)
	if err == nil {
		err = n.mailer.Send(ctx, Message{
			From:    n.from,
			To:      n.to,
			Subject: "[Makeplus Contact] " + html.UnescapeString(c.Subject),
			HTML:    notice,
		})
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("notification: %w", err))
	} else {
		res.Notification = true
	}

	reply, subject, err := renderAutoReply(c)
	if err == nil {
		err = n.mailer.Send(ctx, Message{From: n.from, To: c.Email, Subject: subject, HTML: reply})
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("auto-reply: %w", err))
	} else {
		res.AutoReply = true
	}

	if len(errs) > 0 {
		n.logger.WarnContext(ctx, "contact email delivery incomplete", "contact_id", c.ID,
			"notification", res.Notification, "auto_reply", res.AutoReply, "error", errors.Join(errs...))
	}
	return res, errors.Join(errs...)
}

// Stored contact fields are already HTML-escaped; they are unescaped here so
// html/template escapes them exactly once.
type notificationData struct {
	Name, Email, Phone, Company, Subject, Message, IPAddress string
	Timestamp                                                string
}

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; background: #f4f4f4;">
  <div style="max-width: 600px; margin: 20px auto; background: #fff; border-radius: 8px;">
    <div style="background: #872c7a; color: #fff; padding: 30px 20px; text-align: center;">
      <h2 style="margin: 0;">New contact form submission</h2>
    </div>
    <div style="padding: 30px 20px;">
      <p><strong>Name:</strong> {{.Name}}</p>
      <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
      {{if .Phone}}<p><strong>Phone:</strong> {{.Phone}}</p>{{end}}
      {{if .Company}}<p><strong>Company:</strong> {{.Company}}</p>{{end}}
      <p><strong>Subject:</strong> {{.Subject}}</p>
      <p><strong>Message:</strong></p>
      <p style="white-space: pre-wrap;">{{.Message}}</p>
    </div>
    <div style="padding: 15px 20px; font-size: 12px; color: #777;">
      Received {{.Timestamp}}{{if .IPAddress}} from {{.IPAddress}}{{end}}
    </div>
  </div>
</body>
</html>
`))

func renderNotification(c *model.Contact) (string, error) {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	data := notificationData{
		Name:      html.UnescapeString(c.Name),
		Email:     c.Email,
		Phone:     html.UnescapeString(c.Phone),
		Company:   html.UnescapeString(c.Company),
		Subject:   html.UnescapeString(c.Subject),
		Message:   html.UnescapeString(c.Message),
		IPAddress: c.IPAddress,
		Timestamp: created.UTC().Format("2006-01-02 15:04 MST"),
	}
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return buf.String(), nil
}

type autoReplyText struct {
	Subject, Greeting, ThanksTitle, ThanksMessage, SummaryTitle string
	SubjectLabel, Closing, Team, Tagline                        string
}

var autoReplyTexts = map[string]autoReplyText{
	model.LangFR: {
		Subject:       "Merci pour votre message - Makeplus",
		Greeting:      "Bonjour",
		ThanksTitle:   "Merci pour votre message",
		ThanksMessage: "Merci de nous avoir contactés. Nous avons bien reçu votre message et notre équipe vous répondra dans les plus brefs délais.",
		SummaryTitle:  "Voici un récapitulatif de votre demande :",
		SubjectLabel:  "Sujet",
		Closing:       "À très bientôt,",
		Team:          "L'équipe Makeplus",
		Tagline:       "Plus qu'un partenaire",
	},
	model.LangEN: {
		Subject:       "Thank you for your message - Makeplus",
		Greeting:      "Hello",
		ThanksTitle:   "Thank you for your message",
		ThanksMessage: "Thank you for contacting us. We have received your message and our team will respond to you as soon as possible.",
		SummaryTitle:  "Here is a summary of your request:",
		SubjectLabel:  "Subject",
		Closing:       "See you soon,",
		Team:          "The Makeplus Team",
		Tagline:       "More than a partner",
	},
}

var autoReplyTmpl = template.Must(template.New("autoreply").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; background: #f4f4f4;">
  <div style="max-width: 600px; margin: 20px auto; background: #fff; border-radius: 8px;">
    <div style="background: #872c7a; color: #fff; padding: 40px 20px; text-align: center;">
      <h1 style="margin: 0;">Makeplus</h1>
      <p style="margin: 10px 0 0 0;">{{.T.Tagline}}</p>
    </div>
    <div style="padding: 40px 30px;">
      <p>{{.T.Greeting}} {{.Name}},</p>
      <h3 style="color: #872c7a;">{{.T.ThanksTitle}}</h3>
      <p>{{.T.ThanksMessage}}</p>
      <p>{{.T.SummaryTitle}}</p>
      <p><strong>{{.T.SubjectLabel}}:</strong> {{.Subject}}</p>
      <p>{{.T.Closing}}<br>{{.T.Team}}</p>
    </div>
  </div>
</body>
</html>
`))

func renderAutoReply(c *model.Contact) (string, string, error) {
	t, ok := autoReplyTexts[c.Language]
	if !ok {
		t = autoReplyTexts[model.LangFR]
	}
	data := struct {
		T             autoReplyText
		Name, Subject string
	}{t, html.UnescapeString(c.Name), html.UnescapeString(c.Subject)}

	var buf bytes.Buffer
	if err := autoReplyTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render auto-reply: %w", err)
	}
	return buf.String(), t.Subject, nil
}
