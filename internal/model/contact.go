package model

import "time"

// ContactStatus tracks how far a contact submission has been handled.
type ContactStatus string

const (
	ContactNew      ContactStatus = "new"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

// ContactStatuses lists every status in workflow order.
var ContactStatuses = []ContactStatus{ContactNew, ContactRead, ContactReplied, ContactArchived}

// Language of a submission; drives the auto-reply and response messages.
const (
	LangFR = "fr"
	LangEN = "en"
)

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Email       string        `json:"email" db:"email"`
	Phone       string        `json:"phone,omitempty" db:"phone"`
	Company     string        `json:"company,omitempty" db:"company"`
	Subject     string        `json:"subject" db:"subject"`
	Message     string        `json:"message" db:"message"`
	Language    string        `json:"language" db:"language"`
	Status      ContactStatus `json:"status" db:"status"`
	IPAddress   string        `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent   string        `json:"userAgent,omitempty" db:"user_agent"`
	EmailSent   bool          `json:"emailSent" db:"email_sent"`
	EmailSentAt *time.Time    `json:"emailSentAt,omitempty" db:"email_sent_at"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// ContactFilter narrows an admin contact listing.
type ContactFilter struct {
	Status ContactStatus
	Search string
	Limit  int
	Offset int
}

// ContactSummary counts submissions per status.
type ContactSummary struct {
	Total    int64 `json:"total"`
	New      int64 `json:"new"`
	Read     int64 `json:"read"`
	Replied  int64 `json:"replied"`
	Archived int64 `json:"archived"`
}
