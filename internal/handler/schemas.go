package handler

import (
	"github.com/makeplus/makeplus-api/internal/validate"
)

const (
	msgOrder    = "Order must be a positive integer"
	msgIsActive = "isActive must be a boolean"
	msgStatVal  = "Value must be a positive integer"
)

// ContactSchema validates public contact form submissions.
var ContactSchema = validate.Schema{
	validate.Field("name").Trim().
		Check("required", "Name is required").
		Check("min=2,max=100", "Name must be between 2 and 100 characters").
		Check("personname", "Name can only contain letters, spaces, hyphens, and apostrophes").
		Escape(),
	validate.Field("email").NormalizeEmail().
		Check("required", "Email is required").
		Check("email", "Invalid email format"),
	validate.Field("phone").OptionalFalsy().Trim().
		Check("min=10,max=20", "Phone must be between 10 and 20 characters").
		Check("phone", "Phone can only contain numbers, spaces, +, (), and -").
		Escape(),
	validate.Field("company").OptionalFalsy().Trim().
		Check("max=100", "Company name cannot exceed 100 characters").
		Escape(),
	validate.Field("subject").Trim().
		Check("required", "Subject is required").
		Check("min=3,max=200", "Subject must be between 3 and 200 characters").
		Escape(),
	validate.Field("message").Trim().
		Check("required", "Message is required").
		Check("min=10,max=2000", "Message must be between 10 and 2000 characters").
		Escape(),
	validate.Field("language").Optional().
		Check("oneof=fr en", "Language must be either fr or en"),
}

// LoginSchema validates admin login requests.
var LoginSchema = validate.Schema{
	validate.Field("email").NormalizeEmail().
		Check("required", "Email is required").
		Check("email", "Invalid email format"),
	validate.Field("password").
		Check("required", "Password is required"),
}

// StatsSchema validates partial updates of the home page counters.
var StatsSchema = validate.Schema{
	statValue("internationalCongress"), statLabel("internationalCongress.labelFr"), statLabel("internationalCongress.labelEn"),
	statValue("symposium"), statLabel("symposium.labelFr"), statLabel("symposium.labelEn"),
	statValue("satisfiedCompanies"), statLabel("satisfiedCompanies.labelFr"), statLabel("satisfiedCompanies.labelEn"),
}

func statValue(counter string) *validate.Rule {
	return validate.Field(counter+".value").Optional().Int(msgStatVal).Check("min=0", msgStatVal)
}

func statLabel(path string) *validate.Rule {
	return validate.Field(path).Optional().Trim().Check("max=100", "Label cannot exceed 100 characters")
}

// VideoSchema validates video creation.
var VideoSchema = validate.Schema{
	validate.Field("titleFr").Trim().
		Check("required", "French title is required").
		Check("max=200", "Title cannot exceed 200 characters").
		Escape(),
	validate.Field("titleEn").Trim().
		Check("required", "English title is required").
		Check("max=200", "Title cannot exceed 200 characters").
		Escape(),
	videoDescription("descriptionFr"),
	videoDescription("descriptionEn"),
	validate.Field("youtubeUrl").Trim().
		Check("required", "YouTube URL is required").
		Check("url", "Invalid YouTube URL format").
		Check("youtube", "Must be a valid YouTube URL"),
	videoCategory(),
	videoTags(),
	orderField(),
	isActiveField(),
}

// VideoUpdateSchema validates partial video updates: every field is
// optional, present fields follow the creation rules.
var VideoUpdateSchema = validate.Schema{
	validate.Field("titleFr").Optional().Trim().
		Check("max=200", "Title cannot exceed 200 characters").
		Escape(),
	validate.Field("titleEn").Optional().Trim().
		Check("max=200", "Title cannot exceed 200 characters").
		Escape(),
	videoDescription("descriptionFr"),
	videoDescription("descriptionEn"),
	validate.Field("youtubeUrl").OptionalFalsy().Trim().
		Check("url", "Invalid YouTube URL format").
		Check("youtube", "Must be a valid YouTube URL"),
	videoCategory(),
	videoTags(),
	orderField(),
	isActiveField(),
}

func videoDescription(path string) *validate.Rule {
	return validate.Field(path).OptionalFalsy().Trim().
		Check("max=1000", "Description cannot exceed 1000 characters").
		Escape()
}

func videoCategory() *validate.Rule {
	return validate.Field("category").OptionalFalsy().Trim().
		Check("max=100", "Category cannot exceed 100 characters").
		Escape()
}

func videoTags() *validate.Rule {
	return validate.Field("tags").OptionalFalsy().Trim().
		List("Tags must be a list of strings").
		Check("max=20,dive,max=50", "Each tag must be at most 50 characters, 20 tags at most").
		Escape()
}

// PartnerSchema validates partner creation. The logo arrives either as a
// data URI field or as a multipart file; the handler enforces presence.
var PartnerSchema = validate.Schema{
	validate.Field("name").Trim().
		Check("required", "Partner name is required").
		Check("max=100", "Name cannot exceed 100 characters").
		Escape(),
	partnerWebsite(),
	partnerLogo(),
	orderField(),
	isActiveField(),
}

// PartnerUpdateSchema validates partial partner updates.
var PartnerUpdateSchema = validate.Schema{
	validate.Field("name").Optional().Trim().
		Check("max=100", "Name cannot exceed 100 characters").
		Escape(),
	partnerWebsite(),
	partnerLogo(),
	orderField(),
	isActiveField(),
}

func partnerWebsite() *validate.Rule {
	return validate.Field("website").OptionalFalsy().Trim().
		Check("url", "Invalid URL format")
}

func partnerLogo() *validate.Rule {
	return validate.Field("logo").Optional().Trim().
		Func(func(v any) bool {
			s, _ := v.(string)
			_, _, err := parseLogoDataURI(s)
			return err == nil
		}, "Logo must be a PNG, JPEG, SVG or WebP image of at most 5MB")
}

// ContactStatusSchema validates contact status changes.
var ContactStatusSchema = validate.Schema{
	validate.Field("status").Trim().
		Check("required", "Status is required").
		Check("oneof=new read replied archived", "Invalid status value"),
}

// AdminCreateSchema validates new admin accounts.
var AdminCreateSchema = validate.Schema{
	validate.Field("email").NormalizeEmail().
		Check("required", "Email is required").
		Check("email", "Invalid email format"),
	validate.Field("name").Trim().
		Check("required", "Name is required").
		Check("max=100", "Name cannot exceed 100 characters").
		Escape(),
	validate.Field("password").
		Check("required", "Password is required").
		Check("min=8", "Password must be at least 8 characters"),
	validate.Field("role").Optional().Trim().
		Check("oneof=admin superadmin", "Role must be either admin or superadmin"),
}

// PasswordChangeSchema validates a password change by the signed-in admin.
var PasswordChangeSchema = validate.Schema{
	validate.Field("currentPassword").
		Check("required", "Current password is required"),
	validate.Field("newPassword").
		Check("required", "New password is required").
		Check("min=8", "Password must be at least 8 characters"),
}

// AdminStatusSchema validates account activation changes.
var AdminStatusSchema = validate.Schema{
	validate.Field("isActive").Bool(msgIsActive),
}

// ReorderSchema validates a reorder request whose items are listed under
// key, e.g. {"videos":[{"id":1,"order":0}]}.
func ReorderSchema(key string) validate.Schema {
	msg := "Invalid " + key + " array"
	return validate.Schema{
		validate.Field(key).Objects(msg).
			Check("min=1", msg).
			Func(validOrderItems, "Each item needs a positive id and an order of at least 0"),
	}
}

func validOrderItems(v any) bool {
	items, _ := v.([]map[string]any)
	for _, it := range items {
		id, ok := it["id"].(float64)
		if !ok || id < 1 || id != float64(int64(id)) {
			return false
		}
		order, ok := it["order"].(float64)
		if !ok || order < 0 || order != float64(int(order)) {
			return false
		}
	}
	return true
}

func orderField() *validate.Rule {
	return validate.Field("order").Optional().Int(msgOrder).Check("min=0", msgOrder)
}

func isActiveField() *validate.Rule {
	return validate.Field("isActive").Optional().Bool(msgIsActive)
}
