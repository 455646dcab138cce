package openapi

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/makeplus/makeplus-api/internal/handler"
	"github.com/makeplus/makeplus-api/internal/model"
)

// Routes returns every endpoint the server mounts, in mount order.
func Routes() []Route {
	return describe([]Route{
		// Health checks and document.
		{Method: http.MethodGet, Path: "/healthz", Tag: "system", Summary: "Liveness check", Raw: true, Data: map[string]string{}},
		{Method: http.MethodGet, Path: "/readyz", Tag: "system", Summary: "Readiness check (database ping)", Raw: true, Data: map[string]string{}},
		{Method: http.MethodGet, Path: "/api/health", Tag: "system", Summary: "Service health", Raw: true, Data: handler.HealthStatus{}},
		{Method: http.MethodGet, Path: "/openapi.json", Tag: "system", Summary: "This document", Raw: true, Data: map[string]any{}},

		// Public site.
		{
			Method: http.MethodPost, Path: "/api/contact", Tag: "public",
			Summary: "Submit the contact form", RateLimited: true,
			Body: handler.ContactSchema, Data: handler.ContactReceipt{},
		},
		{Method: http.MethodGet, Path: "/api/content/stats", Tag: "public", Summary: "Public statistics", Data: model.PublicStats{}},
		{Method: http.MethodGet, Path: "/api/content/videos", Tag: "public", Summary: "Active videos in display order", Data: []model.Video{}},
		{Method: http.MethodGet, Path: "/api/content/partners", Tag: "public", Summary: "Active partners in display order", Data: []model.Partner{}},

		// Session.
		{
			Method: http.MethodPost, Path: "/api/admin/login", Tag: "auth",
			Summary: "Log in and receive a session token", RateLimited: true,
			Body: handler.LoginSchema, Data: handler.LoginData{},
		},
		{Method: http.MethodPost, Path: "/api/admin/logout", Tag: "auth", Summary: "Expire the session cookie", Auth: true},
		{Method: http.MethodGet, Path: "/api/admin/me", Tag: "auth", Summary: "Current admin", Auth: true, Data: model.Admin{}},
		{
			Method: http.MethodPut, Path: "/api/admin/me/password", Tag: "auth",
			Summary: "Change own password", Auth: true, Body: handler.PasswordChangeSchema,
		},

		// Statistics.
		{Method: http.MethodGet, Path: "/api/admin/stats", Tag: "stats", Summary: "Statistics with audit fields", Auth: true, Data: model.StatsView{}},
		{
			Method: http.MethodPut, Path: "/api/admin/stats", Tag: "stats",
			Summary: "Update statistics", Auth: true, Body: handler.StatsSchema, Data: model.StatsView{},
		},

		// Videos.
		{Method: http.MethodGet, Path: "/api/admin/videos", Tag: "videos", Summary: "All videos", Auth: true, Data: []model.Video{}},
		{
			Method: http.MethodPost, Path: "/api/admin/videos", Tag: "videos",
			Summary: "Create a video", Auth: true, Body: handler.VideoSchema,
			Status: http.StatusCreated, Data: model.Video{},
		},
		{
			Method: http.MethodPut, Path: "/api/admin/videos/reorder", Tag: "videos",
			Summary: "Reorder videos", Auth: true, Body: handler.ReorderSchema("videos"),
		},
		{Method: http.MethodGet, Path: "/api/admin/videos/{id}", Tag: "videos", Summary: "Get a video", Auth: true, Data: model.Video{}},
		{
			Method: http.MethodPut, Path: "/api/admin/videos/{id}", Tag: "videos",
			Summary: "Update a video", Auth: true, Body: handler.VideoUpdateSchema, Data: model.Video{},
		},
		{Method: http.MethodDelete, Path: "/api/admin/videos/{id}", Tag: "videos", Summary: "Delete a video", Auth: true, SuperAdmin: true},

		// Partners.
		{Method: http.MethodGet, Path: "/api/admin/partners", Tag: "partners", Summary: "All partners", Auth: true, Data: []model.Partner{}},
		{
			Method: http.MethodPost, Path: "/api/admin/partners", Tag: "partners",
			Summary: "Add a partner", Auth: true, Body: handler.PartnerSchema, Multipart: true,
			Status: http.StatusCreated, Data: model.Partner{},
		},
		{
			Method: http.MethodPut, Path: "/api/admin/partners/reorder", Tag: "partners",
			Summary: "Reorder partners", Auth: true, Body: handler.ReorderSchema("partners"),
		},
		{Method: http.MethodGet, Path: "/api/admin/partners/{id}", Tag: "partners", Summary: "Get a partner", Auth: true, Data: model.Partner{}},
		{
			Method: http.MethodPut, Path: "/api/admin/partners/{id}", Tag: "partners",
			Summary: "Update a partner", Auth: true, Body: handler.PartnerUpdateSchema, Multipart: true, Data: model.Partner{},
		},
		{Method: http.MethodDelete, Path: "/api/admin/partners/{id}", Tag: "partners", Summary: "Delete a partner", Auth: true, SuperAdmin: true},

		// Contacts.
		{
			Method: http.MethodGet, Path: "/api/admin/contacts", Tag: "contacts",
			Summary: "List submissions", Auth: true, Query: contactQueryParameters(), Data: handler.ContactPage{},
		},
		{Method: http.MethodGet, Path: "/api/admin/contacts/stats/summary", Tag: "contacts", Summary: "Submission counts per status", Auth: true, Data: model.ContactSummary{}},
		{Method: http.MethodGet, Path: "/api/admin/contacts/{id}", Tag: "contacts", Summary: "Get a submission", Auth: true, Data: model.Contact{}},
		{
			Method: http.MethodPut, Path: "/api/admin/contacts/{id}/status", Tag: "contacts",
			Summary: "Update a submission status", Auth: true, Body: handler.ContactStatusSchema, Data: model.Contact{},
		},
		{Method: http.MethodDelete, Path: "/api/admin/contacts/{id}", Tag: "contacts", Summary: "Delete a submission", Auth: true, SuperAdmin: true},

		// Admin accounts.
		{Method: http.MethodGet, Path: "/api/admin/admins", Tag: "admins", Summary: "List admins", Auth: true, SuperAdmin: true, Data: []model.Admin{}},
		{
			Method: http.MethodPost, Path: "/api/admin/admins", Tag: "admins",
			Summary: "Create an admin", Auth: true, SuperAdmin: true, Body: handler.AdminCreateSchema,
			Status: http.StatusCreated, Data: model.Admin{},
		},
		{
			Method: http.MethodPut, Path: "/api/admin/admins/{id}/status", Tag: "admins",
			Summary: "Activate or deactivate an admin", Auth: true, SuperAdmin: true,
			Body: handler.AdminStatusSchema, Data: model.Admin{},
		},
	})
}

func contactQueryParameters() openapi3.Parameters {
	statuses := make([]any, 0, len(model.ContactStatuses))
	for _, s := range model.ContactStatuses {
		statuses = append(statuses, string(s))
	}
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("page").
				WithDescription("1-based page number.").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("limit").
				WithDescription("Page size, 1 to 100.").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("status").
				WithDescription("Only submissions with this status.").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: statuses}),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("search").
				WithDescription("Case-insensitive match on name, email, subject or company.").
				WithSchema(openapi3.NewStringSchema()),
		},
	}
}
