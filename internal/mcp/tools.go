package mcp

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// registerTools registers the operator tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Contact submissions -----

	srv.AddTool(
		mcp.NewTool("makeplus_list_contacts",
			mcp.WithDescription(
				"List contact form submissions, newest first. Filter by status "+
					"(new, read, replied, archived) or by a case-insensitive search "+
					"over name, email, subject and company.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("status",
				mcp.Description("Only submissions with this status"),
				mcp.Enum(contactStatusNames()...),
			),
			mcp.WithString("search",
				mcp.Description("Text to look for in name, email, subject or company"),
			),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Submissions per page (default 20, max 100)"),
			),
		),
		s.handleListContacts,
	)

	srv.AddTool(
		mcp.NewTool("makeplus_get_contact",
			mcp.WithDescription("Get one contact submission with its full message."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Submission id"),
			),
		),
		s.handleGetContact,
	)

	srv.AddTool(
		mcp.NewTool("makeplus_contact_summary",
			mcp.WithDescription("Count contact submissions per status."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleContactSummary,
	)

	srv.AddTool(
		mcp.NewTool("makeplus_set_contact_status",
			mcp.WithDescription("Move a contact submission to another status, e.g. mark it replied."),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Submission id"),
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("New status"),
				mcp.Enum(contactStatusNames()...),
			),
		),
		s.handleSetContactStatus,
	)

	// ----- Site content -----

	srv.AddTool(
		mcp.NewTool("makeplus_get_stats",
			mcp.WithDescription("Get the home page counters with their French and English labels."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetStats,
	)

	srv.AddTool(
		mcp.NewTool("makeplus_list_videos",
			mcp.WithDescription("List videos in display order."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("active_only",
				mcp.Description("Only videos shown on the site (default false)"),
			),
		),
		s.handleListVideos,
	)

	srv.AddTool(
		mcp.NewTool("makeplus_list_partners",
			mcp.WithDescription(
				"List partners in display order. Logos are summarized by MIME type "+
					"and size instead of the full data URI.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("active_only",
				mcp.Description("Only partners shown on the site (default false)"),
			),
		),
		s.handleListPartners,
	)

	srv.AddTool(
		mcp.NewTool("makeplus_list_admins",
			mcp.WithDescription("List dashboard accounts with their role, status and last login."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListAdmins,
	)
}

func contactStatusNames() []string {
	names := make([]string, len(model.ContactStatuses))
	for i, st := range model.ContactStatuses {
		names[i] = string(st)
	}
	return names
}

func parseStatus(raw string) (model.ContactStatus, bool) {
	st := model.ContactStatus(strings.ToLower(strings.TrimSpace(raw)))
	return st, slices.Contains(model.ContactStatuses, st)
}

// --------------------------------------------------------------------------
// Tool handlers
// --------------------------------------------------------------------------

func (s *MCPServer) handleListContacts(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	page := max(optionalInt(request, "page", 1), 1)
	limit := clamp(optionalInt(request, "limit", defaultPageSize), 1, maxPageSize)

	filter := model.ContactFilter{
		Search: strings.TrimSpace(optionalString(request, "search")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if raw := optionalString(request, "status"); raw != "" {
		st, ok := parseStatus(raw)
		if !ok {
			return toolError("Invalid status %q: use one of %s", raw, strings.Join(contactStatusNames(), ", "))
		}
		filter.Status = st
	}

	contacts, total, err := s.store.ListContacts(ctx, filter)
	if err != nil {
		return toolError("Failed to list contacts: %v", err)
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}

	return successJSON(map[string]any{
		"contacts":   contacts,
		"pagination": model.NewPagination(page, limit, total),
	})
}

func (s *MCPServer) handleGetContact(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request)
	if err != nil {
		return toolError("%v", err)
	}
	c, err := s.store.GetContact(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return toolError("Contact submission %d not found", id)
	}
	if err != nil {
		return toolError("Failed to get contact %d: %v", id, err)
	}
	return successJSON(c)
}

func (s *MCPServer) handleContactSummary(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	summary, err := s.store.ContactSummary(ctx)
	if err != nil {
		return toolError("Failed to summarize contacts: %v", err)
	}
	return successJSON(summary)
}

func (s *MCPServer) handleSetContactStatus(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := requireID(request)
	if err != nil {
		return toolError("%v", err)
	}
	st, ok := parseStatus(optionalString(request, "status"))
	if !ok {
		return toolError("Invalid status: use one of %s", strings.Join(contactStatusNames(), ", "))
	}

	if err := s.store.UpdateContactStatus(ctx, id, st); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("Contact submission %d not found", id)
		}
		return toolError("Failed to update contact %d: %v", id, err)
	}
	s.logger.InfoContext(ctx, "contact status changed via MCP", "contact_id", id, "status", st)

	c, err := s.store.GetContact(ctx, id)
	if err != nil {
		return toolError("Status updated, but reloading contact %d failed: %v", id, err)
	}
	return successJSON(c)
}

func (s *MCPServer) handleGetStats(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	st, err := s.store.GetStats(ctx)
	if err != nil {
		return toolError("Failed to get statistics: %v", err)
	}
	return successJSON(st.View())
}

func (s *MCPServer) handleListVideos(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	videos, err := s.store.ListVideos(ctx, optionalBool(request, "active_only", false))
	if err != nil {
		return toolError("Failed to list videos: %v", err)
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return successJSON(videos)
}

// partnerInfo is a partner without its inline logo.
type partnerInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Website      string `json:"website,omitempty"`
	LogoMimeType string `json:"logoMimeType"`
	LogoBytes    int    `json:"logoBytes"`
	Order        int    `json:"order"`
	IsActive     bool   `json:"isActive"`
}

func (s *MCPServer) handleListPartners(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	partners, err := s.store.ListPartners(ctx, optionalBool(request, "active_only", false))
	if err != nil {
		return toolError("Failed to list partners: %v", err)
	}

	items := make([]partnerInfo, len(partners))
	for i, p := range partners {
		items[i] = partnerInfo{
			ID:           p.ID,
			Name:         p.Name,
			Website:      p.Website,
			LogoMimeType: p.LogoMimeType,
			LogoBytes:    logoSize(p.Logo),
			Order:        p.Order,
			IsActive:     p.IsActive,
		}
	}
	return successJSON(items)
}

// logoSize estimates the decoded size of a base64 data URI.
func logoSize(dataURI string) int {
	_, payload, ok := strings.Cut(dataURI, ",")
	if !ok {
		return 0
	}
	n := len(payload) * 3 / 4
	return n - strings.Count(payload[max(len(payload)-2, 0):], "=")
}

func (s *MCPServer) handleListAdmins(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return toolError("Failed to list admins: %v", err)
	}
	if admins == nil {
		admins = []model.Admin{}
	}
	return successJSON(admins)
}
