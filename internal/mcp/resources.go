package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	statsURI          = "makeplus://stats"
	contactSummaryURI = "makeplus://contacts/summary"
	contactURIPrefix  = "makeplus://contacts/"
)

// registerResources adds read-only data MCP clients can load into their
// context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			statsURI,
			"Home Page Statistics",
			mcp.WithResourceDescription("The three home page counters with their labels."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleStatsResource,
	)

	srv.AddResource(
		mcp.NewResource(
			contactSummaryURI,
			"Contact Submission Summary",
			mcp.WithResourceDescription("Number of contact submissions per status."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleContactSummaryResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			contactURIPrefix+"{id}",
			"Contact Submission",
			mcp.WithTemplateDescription("One contact submission, including the full message."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleContactResource,
	)
}

func (s *MCPServer) handleStatsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	st, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return jsonResource(statsURI, st.View())
}

func (s *MCPServer) handleContactSummaryResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	summary, err := s.store.ContactSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize contacts: %w", err)
	}
	return jsonResource(contactSummaryURI, summary)
}

// handleContactResource serves makeplus://contacts/{id}.
func (s *MCPServer) handleContactResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	raw := strings.TrimPrefix(uri, contactURIPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == uri || err != nil || id < 1 {
		return nil, fmt.Errorf("invalid contact URI %q: expected %s{id}", uri, contactURIPrefix)
	}

	c, err := s.store.GetContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact %d: %w", id, err)
	}
	return jsonResource(uri, c)
}
