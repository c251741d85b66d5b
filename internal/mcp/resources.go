// ABOUTME: MCP resource implementations for the tracker.
// ABOUTME: Provides pepmetrics://today and pepmetrics://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	todayURI   = "pepmetrics://today"
	summaryURI = "pepmetrics://summary"
)

func (s *Server) registerResources() {
	// pepmetrics://today - today's biometrics plus due and logged doses
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today",
		Description: "Today's biometrics, logged doses, doses still due and overdue protocols",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	// pepmetrics://summary - last seven days, active protocols and data quality
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Tracker Summary",
		Description: "Recent daily rows, active protocols, weekly dose counts, baseline and data quality",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	view, err := s.svc.TodayView()
	if err != nil {
		return nil, fmt.Errorf("failed to load today: %w", err)
	}
	return jsonResource(todayURI, view)
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	overview, err := s.svc.Overview()
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	return jsonResource(summaryURI, overview)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
