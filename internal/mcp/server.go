// ABOUTME: MCP server setup for the peptide and biometrics tracker.
// ABOUTME: Wraps the MCP server around the tracker service and importer options.
package mcp

import (
	"context"

	"github.com/djtroymx1/PepMetrics-sub000/internal/importer"
	"github.com/djtroymx1/PepMetrics-sub000/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with tracker access.
type Server struct {
	mcpServer  *mcp.Server
	svc        *tracker.Service
	importOpts importer.Options
}

// NewServer creates a new MCP server for the given tracker. Imports run with
// importOpts; its UserID is replaced by the tracker's user.
func NewServer(svc *tracker.Service, importOpts importer.Options) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pepmetrics",
			Version: Version,
		},
		nil,
	)

	importOpts.UserID = svc.UserID()
	s := &Server{
		mcpServer:  mcpServer,
		svc:        svc,
		importOpts: importOpts,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
