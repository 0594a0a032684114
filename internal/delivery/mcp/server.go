// Package mcp exposes catalog reads as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

const (
	serverName    = "furniture-catalog"
	serverVersion = "1.0.0"
)

// NewServer builds an MCP server with every catalog tool registered
func NewServer(service *catalog.Service, log *logger.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	NewTools(service, log).Register(s)
	return s
}

// ServeStdio serves the catalog tools on stdin/stdout until EOF
func ServeStdio(service *catalog.Service, log *logger.Logger) error {
	return server.ServeStdio(NewServer(service, log))
}
