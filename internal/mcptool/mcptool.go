// Package mcptool serves the converter over MCP stdio, for use from editors
// and agent frameworks instead of the HTTP API.
package mcptool

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server identity constants.
const (
	serverName    = "extractd"
	serverVersion = "1.0.0"
)

// MCP tool parameter key constants — shared between schema definitions and
// argument extraction so a typo in one place is caught by the other.
const (
	argURI = "uri"
)

// Converter is the conversion dependency, kept as an interface so tests can
// inject a fake.
type Converter interface {
	ConvertFile(ctx context.Context, path string) (string, error)
	ConvertURI(ctx context.Context, uri string) (string, error)
	Info() string
}

// Serve registers the tools and blocks serving MCP over stdio.
func Serve(conv Converter) error {
	s := server.NewMCPServer(serverName, serverVersion)
	RegisterTools(s, conv)
	return server.ServeStdio(s)
}

// RegisterTools binds MCP tool definitions to their handlers.
func RegisterTools(s *server.MCPServer, conv Converter) {
	// convert_to_markdown — convert a file path or URL to Markdown
	s.AddTool(
		mcp.NewTool("convert_to_markdown",
			mcp.WithDescription("Convert a file or URL to Markdown. "+
				"Pass an absolute file path (e.g. /path/to/doc.pdf) or an http:// / https:// URL. "+
				"Supported formats: HTML, HTM, CSV, JSON, XML, TXT, MD, DOCX, XLSX, XLS, PPTX, PDF, PNG, JPG, JPEG, WEBP "+
				"(image text extraction via a vision model or Tesseract when configured)."),
			mcp.WithString(argURI,
				mcp.Required(),
				mcp.Description("Absolute file path or http/https URL to convert"),
			),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			input, ok := req.Params.Arguments[argURI].(string)
			if !ok || input == "" {
				return mcp.NewToolResultError(argURI + " is required"), nil
			}
			var result string
			var err error
			if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
				result, err = conv.ConvertURI(ctx, input)
			} else {
				result, err = conv.ConvertFile(ctx, input)
			}
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(result), nil
		},
	)

	// get_conversion_info — list formats and configuration
	s.AddTool(
		mcp.NewTool("get_conversion_info",
			mcp.WithDescription("Return supported file formats, conversion approach, and active configuration."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(conv.Info()), nil
		},
	)
}
