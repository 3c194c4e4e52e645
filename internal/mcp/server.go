// Package mcp exposes an embedded web surface to MCP clients: tools to
// navigate, read the observed page state, run script, and manage cookies.
// The server drives exactly one view and owns a bounded buffer of inbound
// page messages so clients can poll them.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	websurface "github.com/kestrelview/websurface"
)

const (
	ServerName    = "websurface"
	ServerVersion = "0.1.0"

	// maxBufferedMessages bounds the inbound page message buffer; the
	// oldest messages are dropped first.
	maxBufferedMessages = 256
)

// Server is the MCP server for one embedded web surface.
type Server struct {
	mcpServer *mcpsdk.Server
	view      *websurface.View
	log       *slog.Logger

	msgs      *messageBuffer
	removeMsg func()
}

// NewServer creates an MCP server driving view. The caller keeps ownership
// of the view; Close detaches the server without closing it.
func NewServer(view *websurface.View, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		view: view,
		log:  log,
		msgs: newMessageBuffer(maxBufferedMessages),
	}
	s.removeMsg = view.OnMessage(s.msgs.push)

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio transport, blocking until the client disconnects or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close stops observing the view. The view itself stays usable.
func (s *Server) Close() {
	if s.removeMsg != nil {
		s.removeMsg()
		s.removeMsg = nil
	}
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_url",
		Description: "Load a URL in the embedded web surface, optionally with extra request headers. The load is applied immediately when the surface exists and buffered until creation otherwise.",
	}, s.handleOpenURL)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_html",
		Description: "Render the given HTML markup directly in the embedded web surface.",
	}, s.handleLoadHTML)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "read_state",
		Description: "Read the last observed surface state: loading status, heuristic progress, current URL, title, and history availability. State refreshes on a fixed poll cadence, so very recent changes may not be visible yet.",
	}, s.handleReadState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "navigate_history",
		Description: "Move through the surface's navigation history: back, forward, reload, or stop the current load.",
	}, s.handleNavigateHistory)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "evaluate_script",
		Description: "Run JavaScript in the current page and return its JSON-serialized result. Without a live surface the result is empty.",
	}, s.handleEvaluateScript)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "read_messages",
		Description: "Drain the messages posted by page script since the last call, in arrival order. The buffer is bounded; under sustained pressure the oldest messages are dropped.",
	}, s.handleReadMessages)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_user_agent",
		Description: "Change the surface's user agent string. The native surface is recreated to apply it; rapid successive changes collapse into one recreation.",
	}, s.handleSetUserAgent)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_cookies",
		Description: "List the cookies visible to a URL.",
	}, s.handleGetCookies)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_cookie",
		Description: "Store a cookie in the surface's cookie jar.",
	}, s.handleSetCookie)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "clear_cookies",
		Description: "Clear cookies: those scoped to a URL's host when a URL is given, or the whole jar otherwise.",
	}, s.handleClearCookies)
}
