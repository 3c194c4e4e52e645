package mcp

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelview/websurface/engine"
)

const defaultScriptTimeout = 10 * time.Second

func (s *Server) handleOpenURL(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenURLInput) (*mcpsdk.CallToolResult, OpenURLOutput, error) {
	u, err := url.Parse(args.URL)
	if err != nil {
		return nil, OpenURLOutput{}, fmt.Errorf("invalid url %q: %w", args.URL, err)
	}
	if u.Scheme == "" {
		return nil, OpenURLOutput{}, fmt.Errorf("url %q has no scheme", args.URL)
	}
	s.log.Debug("mcp: open url", "url", args.URL, "headers", len(args.Headers))
	s.view.LoadURL(args.URL, args.Headers)
	return nil, OpenURLOutput{URL: args.URL}, nil
}

func (s *Server) handleLoadHTML(_ context.Context, _ *mcpsdk.CallToolRequest, args LoadHTMLInput) (*mcpsdk.CallToolResult, LoadHTMLOutput, error) {
	if args.HTML == "" {
		return nil, LoadHTMLOutput{}, fmt.Errorf("html must not be empty")
	}
	s.log.Debug("mcp: load html", "bytes", len(args.HTML))
	s.view.LoadHTML(args.HTML)
	return nil, LoadHTMLOutput{Bytes: len(args.HTML)}, nil
}

func (s *Server) handleReadState(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReadStateInput) (*mcpsdk.CallToolResult, ReadStateOutput, error) {
	st := s.view.State()
	return nil, ReadStateOutput{
		Status:       st.Status.String(),
		Progress:     st.Progress,
		URL:          st.URL,
		Title:        st.Title,
		CanGoBack:    st.CanGoBack,
		CanGoForward: st.CanGoForward,
	}, nil
}

func (s *Server) handleNavigateHistory(_ context.Context, _ *mcpsdk.CallToolRequest, args NavigateHistoryInput) (*mcpsdk.CallToolResult, NavigateHistoryOutput, error) {
	switch args.Action {
	case "back":
		s.view.GoBack()
	case "forward":
		s.view.GoForward()
	case "reload":
		s.view.Reload()
	case "stop":
		s.view.StopLoading()
	default:
		return nil, NavigateHistoryOutput{}, fmt.Errorf("unknown action %q; expected back, forward, reload, or stop", args.Action)
	}
	s.log.Debug("mcp: history action", "action", args.Action)
	return nil, NavigateHistoryOutput{Action: args.Action}, nil
}

func (s *Server) handleEvaluateScript(ctx context.Context, _ *mcpsdk.CallToolRequest, args EvaluateScriptInput) (*mcpsdk.CallToolResult, EvaluateScriptOutput, error) {
	if args.Source == "" {
		return nil, EvaluateScriptOutput{}, fmt.Errorf("source must not be empty")
	}
	timeout := defaultScriptTimeout
	if args.TimeoutMS > 0 {
		timeout = time.Duration(args.TimeoutMS) * time.Millisecond
	}

	results := make(chan string, 1)
	s.view.EvaluateScript(args.Source, func(result string) {
		select {
		case results <- result:
		default:
		}
	})

	select {
	case result := <-results:
		return nil, EvaluateScriptOutput{Result: result}, nil
	case <-ctx.Done():
		return nil, EvaluateScriptOutput{}, ctx.Err()
	case <-time.After(timeout):
		return nil, EvaluateScriptOutput{}, fmt.Errorf("script result not delivered within %s", timeout)
	}
}

func (s *Server) handleReadMessages(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReadMessagesInput) (*mcpsdk.CallToolResult, ReadMessagesOutput, error) {
	msgs, dropped := s.msgs.drain()
	return nil, ReadMessagesOutput{Messages: msgs, Dropped: dropped}, nil
}

func (s *Server) handleSetUserAgent(_ context.Context, _ *mcpsdk.CallToolRequest, args SetUserAgentInput) (*mcpsdk.CallToolResult, SetUserAgentOutput, error) {
	if args.UserAgent == "" {
		return nil, SetUserAgentOutput{}, fmt.Errorf("user_agent must not be empty")
	}
	s.log.Debug("mcp: set user agent", "user_agent", args.UserAgent)
	s.view.SetUserAgent(args.UserAgent)
	return nil, SetUserAgentOutput{UserAgent: args.UserAgent}, nil
}

func (s *Server) handleGetCookies(_ context.Context, _ *mcpsdk.CallToolRequest, args GetCookiesInput) (*mcpsdk.CallToolResult, GetCookiesOutput, error) {
	if args.URL == "" {
		return nil, GetCookiesOutput{}, fmt.Errorf("url must not be empty")
	}
	cookies := s.view.CookiesForURL(args.URL)
	out := GetCookiesOutput{Cookies: make([]CookieInfo, 0, len(cookies))}
	for _, c := range cookies {
		out.Cookies = append(out.Cookies, CookieInfo{
			Name:        c.Name,
			Value:       c.Value,
			Domain:      c.Domain,
			Path:        c.Path,
			SessionOnly: c.SessionOnly,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSetCookie(_ context.Context, _ *mcpsdk.CallToolRequest, args SetCookieInput) (*mcpsdk.CallToolResult, SetCookieOutput, error) {
	if args.Name == "" {
		return nil, SetCookieOutput{}, fmt.Errorf("name must not be empty")
	}
	s.view.SetCookie(engine.Cookie{
		Name:        args.Name,
		Value:       args.Value,
		Domain:      args.Domain,
		Path:        args.Path,
		SessionOnly: true,
	})
	return nil, SetCookieOutput{Name: args.Name}, nil
}

func (s *Server) handleClearCookies(_ context.Context, _ *mcpsdk.CallToolRequest, args ClearCookiesInput) (*mcpsdk.CallToolResult, ClearCookiesOutput, error) {
	if args.URL == "" {
		s.view.ClearAllCookies()
		return nil, ClearCookiesOutput{Cleared: "all"}, nil
	}
	s.view.ClearCookiesForURL(args.URL)
	return nil, ClearCookiesOutput{Cleared: args.URL}, nil
}

// messageBuffer is a bounded FIFO of inbound page messages. Pushes past the
// capacity drop the oldest entry and count it.
type messageBuffer struct {
	mu      sync.Mutex
	cap     int
	msgs    []string
	dropped int
}

func newMessageBuffer(capacity int) *messageBuffer {
	return &messageBuffer{cap: capacity}
}

func (b *messageBuffer) push(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) >= b.cap {
		b.msgs = b.msgs[1:]
		b.dropped++
	}
	b.msgs = append(b.msgs, msg)
}

// drain returns the buffered messages and the drop count since the last
// drain, then empties both.
func (b *messageBuffer) drain() ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.msgs
	dropped := b.dropped
	b.msgs = nil
	b.dropped = 0
	return msgs, dropped
}
