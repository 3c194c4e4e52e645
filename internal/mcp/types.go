package mcp

// OpenURLInput is the input for the open_url tool.
type OpenURLInput struct {
	URL     string            `json:"url" jsonschema:"required,URL to load in the surface"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"Optional extra request headers sent with the load"`
}

// OpenURLOutput is the output for the open_url tool.
type OpenURLOutput struct {
	URL string `json:"url"`
}

// LoadHTMLInput is the input for the load_html tool.
type LoadHTMLInput struct {
	HTML string `json:"html" jsonschema:"required,HTML markup to render"`
}

// LoadHTMLOutput is the output for the load_html tool.
type LoadHTMLOutput struct {
	Bytes int `json:"bytes"`
}

// ReadStateInput is the input for the read_state tool.
type ReadStateInput struct{}

// ReadStateOutput is the output for the read_state tool.
type ReadStateOutput struct {
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	URL          string  `json:"url,omitempty"`
	Title        string  `json:"title,omitempty"`
	CanGoBack    bool    `json:"can_go_back"`
	CanGoForward bool    `json:"can_go_forward"`
}

// NavigateHistoryInput is the input for the navigate_history tool.
type NavigateHistoryInput struct {
	Action string `json:"action" jsonschema:"required,One of: back, forward, reload, stop"`
}

// NavigateHistoryOutput is the output for the navigate_history tool.
type NavigateHistoryOutput struct {
	Action string `json:"action"`
}

// EvaluateScriptInput is the input for the evaluate_script tool.
type EvaluateScriptInput struct {
	Source    string `json:"source" jsonschema:"required,JavaScript source to evaluate in the page"`
	TimeoutMS int    `json:"timeout_ms,omitempty" jsonschema:"How long to wait for the result in milliseconds (default: 10000)"`
}

// EvaluateScriptOutput is the output for the evaluate_script tool.
type EvaluateScriptOutput struct {
	Result string `json:"result"`
}

// ReadMessagesInput is the input for the read_messages tool.
type ReadMessagesInput struct{}

// ReadMessagesOutput is the output for the read_messages tool.
type ReadMessagesOutput struct {
	Messages []string `json:"messages"`
	Dropped  int      `json:"dropped,omitempty"`
}

// SetUserAgentInput is the input for the set_user_agent tool.
type SetUserAgentInput struct {
	UserAgent string `json:"user_agent" jsonschema:"required,New user agent string"`
}

// SetUserAgentOutput is the output for the set_user_agent tool.
type SetUserAgentOutput struct {
	UserAgent string `json:"user_agent"`
}

// CookieInfo describes one cookie.
type CookieInfo struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Domain      string `json:"domain,omitempty"`
	Path        string `json:"path,omitempty"`
	SessionOnly bool   `json:"session_only"`
}

// GetCookiesInput is the input for the get_cookies tool.
type GetCookiesInput struct {
	URL string `json:"url" jsonschema:"required,URL whose visible cookies to list"`
}

// GetCookiesOutput is the output for the get_cookies tool.
type GetCookiesOutput struct {
	Cookies []CookieInfo `json:"cookies"`
}

// SetCookieInput is the input for the set_cookie tool.
type SetCookieInput struct {
	Name   string `json:"name" jsonschema:"required,Cookie name"`
	Value  string `json:"value" jsonschema:"required,Cookie value"`
	Domain string `json:"domain,omitempty" jsonschema:"Cookie domain; empty scopes it to every host"`
	Path   string `json:"path,omitempty" jsonschema:"Cookie path"`
}

// SetCookieOutput is the output for the set_cookie tool.
type SetCookieOutput struct {
	Name string `json:"name"`
}

// ClearCookiesInput is the input for the clear_cookies tool.
type ClearCookiesInput struct {
	URL string `json:"url,omitempty" jsonschema:"When set, clear only cookies scoped to this URL's host; otherwise clear all"`
}

// ClearCookiesOutput is the output for the clear_cookies tool.
type ClearCookiesOutput struct {
	Cleared string `json:"cleared"`
}
