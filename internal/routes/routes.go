// Package routes classifies requests into route categories. The table is
// built once at startup and matched in registration order, first match
// wins; everything downstream dispatches on the resulting Category tag.
package routes

import (
	"net/http"
	"strings"
)

// BuildID ties data-endpoint paths and envelopes to the SPA bundle
// version baked into the served assets. A mismatch breaks client-side
// hydration, so it is part of the wire contract.
const BuildID = "XmKrBoPpskgF_4RiIX1jm"

// Category tags a classified request.
type Category int

const (
	NotFound Category = iota
	PublicPage
	LoginPage
	LoginSubmit
	TokenLogin
	Logout
	SessionInfo
	ChatPage
	ChatRedirect
	SharePage
	ShareContinueRedirect
	ChatData
	ShareData
	ShareContinueData
	ImageProxy
	StaticAsset
)

var categoryNames = map[Category]string{
	NotFound:              "not_found",
	PublicPage:            "public_page",
	LoginPage:             "login_page",
	LoginSubmit:           "login_submit",
	TokenLogin:            "token_login",
	Logout:                "logout",
	SessionInfo:           "session_info",
	ChatPage:              "chat_page",
	ChatRedirect:          "chat_redirect",
	SharePage:             "share_page",
	ShareContinueRedirect: "share_continue_redirect",
	ChatData:              "chat_data",
	ShareData:             "share_data",
	ShareContinueData:     "share_continue_data",
	ImageProxy:            "image_proxy",
	StaticAsset:           "static_asset",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Match is the result of classifying a request.
type Match struct {
	Category Category
	// Params holds the dynamic segment captures, keyed by the pattern's
	// placeholder name (conversationId, shareId).
	Params map[string]string
}

// ConversationID returns the captured conversation id, if any.
func (m Match) ConversationID() (string, bool) {
	id, ok := m.Params["conversationId"]
	return id, ok
}

// ShareID returns the captured share id, if any.
func (m Match) ShareID() (string, bool) {
	id, ok := m.Params["shareId"]
	return id, ok
}

type matcherFunc func(path string) (map[string]string, bool)

type route struct {
	method   string // empty matches any method
	category Category
	match    matcherFunc
}

// Table is the immutable, priority-ordered route table.
type Table struct {
	routes []route
}

// staticExtensions are the extensions the asset glob route serves.
var staticExtensions = []string{".png", ".js", ".css", ".webp", ".json"}

// NewTable builds the route table. Registration order is match priority.
func NewTable() *Table {
	get := http.MethodGet
	post := http.MethodPost

	return &Table{routes: []route{
		{get, PublicPage, exact("/auth")},
		{get, LoginPage, exact("/auth/login")},
		{post, LoginSubmit, exact("/auth/login")},
		{post, TokenLogin, exact("/auth/login/token")},
		{get, Logout, exact("/auth/logout")},
		{get, SessionInfo, exact("/auth/session")},
		{get, ChatPage, exact("/")},
		{get, ChatPage, exact("/c")},
		{get, ChatPage, pattern("/c/{conversationId}")},
		{"", ChatRedirect, exact("/chat")},
		{"", ChatRedirect, pattern("/chat/{conversationId}")},
		{get, SharePage, pattern("/share/{shareId}")},
		{get, ShareContinueRedirect, pattern("/share/{shareId}/continue")},
		{get, ChatData, exact("/_next/data/" + BuildID + "/index.json")},
		{get, ChatData, pattern("/_next/data/" + BuildID + "/c/{conversationId}.json")},
		{get, ShareData, pattern("/_next/data/" + BuildID + "/share/{shareId}.json")},
		{get, ShareContinueData, pattern("/_next/data/" + BuildID + "/share/{shareId}/continue.json")},
		{get, ImageProxy, exact("/_next/image")},
		{get, StaticAsset, extensionGlob(staticExtensions)},
		{"", StaticAsset, prefix("/_next/static/")},
		{"", StaticAsset, prefix("/fonts/")},
		{"", StaticAsset, prefix("/ulp/")},
		{"", StaticAsset, prefix("/sweetalert2/")},
	}}
}

// Match classifies a request. No match yields the NotFound category.
func (t *Table) Match(method, path string) Match {
	for _, r := range t.routes {
		if r.method != "" && r.method != method {
			continue
		}
		if params, ok := r.match(path); ok {
			return Match{Category: r.category, Params: params}
		}
	}
	return Match{Category: NotFound}
}

// exact matches the path literally.
func exact(p string) matcherFunc {
	return func(path string) (map[string]string, bool) {
		if path == p {
			return nil, true
		}
		return nil, false
	}
}

// pattern matches segment by segment. A "{name}" segment captures a
// single non-empty path segment; a segment may also embed a capture with
// a literal suffix, as in "{conversationId}.json".
func pattern(p string) matcherFunc {
	patternParts := strings.Split(strings.TrimPrefix(p, "/"), "/")

	return func(path string) (map[string]string, bool) {
		pathParts := strings.Split(strings.TrimPrefix(path, "/"), "/")
		if len(pathParts) != len(patternParts) {
			return nil, false
		}

		var params map[string]string
		for i, part := range patternParts {
			open := strings.IndexByte(part, '{')
			if open < 0 {
				if part != pathParts[i] {
					return nil, false
				}
				continue
			}

			end := strings.IndexByte(part, '}')
			name := part[open+1 : end]
			suffix := part[end+1:]

			value := pathParts[i]
			if suffix != "" {
				var ok bool
				value, ok = strings.CutSuffix(value, suffix)
				if !ok {
					return nil, false
				}
			}
			if value == "" {
				return nil, false
			}

			if params == nil {
				params = make(map[string]string, 1)
			}
			params[name] = value
		}
		return params, true
	}
}

// prefix matches any path under the given prefix.
func prefix(p string) matcherFunc {
	return func(path string) (map[string]string, bool) {
		return nil, strings.HasPrefix(path, p)
	}
}

// extensionGlob matches any path, at any depth, whose final segment ends
// in one of the given extensions.
func extensionGlob(exts []string) matcherFunc {
	return func(path string) (map[string]string, bool) {
		last := path[strings.LastIndexByte(path, '/')+1:]
		for _, ext := range exts {
			if strings.HasSuffix(last, ext) && len(last) > len(ext) {
				return nil, true
			}
		}
		return nil, false
	}
}
