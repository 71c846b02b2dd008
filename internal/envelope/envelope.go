// Package envelope builds the SSR-props JSON structures the SPA expects:
// the full page envelope injected into the __NEXT_DATA__ template slot,
// and the bare pageProps bodies served by the data endpoints. All of the
// near-duplicate shapes funnel through this one builder so the call sites
// cannot drift apart.
package envelope

import (
	"github.com/dgellow/chat-front/internal/session"
)

// Builder constructs envelopes bound to one SPA bundle version.
type Builder struct {
	buildID string
}

// NewBuilder returns a Builder for the given build identifier.
func NewBuilder(buildID string) *Builder {
	return &Builder{buildID: buildID}
}

// PageEnvelope is the full SSR envelope for page responses.
type PageEnvelope struct {
	Props        PageProps      `json:"props"`
	Page         string         `json:"page"`
	Query        map[string]any `json:"query"`
	BuildID      string         `json:"buildId"`
	IsFallback   bool           `json:"isFallback"`
	GSSP         bool           `json:"gssp"`
	ScriptLoader []any          `json:"scriptLoader"`
}

// PageProps wraps the inner pageProps for a page envelope.
type PageProps struct {
	PageProps map[string]any `json:"pageProps"`
	NSSP      bool           `json:"__N_SSP"`
}

// ErrorEnvelope is the envelope rendered into the 404 page template.
type ErrorEnvelope struct {
	Props        ErrorProps     `json:"props"`
	Page         string         `json:"page"`
	Query        map[string]any `json:"query"`
	BuildID      string         `json:"buildId"`
	NextExport   bool           `json:"nextExport"`
	IsFallback   bool           `json:"isFallback"`
	GIP          bool           `json:"gip"`
	ScriptLoader []any          `json:"scriptLoader"`
}

// ErrorProps wraps the inner pageProps for an error envelope.
type ErrorProps struct {
	PageProps map[string]any `json:"pageProps"`
}

// DataEnvelope is the raw body of a data endpoint: the inner pageProps
// plus the server-side-props marker, with no outer wrapper.
type DataEnvelope struct {
	PageProps map[string]any `json:"pageProps"`
	NSSP      bool           `json:"__N_SSP"`
}

// Page builds the full envelope for a page route. query merges the path
// captures with the request query parameters.
func (b *Builder) Page(page string, query map[string]any, pageProps map[string]any) PageEnvelope {
	if query == nil {
		query = map[string]any{}
	}
	return PageEnvelope{
		Props:        PageProps{PageProps: pageProps, NSSP: true},
		Page:         page,
		Query:        query,
		BuildID:      b.buildID,
		IsFallback:   false,
		GSSP:         true,
		ScriptLoader: []any{},
	}
}

// ErrorPage builds the 404 envelope. gip is true only for share lookups
// that failed upstream; the default 404 page carries gip false.
func (b *Builder) ErrorPage(gip bool) ErrorEnvelope {
	return ErrorEnvelope{
		Props:        ErrorProps{PageProps: map[string]any{"statusCode": 404}},
		Page:         "/_error",
		Query:        map[string]any{},
		BuildID:      b.buildID,
		NextExport:   true,
		IsFallback:   false,
		GIP:          gip,
		ScriptLoader: []any{},
	}
}

// Data builds a data endpoint body.
func Data(pageProps map[string]any) DataEnvelope {
	return DataEnvelope{PageProps: pageProps, NSSP: true}
}

// SoftRedirect builds the 200-status body that makes the SPA's client
// router navigate to next. Data endpoints never hard-redirect.
func SoftRedirect(next string) DataEnvelope {
	return Data(map[string]any{
		"__N_REDIRECT":        next,
		"__N_REDIRECT_STATUS": 307,
	})
}

// NotFoundData is the body data endpoints serve when the upstream share
// lookup failed.
func NotFoundData() map[string]any {
	return map[string]any{"notFound": true}
}

// User builds the user object embedded in page props and the session
// info endpoint. An unset picture serializes as null.
func User(s session.Session) map[string]any {
	return map[string]any{
		"id":      s.UserID,
		"name":    s.Email,
		"email":   s.Email,
		"image":   nullable(s.Picture),
		"picture": nullable(s.Picture),
		"groups":  []any{},
	}
}

// UserProps builds the standard chat pageProps for an authenticated user.
func UserProps(s session.Session) map[string]any {
	return map[string]any{
		"user":          User(s),
		"serviceStatus": map[string]any{},
		"userCountry":   "US",
		"geoOk":         true,
		"serviceAnnouncement": map[string]any{
			"paid":   map[string]any{},
			"public": map[string]any{},
		},
		"isUserInCanPayGroup": true,
	}
}

// ShareProps builds the pageProps for a shared conversation. data is the
// (already transformed) upstream share payload; chatPageProps is empty
// for the plain variants and the full user props in continue mode.
func ShareProps(shareID string, data any, continueMode bool, chatPageProps map[string]any) map[string]any {
	if chatPageProps == nil {
		chatPageProps = map[string]any{}
	}
	return map[string]any{
		"sharedConversationId": shareID,
		"serverResponse": map[string]any{
			"type": "data",
			"data": data,
		},
		"continueMode":   continueMode,
		"moderationMode": false,
		"chatPageProps":  chatPageProps,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
