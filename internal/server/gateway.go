// Package server hosts the session-gated gateway: it classifies every
// request through the route table, establishes identity from the session
// cookie where required, and branches to local rendering, the upstream
// proxy, or the static resolver.
package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgellow/chat-front/internal/assets"
	"github.com/dgellow/chat-front/internal/authclient"
	"github.com/dgellow/chat-front/internal/captcha"
	"github.com/dgellow/chat-front/internal/config"
	"github.com/dgellow/chat-front/internal/cookie"
	"github.com/dgellow/chat-front/internal/envelope"
	jsonwriter "github.com/dgellow/chat-front/internal/json"
	"github.com/dgellow/chat-front/internal/log"
	"github.com/dgellow/chat-front/internal/metrics"
	"github.com/dgellow/chat-front/internal/routes"
	"github.com/dgellow/chat-front/internal/session"
	"github.com/dgellow/chat-front/internal/token"
	"github.com/dgellow/chat-front/internal/upstream"
)

const loginPath = "/auth/login"

// Gateway holds the immutable per-process state shared read-only across
// all request handlers.
type Gateway struct {
	cfg      config.Config
	table    *routes.Table
	builder  *envelope.Builder
	assets   *assets.Store
	captcha  *captcha.Verifier
	auth     *authclient.Client
	upstream *upstream.Client
	metrics  *metrics.Collector
}

// New builds a Gateway. All collaborators must be fully constructed; the
// gateway itself performs no lazy initialization.
func New(
	cfg config.Config,
	store *assets.Store,
	verifier *captcha.Verifier,
	auth *authclient.Client,
	up *upstream.Client,
	collector *metrics.Collector,
) *Gateway {
	return &Gateway{
		cfg:      cfg,
		table:    routes.NewTable(),
		builder:  envelope.NewBuilder(routes.BuildID),
		assets:   store,
		captcha:  verifier,
		auth:     auth,
		upstream: up,
		metrics:  collector,
	}
}

// Handler returns the gateway's HTTP handler with the standard middleware
// applied.
func (g *Gateway) Handler() http.Handler {
	return ChainMiddleware(
		http.HandlerFunc(g.dispatch),
		NewLoggerMiddleware("gateway"),
		NewRecoverMiddleware("gateway"),
	)
}

// dispatch classifies the request and branches on the route category.
func (g *Gateway) dispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	wrapped := wrapResponseWriter(w)
	m := g.table.Match(r.Method, r.URL.Path)

	g.handle(wrapped, r, m)

	g.metrics.Observe(m.Category.String(), wrapped.Status(), time.Since(start))
}

func (g *Gateway) handle(w http.ResponseWriter, r *http.Request, m routes.Match) {
	switch m.Category {
	case routes.PublicPage:
		g.handleAuthPage(w, r)
	case routes.LoginPage:
		g.renderLogin(w, "", "")
	case routes.LoginSubmit:
		g.handleLoginSubmit(w, r)
	case routes.TokenLogin:
		g.handleTokenLogin(w, r)
	case routes.Logout:
		g.handleLogout(w, r)
	case routes.SessionInfo:
		g.handleSessionInfo(w, r)
	case routes.ChatPage:
		g.handleChatPage(w, r, m)
	case routes.ChatRedirect:
		g.handleChatRedirect(w, r, m)
	case routes.SharePage:
		g.handleSharePage(w, r, m)
	case routes.ShareContinueRedirect:
		g.handleShareContinueRedirect(w, r, m)
	case routes.ChatData:
		g.handleChatData(w, r)
	case routes.ShareData:
		g.handleShareData(w, r, m)
	case routes.ShareContinueData:
		g.handleShareContinueData(w, r, m)
	case routes.ImageProxy:
		g.handleImageProxy(w, r)
	case routes.StaticAsset:
		g.handleStatic(w, r)
	default:
		g.renderErrorPage(w, false)
	}
}

// sessionFromRequest decodes and re-validates the session cookie. The
// embedded access token is checked on every call; a stale or forged
// cookie never establishes identity.
func (g *Gateway) sessionFromRequest(r *http.Request) (session.Session, error) {
	value, err := cookie.GetSession(r)
	if err != nil {
		return session.Session{}, session.ErrInvalidSession
	}

	s, err := session.Decode(value)
	if err != nil {
		return session.Session{}, err
	}

	if _, err := token.Validate(s.AccessToken); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

func redirectLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginPath, http.StatusFound)
}

// --- auth endpoints ---

func (g *Gateway) handleAuthPage(w http.ResponseWriter, _ *http.Request) {
	renderTemplate(w, http.StatusOK, tmplAuth, pageData{
		SiteKey:   g.captcha.SiteKey(),
		APIPrefix: g.cfg.UpstreamOrigin,
	})
}

func (g *Gateway) renderLogin(w http.ResponseWriter, username, errText string) {
	renderTemplate(w, http.StatusOK, tmplLogin, loginData{
		Error:     errText,
		Username:  username,
		SiteKey:   g.captcha.SiteKey(),
		APIPrefix: g.cfg.UpstreamOrigin,
	})
}

func (g *Gateway) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid form submission")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	challenge := r.PostFormValue("cf-turnstile-response")

	if err := g.captcha.Verify(r.Context(), challenge, remoteIP(r)); err != nil {
		log.LogDebugWithFields("gateway", "Captcha check failed", map[string]any{
			"username": username,
			"error":    err.Error(),
		})
		g.renderLogin(w, username, err.Error())
		return
	}

	s, err := g.auth.Login(r.Context(), username, password)
	if err != nil {
		g.renderLogin(w, username, err.Error())
		return
	}

	if !g.setSessionCookie(w, s) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (g *Gateway) handleTokenLogin(w http.ResponseWriter, r *http.Request) {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		redirectLogin(w, r)
		return
	}

	profile, err := token.Validate(authorization)
	if err != nil {
		jsonwriter.WriteUnauthorized(w, err.Error())
		return
	}

	s := session.Session{
		AccessToken: bearerValue(authorization),
		UserID:      profile.UserID,
		Email:       profile.Email,
		Picture:     profile.Picture,
		ExpiresIn:   profile.ExpiresIn(),
		Expires:     profile.Expires(),
	}

	// Picture lookup is best-effort; the token's own claim is the fallback.
	if picture, err := g.auth.UserPicture(r.Context(), s.AccessToken); err == nil && picture != "" {
		s.Picture = picture
	}

	if !g.setSessionCookie(w, s) {
		return
	}
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	if value, err := cookie.GetSession(r); err == nil {
		if s, err := session.Decode(value); err == nil && s.RefreshToken != "" {
			if err := g.auth.RevokeToken(r.Context(), s.RefreshToken); err != nil {
				log.LogWarnWithFields("gateway", "Refresh token revocation failed", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}

	cookie.ClearSession(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (g *Gateway) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	s, err := g.sessionFromRequest(r)
	if err != nil {
		redirectLogin(w, r)
		return
	}

	jsonwriter.Write(w, map[string]any{
		"user":         envelope.User(s),
		"expires":      time.Unix(s.Expires, 0).UTC().Format("2006-01-02T15:04:05"),
		"accessToken":  s.AccessToken,
		"authProvider": "auth0",
	})
}

// --- chat pages and data ---

func (g *Gateway) handleChatPage(w http.ResponseWriter, r *http.Request, m routes.Match) {
	s, err := g.sessionFromRequest(r)
	if err != nil {
		redirectLogin(w, r)
		return
	}

	query := queryParams(r)
	page, tmpl := "/", tmplChat
	if id, ok := m.ConversationID(); ok {
		query["chatId"] = id
		page, tmpl = "/c/[chatId]", tmplDetail
	}

	env := g.builder.Page(page, query, envelope.UserProps(s))
	g.renderPage(w, http.StatusOK, tmpl, env)
}

func (g *Gateway) handleChatRedirect(w http.ResponseWriter, r *http.Request, m routes.Match) {
	target := "/"
	if id, ok := m.ConversationID(); ok {
		target = "/c/" + url.PathEscape(id)
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func (g *Gateway) handleChatData(w http.ResponseWriter, r *http.Request) {
	s, err := g.sessionFromRequest(r)
	if err != nil {
		jsonwriter.Write(w, envelope.SoftRedirect(loginPath+"?"))
		return
	}
	jsonwriter.Write(w, envelope.Data(envelope.UserProps(s)))
}

// --- share pages and data ---

func shareLoginNext(shareID string, continued bool) string {
	next := "%2Fshare%2F" + url.QueryEscape(shareID)
	if continued {
		next += "%2Fcontinue"
	}
	return loginPath + "?next=" + next
}

func (g *Gateway) handleSharePage(w http.ResponseWriter, r *http.Request, m routes.Match) {
	shareID, _ := m.ShareID()

	s, err := g.sessionFromRequest(r)
	if err != nil {
		http.Redirect(w, r, shareLoginNext(shareID, false), http.StatusFound)
		return
	}

	data, err := g.upstream.FetchShare(r.Context(), shareID, s.AccessToken)
	if err != nil {
		g.renderErrorPage(w, true)
		return
	}

	env := g.builder.Page(
		"/share/[[...shareParams]]",
		map[string]any{"shareParams": []string{shareID}},
		envelope.ShareProps(shareID, data, false, nil),
	)
	g.renderPage(w, http.StatusOK, tmplShare, env)
}

func (g *Gateway) handleShareContinueRedirect(w http.ResponseWriter, r *http.Request, m routes.Match) {
	shareID, _ := m.ShareID()
	http.Redirect(w, r, "/share/"+url.PathEscape(shareID), http.StatusPermanentRedirect)
}

func (g *Gateway) handleShareData(w http.ResponseWriter, r *http.Request, m routes.Match) {
	shareID, _ := m.ShareID()

	s, err := g.sessionFromRequest(r)
	if err != nil {
		jsonwriter.Write(w, envelope.SoftRedirect(shareLoginNext(shareID, false)))
		return
	}

	data, err := g.upstream.FetchShare(r.Context(), shareID, s.AccessToken)
	if err != nil {
		jsonwriter.Write(w, envelope.NotFoundData())
		return
	}

	jsonwriter.Write(w, envelope.Data(envelope.ShareProps(shareID, data, false, nil)))
}

func (g *Gateway) handleShareContinueData(w http.ResponseWriter, r *http.Request, m routes.Match) {
	shareID, _ := m.ShareID()

	s, err := g.sessionFromRequest(r)
	if err != nil {
		jsonwriter.Write(w, envelope.SoftRedirect(shareLoginNext(shareID, true)))
		return
	}

	data, err := g.upstream.FetchShare(r.Context(), shareID, s.AccessToken)
	if err != nil {
		w.Header().Set("Referrer-Policy", "same-origin")
		jsonwriter.Write(w, envelope.NotFoundData())
		return
	}

	// Continue mode carries the full user props both at the top level and
	// nested as chatPageProps.
	props := envelope.UserProps(s)
	for k, v := range envelope.ShareProps(shareID, data, true, envelope.UserProps(s)) {
		props[k] = v
	}
	jsonwriter.Write(w, envelope.Data(props))
}

// --- image proxy and static assets ---

func (g *Gateway) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		jsonwriter.WriteBadRequest(w, "Missing URL parameter")
		return
	}

	resp, err := g.upstream.FetchImage(r.Context(), rawURL)
	if err != nil {
		jsonwriter.WriteError(w, http.StatusBadGateway, "bad_gateway", "Image fetch failed")
		return
	}
	defer resp.Body.Close()

	// Pass the upstream response through unchanged, failures included.
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func (g *Gateway) handleStatic(w http.ResponseWriter, r *http.Request) {
	res, ok := g.assets.Lookup(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	_, _ = w.Write(res.Data)
}

// --- rendering helpers ---

// renderPage marshals the envelope and injects it into the template's
// __NEXT_DATA__ slot.
func (g *Gateway) renderPage(w http.ResponseWriter, status int, tmpl string, env any) {
	props, err := json.Marshal(env)
	if err != nil {
		log.LogError("Failed to serialize page envelope: %v", err)
		jsonwriter.WriteInternalServerError(w, "Failed to serialize page data")
		return
	}

	renderTemplate(w, status, tmpl, pageData{
		Props:     template.JS(props),
		SiteKey:   g.captcha.SiteKey(),
		APIPrefix: g.cfg.UpstreamOrigin,
	})
}

// renderErrorPage serves the 404 page. gip distinguishes failed share
// lookups from the plain no-route case.
func (g *Gateway) renderErrorPage(w http.ResponseWriter, gip bool) {
	g.renderPage(w, http.StatusNotFound, tmpl404, g.builder.ErrorPage(gip))
}

// setSessionCookie encodes the session into the response cookie. Reports
// false after writing an error response when encoding fails.
func (g *Gateway) setSessionCookie(w http.ResponseWriter, s session.Session) bool {
	value, err := session.Encode(s)
	if err != nil {
		log.LogError("Failed to encode session: %v", err)
		jsonwriter.WriteInternalServerError(w, fmt.Sprintf("Failed to serialize session: %v", err))
		return false
	}
	cookie.SetSession(w, value, s.ExpiresIn)
	return true
}

func queryParams(r *http.Request) map[string]any {
	query := map[string]any{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return query
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerValue(authorization string) string {
	return strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
}
