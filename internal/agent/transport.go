package agent

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"pokemcp/internal/agent/session"
)

// NewHTTPClient returns an HTTP client that attaches the session's current
// bearer token to every request. Without a usable session requests are sent
// anonymously, so the server can still be reached and the caller learns from
// the tool error that it has to log in.
func NewHTTPClient(source oauth2.TokenSource, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &sessionTransport{source: source, base: base},
	}
}

type sessionTransport struct {
	source oauth2.TokenSource
	base   http.RoundTripper
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	switch {
	case err == nil:
		authed := &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   t.base,
		}
		return authed.RoundTrip(req)
	case errors.Is(err, session.ErrNotAuthenticated), errors.Is(err, session.ErrRefreshFailed):
		return t.base.RoundTrip(req)
	default:
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
}
