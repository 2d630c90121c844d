package session

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource returns an oauth2.TokenSource that reads through CurrentToken
// on every call, so an oauth2.Transport always sends the current bearer.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: m}
}

type tokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	sess, err := ts.manager.currentSession(ts.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: sess.AccessToken,
		TokenType:   "Bearer",
		Expiry:      sess.Expiry(),
	}, nil
}
