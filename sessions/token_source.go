package sessions

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

const sessionExtraKey = "session"

// refreshSource is an oauth2.TokenSource that mints a new token by refreshing
// the session through the provider. The refreshed Session rides along in the
// token's extra data.
type refreshSource struct {
	ctx          context.Context
	refresh      func(ctx context.Context, refreshToken string) (*Session, error)
	refreshToken string
}

var _ oauth2.TokenSource = (*refreshSource)(nil)

func (s *refreshSource) Token() (*oauth2.Token, error) {
	if s.refreshToken == "" {
		return nil, errNoRefreshToken
	}
	sess, err := s.refresh(s.ctx, s.refreshToken)
	if err != nil {
		return nil, err
	}
	return sess.Token().WithExtra(map[string]any{sessionExtraKey: sess}), nil
}

var errNoRefreshToken = errors.New("session has no refresh token")

// ensureFresh returns the session that should be presented at this moment:
// current itself while its token is outside the refresh margin, otherwise a
// refreshed session. refreshed reports whether a refresh happened.
func ensureFresh(ctx context.Context, current *Session, margin time.Duration,
	refresh func(ctx context.Context, refreshToken string) (*Session, error),
) (sess *Session, refreshed bool, err error) {
	src := oauth2.ReuseTokenSourceWithExpiry(current.Token(), &refreshSource{
		ctx:          ctx,
		refresh:      refresh,
		refreshToken: current.RefreshToken,
	}, margin)

	tok, err := src.Token()
	if err != nil {
		return nil, false, err
	}
	if s, ok := tok.Extra(sessionExtraKey).(*Session); ok && s != nil {
		return s, true, nil
	}
	return current, false, nil
}
