package notifications

import "context"

// Repo persists preferences on behalf of the signed-in seller. A seller
// without stored preferences yields ErrNotFound.
type Repo interface {
	Get(ctx context.Context, accessToken, userID string) (*Preferences, error)
	Save(ctx context.Context, accessToken, userID string, p *Preferences) error
}
