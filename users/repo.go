package users

import "context"

// ProfileRepo reads profile records on behalf of the signed-in user, whose
// access token scopes what the store returns. Missing records yield ErrNotFound.
type ProfileRepo interface {
	GetUserProfile(ctx context.Context, accessToken, userID string) (*UserProfile, error)
	GetDisplayProfile(ctx context.Context, accessToken, userID string) (*DisplayProfile, error)
}
