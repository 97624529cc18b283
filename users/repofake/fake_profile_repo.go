package fakeuserrepo

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/users"
)

var _ users.ProfileRepo = (*FakeProfileRepo)(nil)

type FakeProfileRepo struct {
	profiles map[string]*users.UserProfile
	displays map[string]*users.DisplayProfile
	lock     sync.RWMutex

	// ProfileErr and DisplayErr, when set, are returned instead of a lookup.
	ProfileErr error
	DisplayErr error
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles: make(map[string]*users.UserProfile),
		displays: make(map[string]*users.DisplayProfile),
	}
}

func (r *FakeProfileRepo) UpsertUserProfile(p *users.UserProfile) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.profiles[p.ID] = p
}

func (r *FakeProfileRepo) UpsertDisplayProfile(p *users.DisplayProfile) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.displays[p.ID] = p
}

func (r *FakeProfileRepo) GetUserProfile(_ context.Context, _, userID string) (*users.UserProfile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.ProfileErr != nil {
		return nil, r.ProfileErr
	}
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user profile %s", userID)
	}
	out := *p
	return &out, nil
}

func (r *FakeProfileRepo) GetDisplayProfile(_ context.Context, _, userID string) (*users.DisplayProfile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.DisplayErr != nil {
		return nil, r.DisplayErr
	}
	p, ok := r.displays[userID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "display profile %s", userID)
	}
	out := *p
	return &out, nil
}
