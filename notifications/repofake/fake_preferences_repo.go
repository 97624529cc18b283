package fakenotificationrepo

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/jrsteele09/go-seller-dashboard/notifications"
)

var _ notifications.Repo = (*FakePreferencesRepo)(nil)

type FakePreferencesRepo struct {
	prefs map[string]notifications.Preferences
	lock  sync.RWMutex

	// SaveErr, when set, is returned by Save.
	SaveErr error
	Saves   int
}

func NewFakePreferencesRepo() *FakePreferencesRepo {
	return &FakePreferencesRepo{prefs: make(map[string]notifications.Preferences)}
}

func (r *FakePreferencesRepo) Get(_ context.Context, _, userID string) (*notifications.Preferences, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p, ok := r.prefs[userID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "preferences %s", userID)
	}
	p.Items = append([]notifications.Item(nil), p.Items...)
	return &p, nil
}

func (r *FakePreferencesRepo) Save(_ context.Context, _, userID string, p *notifications.Preferences) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	stored := *p
	stored.Items = append([]notifications.Item(nil), p.Items...)
	r.prefs[userID] = stored
	r.Saves++
	return nil
}
