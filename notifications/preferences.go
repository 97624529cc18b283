// Package notifications stores a seller's notification preferences.
package notifications

import (
	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
)

// Channel is where a notification is delivered.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelApp   Channel = "app"
)

func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelEmail, ChannelApp:
		return c, nil
	default:
		return "", &apperrors.ValidationError{Field: "channel", Message: "Unknown notification channel"}
	}
}

type Item struct {
	ID          string
	Title       string
	Description string
	Email       bool
	App         bool
}

func (i *Item) Enabled(c Channel) bool {
	if c == ChannelEmail {
		return i.Email
	}
	return i.App
}

// Preferences is the full preference panel for one seller.
type Preferences struct {
	DailyDigest bool
	Items       []Item
}

// Defaults returns the preferences of a seller who never changed them.
func Defaults() *Preferences {
	return &Preferences{
		Items: []Item{
			{ID: "mentions", Title: "Mentions", Description: "Notify me when someone cites me with an @mention in notes or comments."},
			{ID: "replies", Title: "Replies", Description: "Notify me when someone replies to my comments."},
			{ID: "email-grants", Title: "Email Grants", Description: "Notify me of email access requested or when my requests are accepted or denied."},
			{ID: "task-assignments", Title: "Task Assignments", Description: "Notify me when I'm assigned a task."},
			{ID: "shared-resources", Title: "Shared Resources", Description: "Notify me when someone shares a resource, such as an email, with me."},
			{ID: "sequence-invites", Title: "Sequence delegated sender invites", Description: "Notify me when someone invites me to be a sequence delegated sender."},
		},
	}
}

// Item returns the item with id.
func (p *Preferences) Item(id string) (*Item, bool) {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i], true
		}
	}
	return nil, false
}

// Toggle flips one channel of one item and returns its new state.
func (p *Preferences) Toggle(id string, c Channel) (bool, error) {
	item, ok := p.Item(id)
	if !ok {
		return false, apperrors.Wrapf(apperrors.ErrNotFound, "notification %q", id)
	}
	switch c {
	case ChannelEmail:
		item.Email = !item.Email
		return item.Email, nil
	case ChannelApp:
		item.App = !item.App
		return item.App, nil
	default:
		return false, &apperrors.ValidationError{Field: "channel", Message: "Unknown notification channel"}
	}
}

// Setting is the stored state of one item.
type Setting struct {
	Email bool `json:"email"`
	App   bool `json:"app"`
}

// Settings returns the per-item state keyed by item id.
func (p *Preferences) Settings() map[string]Setting {
	out := make(map[string]Setting, len(p.Items))
	for _, i := range p.Items {
		out[i.ID] = Setting{Email: i.Email, App: i.App}
	}
	return out
}

// merge lays stored settings over the defaults. Stored ids that are no
// longer offered are dropped.
func merge(dailyDigest bool, settings map[string]Setting) *Preferences {
	p := Defaults()
	p.DailyDigest = dailyDigest
	for i := range p.Items {
		if s, ok := settings[p.Items[i].ID]; ok {
			p.Items[i].Email = s.Email
			p.Items[i].App = s.App
		}
	}
	return p
}
