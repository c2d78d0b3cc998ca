package client

import "github.com/gaprio/auth-service/internal/client/credentials"

// Entry is where the session bootstrap routes the user on startup.
type Entry int

const (
	// EntryLogin means no usable session: show the login entry point.
	EntryLogin Entry = iota
	// EntryHome means a session is present: skip login and enter the
	// authenticated area.
	EntryHome
)

func (e Entry) String() string {
	if e == EntryHome {
		return "home"
	}
	return "login"
}

// Gate decides the entry point from the presence of an access token. The
// check is optimistic: a stale token is caught by the first real API call,
// which refreshes or forces logout.
func Gate(store credentials.Store) Entry {
	session, ok := store.Get()
	if ok && session.AccessToken != "" {
		return EntryHome
	}
	return EntryLogin
}
