package store

import (
	"crosswalk.app/api/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.queries)
}

func (s *Stores) Drops() DropStore {
	return newDropStore(s.queries)
}

func (s *Stores) Highfives() HighfiveStore {
	return newHighfiveStore(s.queries)
}

func (s *Stores) Notifications() NotificationStore {
	return newNotificationStore(s.queries)
}

func (s *Stores) Vibes() VibeStore {
	return newVibeStore(s.queries)
}

func (s *Stores) VibeMessages() VibeMessageStore {
	return newVibeMessageStore(s.queries)
}
