package service

import (
	"crosswalk.app/api/internal/auth"
	"crosswalk.app/api/internal/deploy"
	"crosswalk.app/api/internal/realtime"
	"crosswalk.app/api/internal/scm"
	"crosswalk.app/api/internal/store"
)

// Deps are the collaborators shared by the services.
type Deps struct {
	Verifiers   map[auth.Provider]auth.IdentityVerifier
	Tokens      SessionTokens
	Gateway     scm.Gateway
	Deploys     deploy.Provider
	Publisher   realtime.Publisher
	Agent       ChatAgent
	TurnLocks   TurnLocker
	DropCounter DropCounter
}

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	deps     Deps
}

func NewServices(stores *store.Stores, txRunner TxRunner, deps Deps) *Services {
	return &Services{
		stores:   stores,
		txRunner: txRunner,
		deps:     deps,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.deps.Verifiers, s.deps.Tokens)
}

func (s *Services) Users() UserService {
	return NewUserService(s.stores.Users())
}

func (s *Services) Drops() DropService {
	return NewDropService(
		s.stores.Drops(),
		s.stores.Users(),
		s.stores.Highfives(),
		s.txRunner,
		s.deps.Publisher,
		s.deps.DropCounter,
	)
}

func (s *Services) Notifications() NotificationService {
	return NewNotificationService(s.stores.Notifications())
}

func (s *Services) Vibes() VibeService {
	return NewVibeService(
		s.stores.Vibes(),
		s.stores.VibeMessages(),
		s.stores.Users(),
		s.deps.Gateway,
		s.deps.Deploys,
		s.deps.Agent,
		s.deps.TurnLocks,
	)
}
