package service

import (
	"github.com/okian/talentcheck/internal/adapters/notify"
	"github.com/okian/talentcheck/internal/adapters/repository"
	"github.com/okian/talentcheck/internal/config"
	"github.com/okian/talentcheck/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Without it the defaults of config.New
// apply.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore replaces the store selected by configuration. The caller keeps
// ownership; Stop leaves it open so the service can be started again.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier replaces the notifier selected by configuration.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
