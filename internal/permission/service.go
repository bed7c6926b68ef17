package permission

import (
	"context"
	"errors"
	"log/slog"
)

type Service struct {
	resolver Resolver
	cache    Cache
	logger   *slog.Logger
	observe  func(hit bool)
}

func NewService(cache Cache, adminRoleID int64, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		resolver: NewResolver(adminRoleID),
		cache:    cache,
		logger:   logger,
	}
}

// ObserveCache registers a callback told about every cache hit or miss.
func (s *Service) ObserveCache(fn func(hit bool)) {
	s.observe = fn
}

func (s *Service) Resolve(rec Record) Permissions {
	return s.resolver.Resolve(rec)
}

// ForRole resolves through the cache. Cache failures are logged and never
// block the request; the record itself is the source of truth.
func (s *Service) ForRole(ctx context.Context, rec Record) Permissions {
	cached, err := s.cache.Get(ctx, rec.RoleID, rec.Version)
	if s.observe != nil {
		s.observe(err == nil)
	}
	if err == nil {
		return *cached
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("permission cache read failed", "role_id", rec.RoleID, "error", err)
	}

	perms := s.resolver.Resolve(rec)
	if err := s.cache.Set(ctx, rec.RoleID, rec.Version, perms); err != nil {
		s.logger.Warn("permission cache write failed", "role_id", rec.RoleID, "error", err)
	}
	return perms
}

// Invalidate is called whenever a role is edited or deleted.
func (s *Service) Invalidate(ctx context.Context, roleID int64) error {
	if err := s.cache.Invalidate(ctx, roleID); err != nil {
		s.logger.Error("permission cache invalidation failed", "role_id", roleID, "error", err)
		return err
	}
	s.logger.Info("permission cache invalidated", "role_id", roleID)
	return nil
}
