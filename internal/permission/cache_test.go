package permission_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

type countingCache struct {
	permission.Cache
	sets int
}

func (c *countingCache) Set(ctx context.Context, roleID, version int64, p permission.Permissions) error {
	c.sets++
	return c.Cache.Set(ctx, roleID, version, p)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, int64, int64) (*permission.Permissions, error) {
	return nil, errors.New("connection refused")
}
func (brokenCache) Set(context.Context, int64, int64, permission.Permissions) error {
	return errors.New("connection refused")
}
func (brokenCache) Invalidate(context.Context, int64) error { return errors.New("connection refused") }

var _ = Describe("RedisCache", func() {
	var (
		ctx    context.Context
		mr     *miniredis.Miniredis
		client *redis.Client
		cache  *permission.RedisCache
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)
		cache = permission.NewRedisCache(client, time.Minute)
	})

	It("misses on an empty cache", func() {
		_, err := cache.Get(ctx, 1, 1)
		Expect(errors.Is(err, permission.ErrCacheMiss)).To(BeTrue())
	})

	It("stores entries per role version with a ttl", func() {
		perms := permission.Resolve(permission.Record{RoleID: 1461, ListTicket: intp(1)})
		Expect(cache.Set(ctx, 1461, 3, perms)).To(Succeed())

		got, err := cache.Get(ctx, 1461, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(*got).To(Equal(perms))

		_, err = cache.Get(ctx, 1461, 4)
		Expect(errors.Is(err, permission.ErrCacheMiss)).To(BeTrue())

		Expect(mr.Exists("perm:role:1461:v3")).To(BeTrue())
		Expect(mr.TTL("perm:role:1461:v3")).To(Equal(time.Minute))
	})

	It("invalidates every version of one role only", func() {
		perms := permission.Permissions{}
		Expect(cache.Set(ctx, 5, 1, perms)).To(Succeed())
		Expect(cache.Set(ctx, 5, 2, perms)).To(Succeed())
		Expect(cache.Set(ctx, 6, 1, perms)).To(Succeed())

		Expect(cache.Invalidate(ctx, 5)).To(Succeed())

		Expect(mr.Exists("perm:role:5:v1")).To(BeFalse())
		Expect(mr.Exists("perm:role:5:v2")).To(BeFalse())
		Expect(mr.Exists("perm:role:6:v1")).To(BeTrue())
	})
})

var _ = Describe("Service", func() {
	var (
		ctx    context.Context
		logger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	It("resolves once and then serves from the cache", func() {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		cache := &countingCache{Cache: permission.NewRedisCache(client, time.Minute)}
		svc := permission.NewService(cache, permission.LegacyAdminRoleID, logger)

		rec := permission.Record{RoleID: 2, Version: 1, ListStation: intp(1)}
		first := svc.ForRole(ctx, rec)
		second := svc.ForRole(ctx, rec)

		Expect(first).To(Equal(second))
		Expect(first.Stations.List).To(BeTrue())
		Expect(cache.sets).To(Equal(1))
	})

	It("re-resolves after a role edit bumps the version", func() {
		svc := permission.NewService(nil, permission.LegacyAdminRoleID, logger)

		before := svc.ForRole(ctx, permission.Record{RoleID: 2, Version: 1, ListStation: intp(1)})
		after := svc.ForRole(ctx, permission.Record{RoleID: 2, Version: 2, ListStation: intp(0)})

		Expect(before.Stations.List).To(BeTrue())
		Expect(after.Stations.List).To(BeFalse())
	})

	It("falls back to resolving when the cache is down", func() {
		svc := permission.NewService(brokenCache{}, permission.LegacyAdminRoleID, logger)
		perms := svc.ForRole(ctx, permission.Record{RoleID: 1461})
		Expect(perms.IsAdmin).To(BeTrue())
		Expect(svc.Invalidate(ctx, 1461)).NotTo(Succeed())
	})
})
