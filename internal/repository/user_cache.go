package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/models"
)

const (
	userKeyPrefix   = "directory:key:"
	userEmailPrefix = "directory:email:"
)

// CachedUserRepository puts a Redis read-through cache in front of another
// UserRepository. Only hits are cached; every write evicts the affected entries.
// Redis failures degrade to the underlying repository.
type CachedUserRepository struct {
	base  UserRepository
	redis *redis.Client
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCachedUserRepository wraps base with a Redis cache. A zero ttl disables caching.
func NewCachedUserRepository(base UserRepository, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedUserRepository {
	if base == nil {
		panic("repository.NewCachedUserRepository: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedUserRepository{
		base:  base,
		redis: client,
		ttl:   ttl,
		log:   log,
	}
}

func (c *CachedUserRepository) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

// FindByKey implements UserRepository
func (c *CachedUserRepository) FindByKey(ctx context.Context, key string) (*models.User, error) {
	if user, ok := c.load(ctx, userKeyPrefix+key); ok {
		return user, nil
	}

	user, err := c.base.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	c.store(ctx, userKeyPrefix+key, user)
	return user, nil
}

// FindConfirmedByEmail implements UserRepository
func (c *CachedUserRepository) FindConfirmedByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := c.load(ctx, userEmailPrefix+email); ok {
		return user, nil
	}

	user, err := c.base.FindConfirmedByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	c.store(ctx, userEmailPrefix+email, user)
	return user, nil
}

// Upsert implements UserRepository
func (c *CachedUserRepository) Upsert(ctx context.Context, user *models.User) error {
	// the previous email may differ from the new one
	if previous, ok := c.load(ctx, userKeyPrefix+user.Key); ok {
		c.evict(ctx, userEmailPrefix+previous.Email)
	}

	if err := c.base.Upsert(ctx, user); err != nil {
		return err
	}

	c.evict(ctx, userKeyPrefix+user.Key, userEmailPrefix+user.Email)
	return nil
}

// CreateIfAbsent implements UserRepository
func (c *CachedUserRepository) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	created, err := c.base.CreateIfAbsent(ctx, user)
	if err != nil {
		return false, err
	}
	if created {
		c.evict(ctx, userKeyPrefix+user.Key, userEmailPrefix+user.Email)
	}
	return created, nil
}

func (c *CachedUserRepository) load(ctx context.Context, key string) (*models.User, bool) {
	if !c.enabled() {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("cache_key", key).Warn("directory cache read failed")
		}
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		c.evict(ctx, key)
		return nil, false
	}
	return &user, true
}

func (c *CachedUserRepository) store(ctx context.Context, key string, user *models.User) {
	if !c.enabled() {
		return
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("cache_key", key).Warn("directory cache write failed")
	}
}

func (c *CachedUserRepository) evict(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Warn("directory cache eviction failed")
	}
}
