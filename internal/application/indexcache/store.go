package indexcache

import (
	"context"
	"errors"
	"time"

	"property-dapp-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistent key/value capability the cache is written to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent writes value only when key has no value yet and reports whether it wrote.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
}

// RedisStore keeps cache entries as plain Redis strings.
type RedisStore struct {
	Rdb *redis.Client
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Rdb.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	return s.Rdb.SetNX(ctx, key, value, 0).Result()
}

// GormStore keeps cache entries in the KeyValues table.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var kv domain.KeyValue
	if err := s.DB.WithContext(ctx).Where("key = ?", key).First(&kv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(kv.Value), true, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	kv := domain.KeyValue{Key: key, Value: string(value), UpdatedAt: time.Now()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updatedAt"}),
	}).Create(&kv).Error
}

func (s *GormStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	kv := domain.KeyValue{Key: key, Value: string(value), UpdatedAt: time.Now()}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&kv)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
