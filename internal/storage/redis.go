package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore Redis存储实现
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建Redis存储实例
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveSession 保存会话状态
func (s *RedisStore) SaveSession(ctx context.Context, session *SigningSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	key := "docsign:session:" + session.SessionID
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save session")
	}

	return nil
}

// GetSession 获取会话状态
func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (*SigningSession, error) {
	key := "docsign:session:" + sessionID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get session")
	}

	var session SigningSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}

	return &session, nil
}

// UpdateSession 更新会话状态
func (s *RedisStore) UpdateSession(ctx context.Context, session *SigningSession, ttl time.Duration) error {
	return s.SaveSession(ctx, session, ttl)
}

// DeleteSession 删除会话
func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	key := "docsign:session:" + sessionID
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}

// AcquireLock 获取分布式锁
func (s *RedisStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := "docsign:lock:" + key
	result, err := s.client.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire lock")
	}
	return result, nil
}

// ReleaseLock 释放分布式锁
func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	lockKey := "docsign:lock:" + key
	if err := s.client.Del(ctx, lockKey).Err(); err != nil {
		return errors.Wrap(err, "failed to release lock")
	}
	return nil
}

// PutDocument 保存文档
func (s *RedisStore) PutDocument(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	key := "docsign:document:" + doc.ID
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to save document")
	}
	return nil
}

// GetDocument 获取文档
func (s *RedisStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	key := "docsign:document:" + id
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get document")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal document")
	}
	return &doc, nil
}

// PutPayload 保存验证载荷
func (s *RedisStore) PutPayload(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	key := "docsign:qr:" + token
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save payload")
	}
	return nil
}

// GetPayload 获取验证载荷
func (s *RedisStore) GetPayload(ctx context.Context, token string) ([]byte, error) {
	key := "docsign:qr:" + token
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get payload")
	}
	return data, nil
}
