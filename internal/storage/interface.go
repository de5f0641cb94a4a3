package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when the record exists but its TTL elapsed.
	// Stores that evict eagerly (redis) surface expiry as ErrNotFound.
	ErrExpired = errors.New("expired")
)

// Document 签名文档记录
type Document struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RequiredSignerRecord 必要签名者记录
type RequiredSignerRecord struct {
	Role     string     `json:"role"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Required bool       `json:"required"`
	Status   string     `json:"status"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// SignatureRecord 签名记录
type SignatureRecord struct {
	Bytes       []byte    `json:"bytes"`
	Role        string    `json:"role"`
	PublicKey   []byte    `json:"public_key"`
	SignedAt    time.Time `json:"signed_at"`
	MessageHash []byte    `json:"message_hash"`
}

// SigningSession 多重签名会话记录
type SigningSession struct {
	SessionID       string                 `json:"session_id"`
	DocumentID      string                 `json:"document_id"`
	DocumentHash    []byte                 `json:"document_hash"`
	RequiredSigners []RequiredSignerRecord `json:"required_signers"`
	Threshold       int                    `json:"threshold"`
	Signatures      []SignatureRecord      `json:"signatures"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	ExpiresAt       time.Time              `json:"expires_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// DocumentStore 文档存储接口
type DocumentStore interface {
	PutDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
}

// SessionStore 签名会话存储接口
type SessionStore interface {
	// 保存会话状态
	SaveSession(ctx context.Context, session *SigningSession, ttl time.Duration) error

	// 获取会话状态
	GetSession(ctx context.Context, sessionID string) (*SigningSession, error)

	// 更新会话状态
	UpdateSession(ctx context.Context, session *SigningSession, ttl time.Duration) error

	// 删除会话
	DeleteSession(ctx context.Context, sessionID string) error

	// 获取分布式锁
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// 释放分布式锁
	ReleaseLock(ctx context.Context, key string) error
}

// PayloadStore 验证载荷存储接口（QR引用载荷）
type PayloadStore interface {
	PutPayload(ctx context.Context, token string, payload []byte, ttl time.Duration) error
	GetPayload(ctx context.Context, token string) ([]byte, error)
}
