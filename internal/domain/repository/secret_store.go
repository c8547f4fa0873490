package repository

import (
	"context"
)

// SecretStore 本地凭据存储接口
// Get 在键不存在时返回 ok=false 且 err=nil
type SecretStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
