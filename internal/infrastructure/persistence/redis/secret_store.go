package redis

import (
	"context"
	"fmt"
)

// SecretStore 基于 Redis 的凭据存储，键不设置过期时间
type SecretStore struct {
	client *Client
	prefix string
}

// NewSecretStore 创建凭据存储
func NewSecretStore(client *Client, prefix string) *SecretStore {
	if prefix == "" {
		prefix = "secret"
	}
	return &SecretStore{client: client, prefix: prefix}
}

func (s *SecretStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// Get 读取凭据，不存在时 ok=false
func (s *SecretStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		if IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// Put 写入凭据
func (s *SecretStore) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0)
}

// Delete 删除凭据，不存在时为空操作
func (s *SecretStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}
