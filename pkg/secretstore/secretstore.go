// Package secretstore 用 Badger 加密保存各 profile 的 AutoTrader API key
package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// MasterKeyEnv 主密钥环境变量（32 字节，hex 或 base64）
const MasterKeyEnv = "AUTOTRADER_MASTER_KEY"

const apiKeyPrefix = "autotrader/apikey/"

var (
	ErrNotOpened    = errors.New("secretstore: not opened")
	ErrEmptyProfile = errors.New("secretstore: profile is empty")
)

// Store 加密落盘的凭证库；加密由 Badger 本身完成（value log + key registry）
type Store struct {
	db *badger.DB
}

// OpenOptions 打开参数
type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 字节；为空时不加密
	ReadOnly      bool
	InMemory      bool // 测试用
}

// Open 打开凭证库
func Open(opts OpenOptions) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	path := opts.Path
	if opts.InMemory {
		path = ""
	}
	bopts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithInMemory(opts.InMemory).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// 加密模式下 Badger 要求开启 index cache
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "secretstore: open")
	}
	return &Store{db: db}, nil
}

// Close 关闭凭证库
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func profileKey(profile string) ([]byte, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, ErrEmptyProfile
	}
	return []byte(apiKeyPrefix + profile), nil
}

// APIKey 读取 profile 对应的 API key；不存在时 found 为 false
func (s *Store) APIKey(profile string) (apiKey string, found bool, err error) {
	if s == nil || s.db == nil {
		return "", false, ErrNotOpened
	}
	k, err := profileKey(profile)
	if err != nil {
		return "", false, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			apiKey = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "secretstore: read profile %s", profile)
	}
	return apiKey, found, nil
}

// SetAPIKey 保存 profile 的 API key，已存在时覆盖
func (s *Store) SetAPIKey(profile, apiKey string) error {
	if s == nil || s.db == nil {
		return ErrNotOpened
	}
	k, err := profileKey(profile)
	if err != nil {
		return err
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("secretstore: api key is empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(apiKey))
	})
}

// DeleteAPIKey 删除 profile；不存在时不报错
func (s *Store) DeleteAPIKey(profile string) error {
	if s == nil || s.db == nil {
		return ErrNotOpened
	}
	k, err := profileKey(profile)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
}

// Profiles 列出已保存的 profile，按名称排序
func (s *Store) Profiles() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotOpened
	}
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(apiKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, strings.TrimPrefix(string(it.Item().Key()), apiKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// ParseKey 解析 32 字节主密钥（hex，可带 0x 前缀，或 base64）；输入为空时返回 nil
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
