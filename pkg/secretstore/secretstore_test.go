package secretstore

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	hexKey := "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{"空", "  ", nil, false},
		{"hex", hexKey, raw, false},
		{"0x 前缀", "0x" + hexKey, raw, false},
		{"base64", base64.StdEncoding.EncodeToString(raw), raw, false},
		{"hex 长度不对", "abcd", nil, true},
		{"base64 长度不对", base64.StdEncoding.EncodeToString([]byte("short")), nil, true},
		{"无法解析", "not a key!", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreProfiles(t *testing.T) {
	key, err := ParseKey(strings.Repeat("ab", 32))
	require.NoError(t, err)

	dir := t.TempDir()
	s, err := Open(OpenOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)

	_, found, err := s.APIKey("default")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetAPIKey("default", " key-1 "))
	require.NoError(t, s.SetAPIKey("paper", "key-2"))
	require.NoError(t, s.SetAPIKey("default", "key-3"))

	got, found, err := s.APIKey("default")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "key-3", got)

	profiles, err := s.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "paper"}, profiles)

	require.NoError(t, s.DeleteAPIKey("paper"))
	require.NoError(t, s.DeleteAPIKey("missing"))
	require.NoError(t, s.Close())

	// 重新打开后数据仍在
	s, err = Open(OpenOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)
	defer s.Close()
	got, found, err = s.APIKey("default")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "key-3", got)
	_, found, err = s.APIKey("paper")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreArguments(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.Error(t, err)

	s, err := Open(OpenOptions{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.SetAPIKey(" ", "k"), ErrEmptyProfile)
	assert.Error(t, s.SetAPIKey("default", ""))
	_, _, err = s.APIKey("")
	assert.ErrorIs(t, err, ErrEmptyProfile)

	var closed *Store
	_, _, err = closed.APIKey("default")
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.NoError(t, closed.Close())
}
