package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gardenlog/api"
)

func TestUserIDs(t *testing.T) {
	assert.Equal(t, []string{"alice"}, userIDs(1, "gardener", 1, []string{"alice"}))
	assert.Equal(t, []string{"gardener"}, userIDs(1, "gardener", 1, nil))
	assert.Equal(t, []string{"perf-3", "perf-4"}, userIDs(2, "perf", 3, nil))
}

func TestGenerateAndWriteTokens(t *testing.T) {
	secret := []byte("secret")
	tokens, err := generateTokens(secret, time.Hour, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	auth := api.NewTestAuth(secret)
	sub, err := auth.UserIDFromBearer(tokens[1])
	require.NoError(t, err)
	assert.Equal(t, "b", sub)

	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	require.NoError(t, writeTokens(path, tokens))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []string
	require.NoError(t, sonic.Unmarshal(data, &got))
	assert.Equal(t, tokens, got)

	_, err = generateTokens(nil, time.Hour, []string{"a"})
	assert.Error(t, err)
}
