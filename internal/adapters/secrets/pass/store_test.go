package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, context.Background(), ctx)
			assert.Equal(t, []string{"insert", "-m", "-f", "lemmy/home/password"}, args)
			assert.Equal(t, "hunter2\n", input)
			return "", "", nil
		},
	}

	err := store.Put(context.Background(), "lemmy/home/password", "hunter2")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStoreGetUsesPassShowAndKeepsFirstLine(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "lemmy/home/password"}, args)
			assert.Empty(t, input)
			return "hunter2\nusername: alice\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), "lemmy/home/password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestStoreDeleteUsesPassRemove(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", "lemmy/home/password"}, args)
			assert.Empty(t, input)
			return "", "", nil
		},
	}

	err := store.Delete(context.Background(), "lemmy/home/password")
	require.NoError(t, err)
}

func TestStoreGetMissingEntryReturnsSentinel(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: lemmy/home/password is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "lemmy/home/password")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), "lemmy/home/password")
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, "lemmy/home/password")
	assert.ErrorContains(t, err, "gpg: decryption failed")
}
