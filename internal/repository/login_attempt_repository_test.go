package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAttemptRepositoryWithoutClient(t *testing.T) {
	repo := NewLoginAttemptRepository(nil, "")
	ctx := context.Background()

	n, err := repo.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Count(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, repo.Reset(ctx, "k"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "login_attempts:", repo.prefix)
}
