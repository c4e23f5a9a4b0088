package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketmarket/entity"
)

func TestUsersRepository_UpsertOnLogin_idempotency(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersPostgresRepository(GetDb(t))

	email := uuid.NewString() + "@example.com"
	firstLogin := time.Now().Add(-time.Hour).Truncate(time.Second)

	user, err := entity.NewUser(email, entity.UserProfile{DisplayName: "First"}, firstLogin)
	require.NoError(t, err)

	stored, created, err := repo.UpsertOnLogin(ctx, user)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.RoleUser, stored.Role)

	_, err = repo.UpdateRole(ctx, stored.ID, entity.RoleVendor)
	require.NoError(t, err)

	secondLogin := firstLogin.Add(30 * time.Minute)
	again, err := entity.NewUser(email, entity.UserProfile{DisplayName: "Second"}, secondLogin)
	require.NoError(t, err)

	stored, created, err = repo.UpsertOnLogin(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, entity.RoleVendor, stored.Role, "login must not reset role")
	assert.Equal(t, "First", stored.DisplayName)
	assert.True(t, stored.CreatedAt.Equal(firstLogin))
	assert.True(t, stored.LastLoggedIn.Equal(secondLogin))

	var count int
	require.NoError(t, GetDb(t).GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = $1`, email))
	assert.Equal(t, 1, count)
}

func TestUsersRepository_FindByEmail_not_found(t *testing.T) {
	repo := NewUsersPostgresRepository(GetDb(t))

	_, err := repo.FindByEmail(context.Background(), "nobody-"+uuid.NewString()+"@example.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestUsersRepository_MarkFraud(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersPostgresRepository(GetDb(t))

	vendor := addUser(t, entity.RoleVendor)
	user := addUser(t, entity.RoleUser)

	_, err := repo.MarkFraud(ctx, user.ID)
	assert.ErrorIs(t, err, entity.ErrNotAVendor)

	flagged, err := repo.MarkFraud(ctx, vendor.ID)
	require.NoError(t, err)
	assert.True(t, flagged.IsFraud)

	flagged, err = repo.MarkFraud(ctx, vendor.ID)
	require.NoError(t, err)
	assert.True(t, flagged.IsFraud)

	stored, err := repo.FindByEmail(ctx, vendor.Email)
	require.NoError(t, err)
	assert.True(t, stored.IsFraud)
}

func TestUsersRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersPostgresRepository(GetDb(t))

	user := addUser(t, entity.RoleUser)

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, users)

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Contains(t, ids, user.ID)
}
