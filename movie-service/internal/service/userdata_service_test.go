package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
)

// memorySessions hands out one MemoryStore per user.
func memorySessions() SessionStore {
	var mu sync.Mutex
	stores := make(map[uint]*prefs.MemoryStore)
	return func(_ context.Context, userID uint) prefs.Repository {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[userID]
		if !ok {
			s = prefs.NewMemoryStore()
			stores[userID] = s
		}
		return s
	}
}

func TestUserData_EmptyByDefault(t *testing.T) {
	svc := NewUserDataService(memorySessions())

	data, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.UserData{Favorites: []int{}, Views: 0}, data)
}

func TestUserData_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	svc := NewUserDataService(memorySessions())

	data, err := svc.Save(ctx, 1, &domain.UserData{Favorites: []int{603, 13}, Views: 7})
	require.NoError(t, err)
	assert.Equal(t, []int{603, 13}, data.Favorites)
	assert.Equal(t, 7, data.Views)

	data, err = svc.Save(ctx, 1, &domain.UserData{Views: 8})
	require.NoError(t, err)
	assert.Equal(t, []int{}, data.Favorites)
	assert.Equal(t, 8, data.Views)

	other, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other.Favorites, "sessions are per user")
}

func TestUserData_RejectsNegativeViews(t *testing.T) {
	_, err := NewUserDataService(memorySessions()).Save(context.Background(), 1, &domain.UserData{Views: -1})
	assert.ErrorIs(t, err, prefs.ErrInvalidValue)
}
