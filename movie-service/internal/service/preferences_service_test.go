package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/repository"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
)

func ptr[T any](v T) *T { return &v }

func TestPreferences_DefaultsUpdateReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "neo")
	bus := pubsub.NewMemoryPubSub()
	t.Cleanup(func() { _ = bus.Close() })
	events, err := bus.Subscribe(ctx, pubsub.ActivityChannel(user.IDString(), pubsub.KindPreferencesChanged))
	require.NoError(t, err)
	svc := NewPreferencesService(repository.NewGormPreferencesRepository(env.db), bus, nil)

	p, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), p)

	p, err = svc.Update(ctx, user.ID, &domain.UpdatePreferencesRequest{
		Theme:           ptr("dark"),
		MoviesPerPage:   ptr(40),
		PreferredGenres: ptr([]string{"Drama"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", p.Theme)
	assert.Equal(t, "grid", p.DefaultView, "unset fields keep their value")
	assert.Equal(t, 1, len(events))

	p, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, p.MoviesPerPage)
	assert.Equal(t, []string{"Drama"}, p.PreferredGenres)

	p, err = svc.Reset(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "auto", p.Theme)
	p, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, p.MoviesPerPage)
}

func TestPreferences_UpdateValidates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.user(t, "neo")
	svc := NewPreferencesService(repository.NewGormPreferencesRepository(env.db), nil, nil)

	cases := []*domain.UpdatePreferencesRequest{
		{Theme: ptr("neon")},
		{DefaultView: ptr("carousel")},
		{MoviesPerPage: ptr(25)},
		{MinRating: ptr(11.0)},
		{PreferredGenres: ptr([]string{"Cooking"})},
	}
	for _, req := range cases {
		_, err := svc.Update(ctx, user.ID, req)
		assert.ErrorIs(t, err, ErrInvalidPreferences)
	}

	p, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), p, "rejected updates are not saved")
}
