package service

import (
	"context"
	"fmt"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/audit"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
)

// SessionStore opens the key-value session store of a user.
type SessionStore func(ctx context.Context, userID uint) prefs.Repository

type userDataServiceImpl struct {
	open SessionStore
}

// NewUserDataService creates a service that keeps each user's session data
// in the store returned by open.
func NewUserDataService(open SessionStore) UserDataService {
	return &userDataServiceImpl{open: open}
}

func (s *userDataServiceImpl) Get(ctx context.Context, userID uint) (*domain.UserData, error) {
	p := prefs.New(s.open(ctx, userID))

	favorites, err := p.Favorites()
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	views, err := p.Views()
	if err != nil {
		return nil, fmt.Errorf("failed to read views: %w", err)
	}
	return &domain.UserData{Favorites: favorites, Views: views}, nil
}

// Save replaces the stored session data with data.
func (s *userDataServiceImpl) Save(ctx context.Context, userID uint, data *domain.UserData) (*domain.UserData, error) {
	p := prefs.New(s.open(ctx, userID))

	favorites := data.Favorites
	if favorites == nil {
		favorites = []int{}
	}
	if err := p.SetFavorites(favorites); err != nil {
		return nil, fmt.Errorf("failed to save favorites: %w", err)
	}
	if err := p.SetViews(data.Views); err != nil {
		return nil, fmt.Errorf("failed to save views: %w", err)
	}

	audit.Log(ctx, audit.ActionUserDataSave, userIDString(userID), "session data saved")
	return s.Get(ctx, userID)
}
