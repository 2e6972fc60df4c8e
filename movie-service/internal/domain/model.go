package domain

import (
	"time"

	"github.com/weiawesome/cinema-chronicles/pkg/database"
)

// MovieModel is the GORM model for the movies table.
type MovieModel struct {
	ID           uint                   `gorm:"primaryKey"`
	TMDBID       int                    `gorm:"column:tmdb_id;uniqueIndex;not null"`
	Title        string                 `gorm:"type:varchar(200);index;not null"`
	Overview     string                 `gorm:"type:text"`
	PosterPath   string                 `gorm:"type:varchar(200)"`
	BackdropPath string                 `gorm:"type:varchar(200)"`
	ReleaseDate  string                 `gorm:"type:varchar(10);index"`
	VoteAverage  float64                `gorm:"index"`
	VoteCount    int                    `gorm:"not null"`
	Runtime      int                    `gorm:"not null"`
	Genres       database.JSON[[]Genre] `gorm:"type:text"`
	CreatedAt    time.Time              `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time              `gorm:"autoUpdateTime"`
}

func (MovieModel) TableName() string {
	return "movies"
}

// ToDomain converts MovieModel to a domain Movie.
func (m *MovieModel) ToDomain() *Movie {
	genres := m.Genres.Data
	if genres == nil {
		genres = []Genre{}
	}
	return &Movie{
		ID:           m.ID,
		TMDBID:       m.TMDBID,
		Title:        m.Title,
		Overview:     m.Overview,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		ReleaseDate:  m.ReleaseDate,
		VoteAverage:  m.VoteAverage,
		VoteCount:    m.VoteCount,
		Runtime:      m.Runtime,
		Genres:       genres,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MovieToModel converts a domain Movie to MovieModel.
func MovieToModel(m *Movie) *MovieModel {
	return &MovieModel{
		ID:           m.ID,
		TMDBID:       m.TMDBID,
		Title:        m.Title,
		Overview:     m.Overview,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		ReleaseDate:  m.ReleaseDate,
		VoteAverage:  m.VoteAverage,
		VoteCount:    m.VoteCount,
		Runtime:      m.Runtime,
		Genres:       database.NewJSON(m.Genres),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FavoriteModel is the GORM model for user_favorites. A user favourites a
// movie at most once.
type FavoriteModel struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"uniqueIndex:uidx_favorite_user_movie;index:idx_favorite_user_created,priority:1;not null"`
	MovieID   uint       `gorm:"uniqueIndex:uidx_favorite_user_movie;not null"`
	Movie     MovieModel `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index:idx_favorite_user_created,priority:2"`
}

func (FavoriteModel) TableName() string {
	return "user_favorites"
}

// WatchHistoryModel is the GORM model for user_watch_history. There is one
// row per user, movie and calendar day; WatchedOn holds that day.
type WatchHistoryModel struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"uniqueIndex:uidx_watch_user_movie_day;index:idx_watch_user_watched,priority:1;not null"`
	MovieID   uint       `gorm:"uniqueIndex:uidx_watch_user_movie_day;not null"`
	WatchedOn string     `gorm:"type:varchar(10);uniqueIndex:uidx_watch_user_movie_day;not null"`
	Movie     MovieModel `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	WatchedAt time.Time  `gorm:"index:idx_watch_user_watched,priority:2;not null"`
}

func (WatchHistoryModel) TableName() string {
	return "user_watch_history"
}

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// PreferencesModel is the GORM model for user_preferences.
type PreferencesModel struct {
	ID                 uint                 `gorm:"primaryKey"`
	UserID             uint                 `gorm:"uniqueIndex;not null"`
	Theme              string               `gorm:"type:varchar(10);not null"`
	DefaultView        string               `gorm:"type:varchar(10);not null"`
	MoviesPerPage      int                  `gorm:"not null"`
	DataSaverMode      bool                 `gorm:"not null"`
	ShowAdultContent   bool                 `gorm:"not null"`
	MinRating          float64              `gorm:"not null"`
	PreferredGenres    database.StringArray `gorm:"type:text"`
	AutoAddToHistory   bool                 `gorm:"not null"`
	EmailNotifications bool                 `gorm:"not null"`
	CreatedAt          time.Time            `gorm:"autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"autoUpdateTime"`
}

func (PreferencesModel) TableName() string {
	return "user_preferences"
}

func (m *PreferencesModel) ToDomain() *Preferences {
	genres := []string(m.PreferredGenres)
	if genres == nil {
		genres = []string{}
	}
	return &Preferences{
		Theme:              m.Theme,
		DefaultView:        m.DefaultView,
		MoviesPerPage:      m.MoviesPerPage,
		DataSaverMode:      m.DataSaverMode,
		ShowAdultContent:   m.ShowAdultContent,
		MinRating:          m.MinRating,
		PreferredGenres:    genres,
		AutoAddToHistory:   m.AutoAddToHistory,
		EmailNotifications: m.EmailNotifications,
		UpdatedAt:          m.UpdatedAt,
	}
}

func PreferencesToModel(userID uint, p *Preferences) *PreferencesModel {
	return &PreferencesModel{
		UserID:             userID,
		Theme:              p.Theme,
		DefaultView:        p.DefaultView,
		MoviesPerPage:      p.MoviesPerPage,
		DataSaverMode:      p.DataSaverMode,
		ShowAdultContent:   p.ShowAdultContent,
		MinRating:          p.MinRating,
		PreferredGenres:    database.StringArray(p.PreferredGenres),
		AutoAddToHistory:   p.AutoAddToHistory,
		EmailNotifications: p.EmailNotifications,
	}
}

// Models lists every model for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&MovieModel{},
		&FavoriteModel{},
		&WatchHistoryModel{},
		&PreferencesModel{},
	}
}
