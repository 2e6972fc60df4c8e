package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type record struct {
	ID     uint `gorm:"primaryKey"`
	Tags   StringArray
	Genres JSON[[]genre]
}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := New(&Config{Driver: "sqlite", FilePath: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, &record{}))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestStringArray_Scan(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan(`["Action","Drama"]`))
	assert.Equal(t, StringArray{"Action", "Drama"}, a)

	require.NoError(t, a.Scan([]byte(`{Action,"Science Fiction"}`)))
	assert.Equal(t, StringArray{"Action", "Science Fiction"}, a)

	require.NoError(t, a.Scan("{}"))
	assert.Empty(t, a)

	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)

	assert.Error(t, a.Scan(42))
	assert.True(t, StringArray{"Drama"}.Contains("drama"))
}

func TestTypes_RoundTripThroughSQLite(t *testing.T) {
	db := openMemory(t)

	in := record{
		Tags:   StringArray{"Comedy", "Thriller"},
		Genres: NewJSON([]genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}}),
	}
	require.NoError(t, db.Create(&in).Error)

	var out record
	require.NoError(t, db.First(&out, in.ID).Error)
	assert.Equal(t, in.Tags, out.Tags)
	assert.Equal(t, in.Genres.Data, out.Genres.Data)
}

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector(&Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLevel("silent"))
	assert.Equal(t, logger.Info, gormLevel("INFO"))
	assert.Equal(t, logger.Warn, gormLevel(""))
}
