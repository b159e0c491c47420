package database

import (
	"context"
	"testing"
	"testing/fstest"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                      "test",
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 15,
	}
}

func TestOpen_ConfiguresPool(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_RecordsQueryLatency(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, db.AutoMigrate(PersistentModels()...))
	require.NoError(t, db.Create(&models.User{Username: "leo", Email: "leo@example.com", Password: "x"}).Error)

	var u models.User
	require.NoError(t, db.First(&u).Error)

	assert.Positive(t, testutil.CollectAndCount(observability.DatabaseQueryLatency))
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		env         string
		destructive bool
		wantSQL     bool
		wantAuto    bool
		wantErr     bool
	}{
		{"hybrid dev", "hybrid", "development", false, true, true, false},
		{"hybrid prod", "hybrid", "production", false, true, false, false},
		{"empty defaults to hybrid", "", "test", false, true, true, false},
		{"sql only", "sql", "development", false, true, false, false},
		{"auto dev", "auto", "development", false, false, true, false},
		{"auto prod refused", "auto", "production", false, false, false, true},
		{"auto prod allowed", "auto", "production", true, false, true, false},
		{"unknown mode", "yolo", "development", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&config.Config{
				DBSchemaMode:             tt.mode,
				Env:                      tt.env,
				DBAutoMigrateDestructive: tt.destructive,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.Migrations)
			assert.Equal(t, tt.wantAuto, plan.AutoMigrate)
		})
	}
}

func TestGetMigrations_EmbeddedAndOrdered(t *testing.T) {
	ms := GetMigrations()
	require.GreaterOrEqual(t, len(ms), 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "init", ms[0].Name)
	assert.Contains(t, ms[0].UpScript, "unique_following")
	assert.Contains(t, ms[0].DownScript, "DROP TABLE IF EXISTS follows")
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version)
	}
	assert.Equal(t, "000001_init", ms[0].String())
	m, ok := FindMigration(2)
	assert.True(t, ok)
	assert.Equal(t, "follows_no_self", m.Name)
	_, ok = FindMigration(999)
	assert.False(t, ok)
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_posts.up.sql":   {Data: []byte("CREATE TABLE posts (id int)")},
		"m/000002_posts.down.sql": {Data: []byte("DROP TABLE posts")},
		"m/000001_users.up.sql":   {Data: []byte("CREATE TABLE users (id int)")},
		"m/000001_users.down.sql": {Data: []byte("DROP TABLE users")},
		"m/README.md":             {Data: []byte("notes")},
		"m/draft.up.sql":          {Data: []byte("SELECT 1")},
	}
	ms, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "000001_users", ms[0].String())
	assert.Equal(t, "DROP TABLE posts", ms[1].DownScript)

	t.Run("missing rollback", func(t *testing.T) {
		fsys := fstest.MapFS{"m/000003_groups.up.sql": {Data: []byte("CREATE TABLE groups (id int)")}}
		_, err := loadMigrations(fsys, "m")
		assert.ErrorContains(t, err, "000003_groups has no rollback")
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000001_a.up.sql":   {Data: []byte("")},
			"m/000001_a.down.sql": {Data: []byte("")},
			"m/000001_b.up.sql":   {Data: []byte("")},
			"m/000001_b.down.sql": {Data: []byte("")},
		}
		_, err := loadMigrations(fsys, "m")
		assert.ErrorContains(t, err, "000001")
	})
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	pending := pendingMigrations([]int{1, 3}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
	assert.Len(t, pendingMigrations(nil, registered), 3)
}

func TestMigrationStore_ApplyAndRemove(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	ctx := context.Background()

	store := NewMigrationStore(db)

	applied, err := store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	require.NoError(t, store.ApplyMigration(ctx, 7, "widgets", "CREATE TABLE widgets (id INTEGER PRIMARY KEY)"))

	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, applied)
	assert.True(t, db.Migrator().HasTable("widgets"))

	require.NoError(t, store.RemoveMigration(ctx, 7))
	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 5}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000005")
}

func TestPersistentModels_CoversDomain(t *testing.T) {
	var haveFollow, haveGroup bool
	for _, m := range PersistentModels() {
		switch m.(type) {
		case *models.Follow:
			haveFollow = true
		case *models.Group:
			haveGroup = true
		}
	}
	assert.True(t, haveFollow)
	assert.True(t, haveGroup)
}
