package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.UploadURLTTL)
	assert.Equal(t, 5.00, cfg.DeliveryFee)
	assert.Equal(t, 50.00, cfg.FreeDeliveryThreshold)
	assert.False(t, cfg.FeaturedRequireSubtree)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DELIVERY_FEE", "3.50")
	t.Setenv("FEATURED_REQUIRE_SUBTREE", "true")
	t.Setenv("UPLOAD_URL_TTL", "2m")
	t.Setenv("CORS_ORIGINS", " https://shop.example.com , ,https://admin.example.com")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3.50, cfg.DeliveryFee)
	assert.True(t, cfg.FeaturedRequireSubtree)
	assert.Equal(t, 2*time.Minute, cfg.UploadURLTTL)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "https://api.example.com", cfg.PublicBaseURL)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5433, DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=require", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@db/n"
	assert.Equal(t, "postgres://u:p@db/n", cfg.DSN())
}

func TestInitDBSQLite(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SQLitePath: "file:config_test?mode=memory&cache=shared", Environment: "test", LogLevel: "error"}

	db, err := InitDB(cfg, NewLogger(cfg))
	require.NoError(t, err)

	for _, table := range []string{"categories", "brands", "product_lines", "products", "customers", "orders", "order_items"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestInitDBUnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "oracle"}
	_, err := InitDB(cfg, NewLogger(cfg))
	assert.Error(t, err)
}
