package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithMemoryStorage(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PRICE_LOOKBACK", "")
	t.Setenv("RUN_INTERVAL", "")
	t.Setenv("CALL_TIMEOUT", "")
	t.Setenv("SYMBOL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, 30*time.Minute, cfg.PriceLookback)
	assert.Equal(t, time.Minute, cfg.RunInterval)
	assert.Equal(t, 10*time.Second, cfg.CallTimeout)
}

func TestLoadParsesDayDurations(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PRICE_LOOKBACK", "1d2h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 26*time.Hour, cfg.PriceLookback)
}

func TestLoadRejectsPostgresWithoutURL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsShortEncryptionKey(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/signals")
	t.Setenv("CREDENTIALS_SOURCE", "postgres")
	t.Setenv("CREDENTIALS_ENCRYPTION_KEY", "short")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownExchangeDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("EXCHANGE_DRIVER", "ccxt")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STORAGE_DRIVER=memory\nSYMBOL=ETHUSDT\nBASE_ASSET=ETH\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SYMBOL", "BTCUSDT")
	unsetEnv(t, "BASE_ASSET")
	unsetEnv(t, "STORAGE_DRIVER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, "ETH", cfg.BaseAsset)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
}

// unsetEnv removes key for the duration of the test. Values loaded from an
// env file in between are cleared as well.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, original)
			return
		}
		_ = os.Unsetenv(key)
	})
}
