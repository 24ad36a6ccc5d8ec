package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scout/internal/config"
	"github.com/sells-group/lead-scout/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "scout.db"),
		},
		Discovery: config.DiscoveryConfig{FetchConcurrency: 2},
		Server:    config.ServerConfig{Port: 8080},
	}
}

func newTestStore(t *testing.T, c *config.Config) store.Store {
	t.Helper()
	st, err := initStore(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func newTestTooling(t *testing.T) *tooling {
	t.Helper()
	tl, err := newTooling(&config.Config{})
	require.NoError(t, err)
	return tl
}
