// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bvault/bvaultd/configuration"
	"github.com/bvault/bvaultd/fault"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "bvaultd.conf")
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0o600))
	return fileName
}

func TestGetConfigurationDefaults(t *testing.T) {
	fileName := writeConfig(t, `
local M = {}
M.data_directory = "."
return M
`)
	cfg, err := configuration.GetConfiguration(fileName)
	require.NoError(t, err)

	assert.Equal(t, configuration.BackendLevelDB, cfg.Database.Backend)
	assert.Equal(t, "vault", cfg.DefaultBank)
	assert.Equal(t, 10, cfg.TopSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, filepath.Dir(fileName), filepath.Dir(cfg.PidFile))
	assert.True(t, filepath.IsAbs(cfg.Database.Name))
	assert.True(t, filepath.IsAbs(cfg.Logging.Directory))

	lifetime, sweep, err := cfg.CacheDurations()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, lifetime)
	assert.Equal(t, time.Minute, sweep)
}

func TestGetConfigurationOverrides(t *testing.T) {
	fileName := writeConfig(t, `
local M = {}
M.data_directory = "."
M.default_bank = "coins"
M.top_size = 25
M.workers = 8
M.cache = {
    lifetime = "1h",
    sweep = "5m",
}
M.database = {
    backend = "postgresql",
    url = "postgres://bvault@localhost/bvault",
}
M.logging = {
    levels = {
        DEFAULT = "info",
    },
}
return M
`)
	cfg, err := configuration.GetConfiguration(fileName)
	require.NoError(t, err)

	assert.Equal(t, "coins", cfg.DefaultBank)
	assert.Equal(t, 25, cfg.TopSize)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, configuration.BackendPostgresql, cfg.Database.Backend)
	assert.Equal(t, "postgres://bvault@localhost/bvault", cfg.Database.URL)
	assert.Equal(t, "info", cfg.Logging.Levels["DEFAULT"])

	lifetime, sweep, err := cfg.CacheDurations()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, lifetime)
	assert.Equal(t, 5*time.Minute, sweep)
}

func TestGetConfigurationRejectsBadValues(t *testing.T) {
	fileName := writeConfig(t, `
local M = {}
M.data_directory = "."
M.database = { backend = "mongodb" }
return M
`)
	_, err := configuration.GetConfiguration(fileName)
	assert.Equal(t, fault.ErrInvalidStorageBackend, err)

	fileName = writeConfig(t, `
local M = {}
M.data_directory = "."
M.default_bank = "no spaces"
return M
`)
	_, err = configuration.GetConfiguration(fileName)
	assert.Equal(t, fault.ErrInvalidBankName, err)

	fileName = writeConfig(t, `
local M = {}
M.data_directory = "."
M.cache = { lifetime = "30s", sweep = "1m" }
return M
`)
	_, err = configuration.GetConfiguration(fileName)
	assert.Equal(t, fault.ErrCacheLifetimeTooShort, err)

	fileName = writeConfig(t, `
local M = {}
M.data_directory = "."
M.database = { backend = "postgresql" }
return M
`)
	_, err = configuration.GetConfiguration(fileName)
	assert.Error(t, err)
}
