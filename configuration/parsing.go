// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - parse a Lua configuration file
//
// most of base Lua is available such as reading files to set key data
// and getenv to extract environment supplied items; the last value on
// the Lua stack becomes the configuration table.
package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bvault/bvaultd/bank"
	"github.com/bvault/bvaultd/fault"
)

// storage backend selectors
const (
	BackendLevelDB    = "leveldb"
	BackendPostgresql = "postgresql"
	BackendNone       = "none"
)

// basic defaults (directories and files are relative to the
// "data_directory" from the configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file
	defaultPidFile       = "bvaultd.pid"

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "bvault.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "bvaultd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultTopSize       = 10
	defaultWorkers       = 4
	defaultCacheLifetime = "10m"
	defaultCacheSweep    = "1m"
)

// path expanded or calculated defaults
var defaultLogLevels = map[string]string{
	"main":            "info",
	"config":          "info",
	logger.DefaultTag: "error",
}

type DatabaseType struct {
	Backend   string `gluamapper:"backend"`
	Directory string `gluamapper:"directory"`
	Name      string `gluamapper:"name"`
	URL       string `gluamapper:"url"`
}

type CacheType struct {
	Lifetime string `gluamapper:"lifetime"`
	Sweep    string `gluamapper:"sweep"`
}

type LoggerType struct {
	Directory string            `gluamapper:"directory"`
	File      string            `gluamapper:"file"`
	Size      int               `gluamapper:"size"`
	Count     int               `gluamapper:"count"`
	Levels    map[string]string `gluamapper:"levels"`
}

type Configuration struct {
	DataDirectory string       `gluamapper:"data_directory"`
	PidFile       string       `gluamapper:"pidfile"`
	DefaultBank   string       `gluamapper:"default_bank"`
	TopSize       int          `gluamapper:"top_size"`
	Workers       int          `gluamapper:"workers"`
	Cache         CacheType    `gluamapper:"cache"`
	Database      DatabaseType `gluamapper:"database"`
	Logging       LoggerType   `gluamapper:"logging"`
}

// CacheDurations - the parsed cache tuning values
//
// GetConfiguration already rejected unparseable strings, so errors
// here only occur for a hand built Configuration
func (c *Configuration) CacheDurations() (lifetime time.Duration, sweep time.Duration, err error) {
	lifetime, err = time.ParseDuration(c.Cache.Lifetime)
	if nil != err {
		return 0, 0, err
	}
	sweep, err = time.ParseDuration(c.Cache.Sweep)
	if nil != err {
		return 0, 0, err
	}
	return lifetime, sweep, nil
}

// GetConfiguration - read, decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       defaultPidFile,
		DefaultBank:   bank.Default,
		TopSize:       defaultTopSize,
		Workers:       defaultWorkers,

		Cache: CacheType{
			Lifetime: defaultCacheLifetime,
			Sweep:    defaultCacheSweep,
		},

		Database: DatabaseType{
			Backend:   BackendLevelDB,
			Directory: defaultDatabaseDirectory,
			Name:      defaultDatabaseName,
		},

		Logging: LoggerType{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	switch options.Database.Backend {
	case BackendLevelDB, BackendNone:
	case BackendPostgresql:
		if "" == options.Database.URL {
			return nil, fmt.Errorf("backend: %q needs a database url", options.Database.Backend)
		}
	default:
		return nil, fault.ErrInvalidStorageBackend
	}

	if err := bank.ValidateName(options.DefaultBank); nil != err {
		return nil, err
	}
	if options.TopSize < 1 {
		return nil, fmt.Errorf("top_size: %d is out of range", options.TopSize)
	}
	if options.Workers < 1 {
		return nil, fmt.Errorf("workers: %d is out of range", options.Workers)
	}

	lifetime, sweep, err := options.CacheDurations()
	if nil != err {
		return nil, err
	}
	if lifetime < sweep {
		return nil, fault.ErrCacheLifetimeTooShort
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.PidFile,
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = ensureAbsolute(options.DataDirectory, *f)
	}

	// fail if any of these are not simple file names i.e. must not
	// contain a path separator, then add the correct directory prefix
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, &options.Logging.Directory},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			*f[0] = ensureAbsolute(*f[1], *f[0])
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{&options.Database.Directory, &options.Logging.Directory} {
		*d = ensureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0o700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// ensure the path is absolute
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}
