// Package config loads narratr.toml, the optional configuration file read
// by cmd/narratr, grounded in the settings-file shape used by
// github.com/dekarrin/tunaq's server package (server/config.go) and
// decoded with github.com/BurntSushi/toml the way that project's world
// files are (internal/tqw/marshaledtypes.go).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DBType is the type of datastore backing the compile-as-a-service job
// store (SPEC_FULL.md's DOMAIN STACK section).
type DBType string

const (
	DatabaseNone     DBType = "none"
	DatabaseSQLite   DBType = "sqlite"
	DatabaseInMemory DBType = "inmem"
)

// Server holds the settings for `narratr serve`.
type Server struct {
	Address    string `toml:"address"`
	DBType     DBType `toml:"db_type"`
	DataDir    string `toml:"data_dir"`
	JWTSecret  string `toml:"jwt_secret"`
	TokenTTL   string `toml:"token_ttl"`
}

// Compiler holds settings affecting how source is compiled, regardless of
// which front end (CLI, REPL, or service) invoked it.
type Compiler struct {
	// StrictStart rejects programs with more than one start: declaration
	// instead of warning and keeping the first (SPEC_FULL.md Open Question
	// resolution).
	StrictStart bool `toml:"strict_start"`
}

// Config is the root of narratr.toml.
type Config struct {
	Compiler Compiler `toml:"compiler"`
	Server   Server   `toml:"server"`
}

// Default returns the configuration used when no narratr.toml is present.
func Default() Config {
	return Config{
		Server: Server{
			Address:  ":8080",
			DBType:   DatabaseInMemory,
			TokenTTL: "24h",
		},
	}
}

// Load reads and decodes the TOML configuration file at path. A missing
// file is an error; callers that want missing-file-is-ok semantics should
// stat the path first, matching how cmd/narratr treats a missing
// narratr.toml as "use defaults".
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the Server section is self-consistent enough to
// attempt a connection.
func (c Config) Validate() error {
	switch c.Server.DBType {
	case DatabaseInMemory, DatabaseNone:
		return nil
	case DatabaseSQLite:
		if c.Server.DataDir == "" {
			return fmt.Errorf("server.data_dir must be set when server.db_type is %q", DatabaseSQLite)
		}
		return nil
	default:
		return fmt.Errorf("unknown server.db_type %q", c.Server.DBType)
	}
}
