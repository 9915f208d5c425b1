// Package store implements core.Store in memory and on top of GORM.
package store

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open returns the store selected by driver: memory, sqlite, postgres or mysql.
func Open(driver, dsn string) (core.Store, error) {
	var dial gorm.Dialector
	switch driver {
	case "", "memory":
		log.Info().Str("module", "store").Str("driver", "memory").Msg("store opened")
		return NewMemory(), nil
	case "sqlite":
		dial = sqlite.Open(dsn)
	case "postgres":
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	s, err := OpenGorm(dial)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	log.Info().Str("module", "store").Str("driver", driver).Msg("store opened")
	return s, nil
}
