// internal/config/database.go
package config

import (
	"fmt"
	"strings"
)

const sqliteForeignKeys = "_pragma=foreign_keys(1)"

func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return sqliteDSN(d.SQLitePath)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off per
// connection.
func sqliteDSN(path string) string {
	if strings.Contains(path, sqliteForeignKeys) {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqliteForeignKeys
	}
	return path + "?" + sqliteForeignKeys
}
