// internal/config/database.go
package config

import (
	"fmt"
	"strings"
)

// sqlitePragmas are applied by the driver to every new connection.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		sep := "?"
		if strings.Contains(d.SQLitePath, "?") {
			sep = "&"
		}
		return d.SQLitePath + sep + sqlitePragmas
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// MaintenanceDSN points at the server's default "postgres" database, used to
// create the application database when it does not exist yet.
func (d *DatabaseConfig) MaintenanceDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=postgres sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.SSLMode,
	)
}
