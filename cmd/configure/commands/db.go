package commands

import (
	"fmt"
	"os"

	"github.com/benvon/twin-insights/internal/config"
	"github.com/benvon/twin-insights/internal/database"
)

// openDB connects using DATABASE_URL. The returned func closes the pool.
func openDB() (*database.DB, func(), error) {
	url, err := config.LoadDatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}, nil
}
