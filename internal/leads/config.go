package leads

import "fmt"

// Config selects and locates the lead storage backend.
type Config struct {
	Backend string `envconfig:"LEADS_BACKEND" default:"csv"`
	Dir     string `envconfig:"LEADS_DIR" default:"data"`
	DBPath  string `envconfig:"LEADS_DB_PATH" default:"data/leads.db"`
}

// New constructs the configured backend.
func (c Config) New() (Store, error) {
	switch c.Backend {
	case "csv":
		return NewCSVStore(c.Dir)
	case "sqlite":
		return NewSQLiteStore(c.DBPath)
	default:
		return nil, fmt.Errorf("unknown leads backend %q (want csv or sqlite)", c.Backend)
	}
}
