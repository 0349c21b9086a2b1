package sqlite

// Config holds SQLite settings
type Config struct {
	// Path is the database file path
	Path string
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{
		Path: "digitguess.db",
	}
}
