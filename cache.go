package lvimg

import (
	"crypto/sha1"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Cache stores previously converted images keyed by the SHA-1 of the input
// and the conversion options.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database in file.
func OpenCache(file string) (*Cache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, options TEXT NOT NULL, output BLOB NOT NULL, UNIQUE(sha1, options))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func fingerprint(opts *Options) string {
	b := opts.Bin
	return fmt.Sprintf("%s:%s:%d:%t:%d:%s:%s:%t", opts.Output, b.Format, b.Align, b.Dither, b.Quality, b.Version, b.Compression, b.Premultiplied)
}

func checksum(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

// Get returns the cached output for input converted with opts, or nil if
// there is none.
func (c *Cache) Get(input []byte, opts *Options) ([]byte, error) {
	var output []byte
	switch err := c.db.QueryRow("SELECT output FROM conversion WHERE sha1 = ? AND options = ?", checksum(input), fingerprint(opts)).Scan(&output); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return output, nil
	default:
		return nil, err
	}
}

// Put stores the output of converting input with opts.
func (c *Cache) Put(input []byte, opts *Options, output []byte) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO conversion (sha1, options, output) VALUES (?, ?, ?)", checksum(input), fingerprint(opts), output); err != nil {
		return err
	}
	return nil
}

// Len returns the number of cached conversions.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM conversion").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
