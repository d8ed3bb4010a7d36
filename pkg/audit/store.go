package audit

import (
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Store handles audit message persistence to database
type Store struct {
	db    *sql.DB
	owned bool
}

// NewStore opens a dedicated postgres connection for audit messages.
func NewStore(dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, owned: true}, nil
}

// NewStoreWithDB creates a store with an existing database connection.
// The connection is shared; Close does not close it.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save persists an audit event to the audit_messages table
func (s *Store) Save(event Event) error {
	if s.db == nil {
		return nil
	}

	hostname, _ := os.Hostname()

	sdataJSON, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO audit_messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		event.Facility(),
		int(event.Severity()),
		time.Now().UTC(),
		hostname,
		"orchard",
		strconv.Itoa(os.Getpid()),
		event.MessageID(),
		string(sdataJSON),
		event.Message(),
	)

	return err
}

// Close closes the connection if the store opened it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
