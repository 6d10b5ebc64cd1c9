package database

// SynchronousMode represents the available synchronous settings for SQLite
type SynchronousMode string

const (
	SynchronousOff    SynchronousMode = "OFF"
	SynchronousNormal SynchronousMode = "NORMAL"
	SynchronousFull   SynchronousMode = "FULL"
	SynchronousExtra  SynchronousMode = "EXTRA"
)

// JournalMode represents the available journal modes for SQLite
type JournalMode string

const (
	JournalDelete JournalMode = "DELETE"
	JournalWAL    JournalMode = "WAL"
)

// CacheMode represents the available cache modes for SQLite
type CacheMode string

const (
	CacheShared  CacheMode = "shared"
	CachePrivate CacheMode = "private"
)

// SQLiteOptions contains configuration options for the preference database
type SQLiteOptions struct {
	// Path to the SQLite database file
	Path string

	Mode        string          // ro, rw, rwc, memory
	Cache       CacheMode       // shared, private
	TxLock      string          // deferred, immediate, exclusive
	Journal     JournalMode     // journal_mode pragma
	ForeignKeys bool            // foreign_keys pragma
	BusyTimeout int             // busy_timeout pragma (milliseconds)
	CacheSize   int             // cache_size pragma (negative for KiB)
	Synchronous SynchronousMode // synchronous pragma
}

// NewDefaultOptions creates SQLiteOptions with recommended defaults
func NewDefaultOptions(path string) SQLiteOptions {
	return SQLiteOptions{
		Path:        path,
		Mode:        "rwc",
		Cache:       CachePrivate,
		TxLock:      "immediate",
		Journal:     JournalWAL,
		ForeignKeys: true,
		BusyTimeout: 5000,
		CacheSize:   2000,
		Synchronous: SynchronousNormal,
	}
}
