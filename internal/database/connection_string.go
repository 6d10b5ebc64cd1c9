package database

import (
	"fmt"
	"net/url"
	"strings"
)

// buildConnectionString generates a modernc.org/sqlite DSN from options.
// PRAGMAs travel as _pragma parameters so that every pooled connection gets them,
// not only the first one.
func (opts *SQLiteOptions) buildConnectionString() string {
	params := url.Values{}

	if opts.Mode != "" {
		params.Set("mode", opts.Mode)
	}
	if opts.Cache != "" {
		params.Set("cache", string(opts.Cache))
	}
	if opts.TxLock != "" {
		params.Set("_txlock", opts.TxLock)
	}

	if opts.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout))
	}
	if opts.ForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}
	if opts.Journal != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", opts.Journal))
	}
	if opts.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", opts.Synchronous))
	}
	if opts.CacheSize != 0 {
		params.Add("_pragma", fmt.Sprintf("cache_size(%d)", opts.CacheSize))
	}

	connStr := opts.Path
	if !strings.HasPrefix(connStr, "file:") {
		connStr = "file:" + connStr
	}
	if encoded := params.Encode(); encoded != "" {
		connStr += "?" + encoded
	}

	return connStr
}
