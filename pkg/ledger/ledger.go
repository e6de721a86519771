package ledger

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	_ "modernc.org/sqlite"

	"eodmsdds/pkg/logger"
)

// Download statuses recorded in the downloads table
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	queryTable    = "queries"
	downloadTable = "downloads"
)

var expectedQueryCols = []string{"id", "catalog", "environment", "parameters", "created_at"}

var expectedDownloadCols = []string{
	"archive_id", "query_id", "collection", "status",
	"file_path", "file_size_mb", "checksum", "created_at", "updated_at",
}

// Ledger is an optional SQLite download ledger. It writes only when the
// database file exists and carries the expected tables; otherwise every
// method no-ops. Ledger failures are logged at debug and never propagate.
type Ledger struct {
	db      *sql.DB
	enabled bool
	logger  logger.Logger
}

// Open opens the ledger at dbPath. A missing path, missing file, or invalid
// schema yields a disabled ledger, never an error.
func Open(dbPath string, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.GetLogger()
	}
	l := &Ledger{logger: log}

	if dbPath == "" {
		return l
	}
	if _, err := os.Stat(dbPath); err != nil {
		return l
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.DebugWithFields("Ledger disabled: cannot open sqlite", map[string]interface{}{"error": err.Error()})
		return l
	}

	for table, cols := range map[string][]string{
		queryTable:    expectedQueryCols,
		downloadTable: expectedDownloadCols,
	} {
		ok, err := hasColumns(db, table, cols)
		if err != nil || !ok {
			log.DebugWithFields("Ledger disabled: table missing or invalid", map[string]interface{}{"table": table})
			db.Close()
			return l
		}
	}

	l.db = db
	l.enabled = true
	log.DebugWithFields("Ledger enabled", map[string]interface{}{"path": dbPath})
	return l
}

// hasColumns reports whether a table exists with at least the given columns
func hasColumns(db *sql.DB, table string, need []string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		present[name] = true
	}

	for _, col := range need {
		if !present[col] {
			return false, nil
		}
	}
	return true, nil
}

// Enabled reports whether the ledger is recording
func (l *Ledger) Enabled() bool {
	return l.enabled
}

// Close releases the database handle
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) skip(op string, err error) {
	l.logger.DebugWithFields("Ledger write skipped", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
}

// RecordQuery records a metadata query and returns its row id, or 0 when
// the ledger is disabled or the write fails
func (l *Ledger) RecordQuery(catalog, environment string, parameters map[string]interface{}) int64 {
	if !l.enabled {
		return 0
	}

	params, err := json.Marshal(parameters)
	if err != nil {
		params = []byte("{}")
	}

	res, err := l.db.Exec(
		`INSERT INTO queries (catalog, environment, parameters, created_at)
		 VALUES (?,?,?,datetime('now'))`,
		catalog, environment, string(params),
	)
	if err != nil {
		l.skip("record_query", err)
		return 0
	}

	id, err := res.LastInsertId()
	if err != nil {
		l.skip("record_query", err)
		return 0
	}
	return id
}

// MarkInProgress upserts a download row with in_progress status
func (l *Ledger) MarkInProgress(archiveID, collection string, queryID int64, filePath string) {
	if !l.enabled {
		return
	}

	_, err := l.db.Exec(
		`INSERT INTO downloads (archive_id, query_id, collection, status, file_path, created_at, updated_at)
		 VALUES (?,?,?,?,?,datetime('now'),datetime('now'))
		 ON CONFLICT(archive_id) DO UPDATE SET
		     status=excluded.status, file_path=excluded.file_path, updated_at=datetime('now')`,
		archiveID, nullableID(queryID), collection, StatusInProgress, filePath,
	)
	if err != nil {
		l.skip("mark_in_progress", err)
	}
}

// MarkCompleted upserts a download row with completed status, recording the
// final file size in megabytes and its md5 checksum
func (l *Ledger) MarkCompleted(archiveID, collection string, queryID int64, finalPath string) {
	if !l.enabled {
		return
	}

	var sizeMB sql.NullFloat64
	if info, err := os.Stat(finalPath); err == nil {
		sizeMB = sql.NullFloat64{Float64: float64(info.Size()) / (1024 * 1024), Valid: true}
	}
	var checksum sql.NullString
	if sum, err := md5File(finalPath); err == nil {
		checksum = sql.NullString{String: sum, Valid: true}
	}

	_, err := l.db.Exec(
		`INSERT INTO downloads (archive_id, query_id, collection, status, file_path, file_size_mb, checksum, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,datetime('now'),datetime('now'))
		 ON CONFLICT(archive_id) DO UPDATE SET
		     status=excluded.status, file_path=excluded.file_path, file_size_mb=excluded.file_size_mb,
		     checksum=excluded.checksum, updated_at=datetime('now')`,
		archiveID, nullableID(queryID), collection, StatusCompleted, finalPath, sizeMB, checksum,
	)
	if err != nil {
		l.skip("mark_completed", err)
	}
}

// MarkFailed upserts a download row with failed status
func (l *Ledger) MarkFailed(archiveID, collection string, queryID int64, filePath string, cause error) {
	if !l.enabled {
		return
	}

	_, err := l.db.Exec(
		`INSERT INTO downloads (archive_id, query_id, collection, status, file_path, created_at, updated_at)
		 VALUES (?,?,?,?,?,datetime('now'),datetime('now'))
		 ON CONFLICT(archive_id) DO UPDATE SET
		     status=excluded.status, file_path=excluded.file_path, updated_at=datetime('now')`,
		archiveID, nullableID(queryID), collection, StatusFailed, filePath,
	)
	if err != nil {
		l.skip("mark_failed", err)
	}
	if cause != nil {
		l.logger.DebugWithFields("Download failure recorded", map[string]interface{}{
			"archive_id": archiveID,
			"error":      cause.Error(),
		})
	}
}

// DownloadStatus returns the recorded status for an archive id, or an
// empty string when the ledger is disabled or the row is absent
func (l *Ledger) DownloadStatus(archiveID string) string {
	if !l.enabled {
		return ""
	}

	var status string
	err := l.db.QueryRow(`SELECT status FROM downloads WHERE archive_id = ?`, archiveID).Scan(&status)
	if err != nil {
		return ""
	}
	return status
}

func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// md5File computes the md5 hex digest of a file
func md5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CreateSchema creates a new ledger database at dbPath with the expected
// tables. Used by config init to bootstrap a ledger.
func CreateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to create ledger database: %w", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			catalog TEXT,
			environment TEXT,
			parameters TEXT,
			created_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS downloads (
			archive_id TEXT PRIMARY KEY,
			query_id INTEGER,
			collection TEXT,
			status TEXT,
			file_path TEXT,
			file_size_mb REAL,
			checksum TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create ledger schema: %w", err)
		}
	}
	return nil
}
