package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the queryable catalog: parsed
// meetings, aggregated council file rows, and pipeline runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "counciltrack.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Meetings ---

// UpsertMeeting records a parsed meeting, replacing any earlier parse of the
// same meeting ID.
func (s *Store) UpsertMeeting(m Meeting) error {
	_, err := s.db.Exec(`
		INSERT INTO meetings (meeting_id, template_id, parsed_at, portal_url, total_sections, total_items)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(meeting_id) DO UPDATE SET
			template_id = excluded.template_id,
			parsed_at = excluded.parsed_at,
			portal_url = excluded.portal_url,
			total_sections = excluded.total_sections,
			total_items = excluded.total_items`,
		m.MeetingID, m.TemplateID, m.ParsedAt, m.PortalURL, m.TotalSections, m.TotalItems,
	)
	return err
}

func (s *Store) GetMeeting(meetingID int) (Meeting, error) {
	var m Meeting
	err := s.db.QueryRow(`
		SELECT meeting_id, template_id, parsed_at, portal_url, total_sections, total_items
		FROM meetings WHERE meeting_id = ?`, meetingID,
	).Scan(&m.MeetingID, &m.TemplateID, &m.ParsedAt, &m.PortalURL, &m.TotalSections, &m.TotalItems)
	if err == sql.ErrNoRows {
		return Meeting{}, ErrNotFound
	}
	if err != nil {
		return Meeting{}, err
	}
	return m, nil
}

// ListMeetings returns all meetings, most recently parsed first.
func (s *Store) ListMeetings() ([]Meeting, error) {
	rows, err := s.db.Query(`
		SELECT meeting_id, template_id, parsed_at, portal_url, total_sections, total_items
		FROM meetings ORDER BY parsed_at DESC, meeting_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.MeetingID, &m.TemplateID, &m.ParsedAt, &m.PortalURL, &m.TotalSections, &m.TotalItems); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// --- Council files ---

const councilFileColumns = `council_file, title, district, appearances, attachments, attachments_with_summaries, first_seen, last_seen`

// ReplaceCouncilFiles atomically swaps the catalog rows for the result of a
// full aggregation pass. Aggregation always recomputes every record, so a
// delete-and-insert inside one transaction keeps the table consistent with
// the document store.
func (s *Store) ReplaceCouncilFiles(records []CouncilFileRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM council_files"); err != nil {
		return fmt.Errorf("clearing council files: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO council_files (` + councilFileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.CouncilFile, r.Title, r.District, r.Appearances,
			r.Attachments, r.AttachmentsWithSummaries, r.FirstSeen, r.LastSeen); err != nil {
			return fmt.Errorf("inserting council file %s: %w", r.CouncilFile, err)
		}
	}

	return tx.Commit()
}

func scanCouncilFile(row interface{ Scan(...any) error }) (CouncilFileRecord, error) {
	var r CouncilFileRecord
	err := row.Scan(&r.CouncilFile, &r.Title, &r.District, &r.Appearances,
		&r.Attachments, &r.AttachmentsWithSummaries, &r.FirstSeen, &r.LastSeen)
	return r, err
}

func (s *Store) GetCouncilFile(number string) (CouncilFileRecord, error) {
	r, err := scanCouncilFile(s.db.QueryRow(`
		SELECT `+councilFileColumns+` FROM council_files WHERE council_file = ?`, number))
	if err == sql.ErrNoRows {
		return CouncilFileRecord{}, ErrNotFound
	}
	if err != nil {
		return CouncilFileRecord{}, err
	}
	return r, nil
}

// SearchCouncilFiles matches the query as a case-insensitive substring of the
// file number, title, or district.
func (s *Store) SearchCouncilFiles(query string, limit int) ([]CouncilFileRecord, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT `+councilFileColumns+` FROM council_files
		WHERE council_file LIKE ? OR title LIKE ? OR district LIKE ?
		ORDER BY last_seen DESC, council_file ASC LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCouncilFiles(rows)
}

// ListRecentCouncilFiles returns records ordered by most recent appearance.
func (s *Store) ListRecentCouncilFiles(limit int) ([]CouncilFileRecord, error) {
	rows, err := s.db.Query(`
		SELECT `+councilFileColumns+` FROM council_files
		ORDER BY last_seen DESC, council_file ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCouncilFiles(rows)
}

func collectCouncilFiles(rows *sql.Rows) ([]CouncilFileRecord, error) {
	var results []CouncilFileRecord
	for rows.Next() {
		r, err := scanCouncilFile(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Runs ---

// StartRun records the beginning of a pipeline execution.
func (s *Store) StartRun(id, startedAt string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, status) VALUES (?, ?, 'running')`,
		id, startedAt)
	return err
}

// FinishRun records the outcome of a pipeline execution.
func (s *Store) FinishRun(r Run) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, meetings_parsed = ?, meetings_skipped = ?,
			council_files = ?, status = ?, last_error = ?
		WHERE id = ?`,
		r.FinishedAt, r.MeetingsParsed, r.MeetingsSkipped, r.CouncilFiles,
		r.Status, r.LastError, r.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRuns returns pipeline runs, most recent first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, meetings_parsed, meetings_skipped, council_files, status, last_error
		FROM runs ORDER BY started_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.MeetingsParsed,
			&r.MeetingsSkipped, &r.CouncilFiles, &r.Status, &r.LastError); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
