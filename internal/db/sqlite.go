package db

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/subtitle-merge/backend/internal/auth"
	"github.com/subtitle-merge/backend/internal/db/models"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'viewer',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS merges (
		id TEXT PRIMARY KEY,
		created_by INTEGER NOT NULL,
		source_names TEXT NOT NULL,
		files_processed INTEGER NOT NULL DEFAULT 0,
		input_cues INTEGER NOT NULL DEFAULT 0,
		output_cues INTEGER NOT NULL DEFAULT 0,
		parse_issues INTEGER NOT NULL DEFAULT 0,
		document TEXT NOT NULL,
		diagnostics TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (created_by) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		params TEXT NOT NULL,
		progress REAL DEFAULT 0,
		result TEXT,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		started_at DATETIME,
		completed_at DATETIME
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) EnsureAdmin(username, password string) error {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, 'admin')",
		username, hash,
	)
	return err
}

func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *Database) GetUserByID(id int64) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *Database) ListUsers() ([]*models.User, error) {
	rows, err := d.db.Query("SELECT id, username, role, created_at, updated_at FROM users ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (d *Database) CreateUser(username, hashedPassword, role string) (int64, error) {
	result, err := d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		username, hashedPassword, role,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *Database) UpdateUser(id int64, username, role string) error {
	_, err := d.db.Exec(
		"UPDATE users SET username = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		username, role, id,
	)
	return err
}

func (d *Database) UpdateUserPassword(id int64, hashedPassword string) error {
	_, err := d.db.Exec(
		"UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		hashedPassword, id,
	)
	return err
}

func (d *Database) DeleteUser(id int64) error {
	_, err := d.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

func (d *Database) CountAdmins() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&count)
	return count, err
}

func (d *Database) CountMerges() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM merges").Scan(&count)
	return count, err
}

// SaveMerge persists one merge run including its serialized document and
// diagnostics
func (d *Database) SaveMerge(rec *models.MergeRecord) error {
	names, err := json.Marshal(rec.SourceNames)
	if err != nil {
		return err
	}
	diagnostics := rec.Diagnostics
	if diagnostics == nil {
		diagnostics = json.RawMessage("[]")
	}
	_, err = d.db.Exec(`
		INSERT INTO merges (id, created_by, source_names, files_processed, input_cues, output_cues, parse_issues, document, diagnostics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedBy, string(names), rec.FilesProcessed, rec.InputCues,
		rec.OutputCues, rec.ParseIssues, rec.Document, string(diagnostics), time.Now(),
	)
	return err
}

// ListMerges returns merge history without the document bodies, newest first
func (d *Database) ListMerges(limit int) ([]*models.MergeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT id, created_by, source_names, files_processed, input_cues, output_cues, parse_issues, created_at
		FROM merges ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.MergeRecord
	for rows.Next() {
		rec := &models.MergeRecord{}
		var names string
		if err := rows.Scan(&rec.ID, &rec.CreatedBy, &names, &rec.FilesProcessed,
			&rec.InputCues, &rec.OutputCues, &rec.ParseIssues, &rec.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(names), &rec.SourceNames)
		records = append(records, rec)
	}
	return records, nil
}

// GetMerge returns one merge run including document and diagnostics
func (d *Database) GetMerge(id string) (*models.MergeRecord, error) {
	rec := &models.MergeRecord{}
	var names, diagnostics string
	err := d.db.QueryRow(`
		SELECT id, created_by, source_names, files_processed, input_cues, output_cues, parse_issues, document, diagnostics, created_at
		FROM merges WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.CreatedBy, &names, &rec.FilesProcessed, &rec.InputCues,
		&rec.OutputCues, &rec.ParseIssues, &rec.Document, &diagnostics, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(names), &rec.SourceNames)
	rec.Diagnostics = json.RawMessage(diagnostics)
	return rec, nil
}

func (d *Database) DeleteMerge(id string) error {
	_, err := d.db.Exec("DELETE FROM merges WHERE id = ?", id)
	return err
}

// GetSetting returns a setting value by key, or defaultVal if not found
func (d *Database) GetSetting(key, defaultVal string) string {
	var val string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return defaultVal
	}
	return val
}

// SetSetting upserts a setting
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP`,
		key, value, value,
	)
	return err
}

// GetAllSettings returns all settings as a map
func (d *Database) GetAllSettings() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying sql.DB for use by other packages (e.g., job queue)
func (d *Database) DB() *sql.DB {
	return d.db
}
