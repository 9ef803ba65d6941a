// Package catalog maintains a SQLite catalog of converted documents with
// full-text search over titles and abstracts. Re-indexing a BioC file whose
// content hash is unchanged is a no-op.
package catalog

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bibflow/bibflow/internal/convert"
)

// Catalog wraps the catalog database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db, path: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
  pmid TEXT PRIMARY KEY,
  title TEXT,
  abstract TEXT,
  journal TEXT,
  year INTEGER,
  authors TEXT,
  source TEXT
)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
  pmid,
  title,
  abstract
)`,
		`CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
)`,
	}
	for _, stmt := range ddl {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing catalog schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error { return c.db.Close() }

// storedHash retrieves the recorded content hash for a source file.
func (c *Catalog) storedHash(source string) (string, error) {
	var hash sql.NullString
	err := c.db.QueryRow("SELECT value FROM _meta WHERE key = ?", hashKey(source)).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

func hashKey(source string) string {
	return "hash:" + filepath.Base(source)
}

// IndexFile loads every document from a BioC file into the catalog,
// replacing any rows previously loaded from the same file. Returns the
// number of documents indexed, or (0, nil) when the file is unchanged
// since the last indexing.
func (c *Catalog) IndexFile(biocPath string) (int, error) {
	fileHash, err := ComputeFileHash(biocPath)
	if err != nil {
		return 0, err
	}
	stored, err := c.storedHash(biocPath)
	if err != nil {
		return 0, err
	}
	if stored == fileHash {
		return 0, nil
	}

	r, err := convert.NewBioCReader(biocPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Drop rows from a previous version of this file first.
	source := filepath.Base(biocPath)
	if _, err := tx.Exec(`DELETE FROM documents_fts WHERE pmid IN
		(SELECT pmid FROM documents WHERE source = ?)`, source); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE source = ?`, source); err != nil {
		return 0, err
	}

	count := 0
	for {
		doc, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		title := strings.Join(doc.Title, " ")
		abstract := strings.Join(doc.Abstract, " ")
		if _, err := tx.Exec(`INSERT OR REPLACE INTO documents
			(pmid, title, abstract, journal, year, authors, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, title, abstract, doc.Journal, doc.Date.Year,
			strings.Join(doc.Authors, "|"), source); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM documents_fts WHERE pmid = ?`, doc.ID); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`INSERT INTO documents_fts (pmid, title, abstract)
			VALUES (?, ?, ?)`, doc.ID, title, abstract); err != nil {
			return 0, err
		}
		count++
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`,
		hashKey(biocPath), fileHash); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Result is one search hit.
type Result struct {
	PMID     string `json:"pmid"`
	Title    string `json:"title"`
	Journal  string `json:"journal,omitempty"`
	Year     int    `json:"year,omitempty"`
	Abstract string `json:"abstract,omitempty"`
}

// Search runs a full-text query over titles and abstracts, ranked by FTS5
// relevance.
func (c *Catalog) Search(query string, limit int) ([]Result, error) {
	rows, err := c.db.Query(`
		SELECT d.pmid, d.title, d.journal, d.year, d.abstract
		FROM documents_fts f
		JOIN documents d ON d.pmid = f.pmid
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var journal, abstract sql.NullString
		var year sql.NullInt64
		if err := rows.Scan(&r.PMID, &r.Title, &journal, &year, &abstract); err != nil {
			return nil, err
		}
		r.Journal = journal.String
		r.Year = int(year.Int64)
		r.Abstract = abstract.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of cataloged documents.
func (c *Catalog) Count() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}
