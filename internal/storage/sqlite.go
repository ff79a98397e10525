package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/spacebio/internal/publication"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory catalog.
const MemoryPath = ":memory:"

// DB wraps the SQLite publication catalog used for keyword search.
type DB struct {
	db *sql.DB
}

// selectPubFields contains the standard field list for SELECT queries.
const selectPubFields = `id, title, abstract, summary, impact, theme,
	journal, doi, publication_date, url,
	authors_json, keywords_json`

// OpenDB opens or creates a SQLite catalog at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps an in-memory database alive and serializes writes.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS publications (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			summary TEXT,
			impact TEXT,
			theme TEXT,
			journal TEXT,
			doi TEXT,
			publication_date TEXT,
			url TEXT,
			authors_json TEXT NOT NULL,
			keywords_json TEXT NOT NULL,
			search_text TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_publications_theme ON publications(theme);

		-- Token search over the main text fields
		CREATE VIRTUAL TABLE IF NOT EXISTS publications_fts USING fts5(
			id UNINDEXED,
			title,
			abstract,
			authors_text,
			keywords_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the catalog and loads the given publications in one transaction.
func (d *DB) Rebuild(pubs []publication.Publication) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM publications"); err != nil {
		return 0, fmt.Errorf("clearing publications table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM publications_fts"); err != nil {
		return 0, fmt.Errorf("clearing publications_fts table: %w", err)
	}

	pubStmt, err := tx.Prepare(`
		INSERT INTO publications (
			id, title, abstract, summary, impact, theme,
			journal, doi, publication_date, url,
			authors_json, keywords_json, search_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing publications insert: %w", err)
	}
	defer pubStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO publications_fts (id, title, abstract, authors_text, keywords_text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i := range pubs {
		p := &pubs[i]
		authorsJSON, err := json.Marshal(p.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %d: %w", p.ID, err)
		}
		keywordsJSON, err := json.Marshal(p.Keywords)
		if err != nil {
			return 0, fmt.Errorf("marshaling keywords for %d: %w", p.ID, err)
		}

		_, err = pubStmt.Exec(
			p.ID, p.Title,
			nullableString(p.Abstract), nullableString(p.Summary), nullableString(p.Impact),
			nullableString(p.Theme), nullableString(p.Journal), nullableString(p.DOI),
			nullableString(p.PublicationDate), nullableString(p.URL),
			string(authorsJSON), string(keywordsJSON), strings.ToLower(p.SearchableText()),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting publication %d: %w", p.ID, err)
		}

		_, err = ftsStmt.Exec(p.ID, p.Title, p.Abstract,
			strings.Join(p.Authors, ", "), strings.Join(p.Keywords, ", "))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(pubs), nil
}

// GetByID retrieves a publication by its index. Returns nil, nil when absent.
func (d *DB) GetByID(id int) (*publication.Publication, error) {
	row := d.db.QueryRow(`SELECT `+selectPubFields+` FROM publications WHERE id = ?`, id)
	return scanPublication(row)
}

// Search returns publications whose text contains query as a case-insensitive substring.
// Folding happens in Go since SQLite LIKE only folds ASCII. Results are ordered by index.
func (d *DB) Search(query string, limit int) ([]publication.Publication, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectPubFields+`
		FROM publications
		WHERE search_text LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT ?`, "%"+escapeLike(query)+"%", limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// SearchFullText performs an FTS5 token search ranked by bm25.
func (d *DB) SearchFullText(query string, limit int) ([]publication.Publication, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	return d.matchFTS(ftsQuery, limit)
}

func (d *DB) matchFTS(ftsQuery string, limit int) ([]publication.Publication, error) {
	rows, err := d.db.Query(`
		SELECT `+prefixed("p.", selectPubFields)+`
		FROM publications_fts f
		JOIN publications p ON p.id = CAST(f.id AS INTEGER)
		WHERE publications_fts MATCH ?
		ORDER BY bm25(publications_fts), p.id
		LIMIT ?`, ftsQuery, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("full-text searching: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// SearchAuthor matches author names by word prefix, e.g. "Tim" matches "Timothy".
func (d *DB) SearchAuthor(author string, limit int) ([]publication.Publication, error) {
	q := prepareAuthorQuery(author)
	if q == "" {
		return nil, nil
	}
	return d.matchFTS("authors_text:"+q, limit)
}

// ListAll returns publications ordered by index, paginated.
func (d *DB) ListAll(offset, limit int) ([]publication.Publication, error) {
	rows, err := d.db.Query(`SELECT `+selectPubFields+` FROM publications ORDER BY id LIMIT ? OFFSET ?`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// Count returns the total number of publications.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM publications").Scan(&count)
	return count, err
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching.
func prepareAuthorQuery(author string) string {
	parts := strings.Fields(author)
	if len(parts) == 0 {
		return ""
	}
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// prepareFTSQuery quotes every whitespace-separated token so punctuation and
// bare operators such as OR are matched as text. Tokens are ANDed.
func prepareFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	terms := make([]string, len(fields))
	for i, f := range fields {
		terms[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// limitArg maps a non-positive limit to SQLite's "no limit".
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func prefixed(prefix, fields string) string {
	parts := strings.Split(fields, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPublication(s scanner) (*publication.Publication, error) {
	var p publication.Publication
	var abstract, summary, impact, theme, journal, doi, date, url sql.NullString
	var authorsJSON, keywordsJSON string

	err := s.Scan(
		&p.ID, &p.Title, &abstract, &summary, &impact, &theme,
		&journal, &doi, &date, &url,
		&authorsJSON, &keywordsJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.Abstract = abstract.String
	p.Summary = summary.String
	p.Impact = impact.String
	p.Theme = theme.String
	p.Journal = journal.String
	p.DOI = doi.String
	p.PublicationDate = date.String
	p.URL = url.String

	if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &p.Keywords); err != nil {
		return nil, fmt.Errorf("parsing keywords JSON for %d: %w", p.ID, err)
	}

	return &p, nil
}

func scanPublications(rows *sql.Rows) ([]publication.Publication, error) {
	var pubs []publication.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			pubs = append(pubs, *p)
		}
	}
	return pubs, rows.Err()
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
