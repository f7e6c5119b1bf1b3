// Package persist stores canvas documents in SQLite.
package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrEmpty is returned by Load when the database holds no spaces.
var ErrEmpty = errors.New("database holds no spaces")

const schema = `
CREATE TABLE IF NOT EXISTS spaces (
	id TEXT PRIMARY KEY,
	ord INTEGER NOT NULL,
	name TEXT NOT NULL,
	is_public BOOLEAN NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	picture_url TEXT NOT NULL DEFAULT '',
	background TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS space_members (
	space_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	email TEXT NOT NULL,
	FOREIGN KEY (space_id) REFERENCES spaces(id)
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	ord INTEGER NOT NULL,
	space_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	x REAL NOT NULL,
	y REAL NOT NULL,
	width REAL NOT NULL DEFAULT 0,
	height REAL NOT NULL DEFAULT 0,
	collapsed BOOLEAN NOT NULL DEFAULT 0,
	icon TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (space_id) REFERENCES spaces(id)
);

CREATE TABLE IF NOT EXISTS collaborators (
	node_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	id TEXT NOT NULL,
	initials TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (node_id) REFERENCES nodes(id)
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const activeSpaceKey = "active_space"

// Repository reads and writes whole documents.
type Repository struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Pass MemoryPath for a throwaway database.
func Open(path string, log logrus.FieldLogger) (*Repository, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	log.WithField("path", path).Debug("persist: opened database")
	return &Repository{db: db, log: log}, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save replaces the stored document with doc in a single transaction.
func (r *Repository) Save(doc store.Document) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"collaborators", "nodes", "space_members", "spaces", "settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, s := range doc.Spaces {
		_, err := tx.Exec(
			"INSERT INTO spaces (id, ord, name, is_public, description, picture_url, background) VALUES (?, ?, ?, ?, ?, ?, ?)",
			s.ID, i, s.Name, s.IsPublic, s.Description, s.PictureURL, s.Background,
		)
		if err != nil {
			return fmt.Errorf("failed to insert space %q: %w", s.ID, err)
		}
		for j, m := range s.Members {
			if _, err := tx.Exec("INSERT INTO space_members (space_id, ord, email) VALUES (?, ?, ?)", s.ID, j, m); err != nil {
				return fmt.Errorf("failed to insert member of %q: %w", s.ID, err)
			}
		}
	}

	for i, n := range doc.Nodes {
		_, err := tx.Exec(
			`INSERT INTO nodes (id, ord, space_id, type, title, content, parent_id, x, y, width, height, collapsed, icon)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(n.ID), i, n.SpaceID, n.Type.String(), n.Title, n.Content, string(n.ParentID),
			n.Position.X, n.Position.Y, n.Width, n.Height, n.Collapsed, n.Icon,
		)
		if err != nil {
			return fmt.Errorf("failed to insert node %q: %w", n.ID, err)
		}
		for j, c := range n.Collaborators {
			_, err := tx.Exec(
				"INSERT INTO collaborators (node_id, ord, id, initials, color, name) VALUES (?, ?, ?, ?, ?, ?)",
				string(n.ID), j, c.ID, c.Initials, c.Color, c.Name,
			)
			if err != nil {
				return fmt.Errorf("failed to insert collaborator of %q: %w", n.ID, err)
			}
		}
	}

	if doc.ActiveSpace != "" {
		if _, err := tx.Exec("INSERT INTO settings (key, value) VALUES (?, ?)", activeSpaceKey, doc.ActiveSpace); err != nil {
			return fmt.Errorf("failed to store active space: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"spaces": len(doc.Spaces),
		"nodes":  len(doc.Nodes),
	}).Debug("persist: saved document")
	return nil
}

// Load reads the stored document. It returns ErrEmpty when nothing has
// been saved yet.
func (r *Repository) Load() (store.Document, error) {
	var doc store.Document

	spaces, err := r.loadSpaces()
	if err != nil {
		return doc, err
	}
	if len(spaces) == 0 {
		return doc, ErrEmpty
	}
	doc.Spaces = spaces

	if doc.Nodes, err = r.loadNodes(); err != nil {
		return doc, err
	}

	err = r.db.QueryRow("SELECT value FROM settings WHERE key = ?", activeSpaceKey).Scan(&doc.ActiveSpace)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return doc, fmt.Errorf("failed to read active space: %w", err)
	}
	return doc, nil
}

func (r *Repository) loadSpaces() ([]store.Space, error) {
	rows, err := r.db.Query("SELECT id, name, is_public, description, picture_url, background FROM spaces ORDER BY ord")
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	defer rows.Close()

	var spaces []store.Space
	for rows.Next() {
		s := store.Space{Members: []string{}}
		if err := rows.Scan(&s.ID, &s.Name, &s.IsPublic, &s.Description, &s.PictureURL, &s.Background); err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read spaces: %w", err)
	}

	for i := range spaces {
		members, err := r.db.Query("SELECT email FROM space_members WHERE space_id = ? ORDER BY ord", spaces[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query members: %w", err)
		}
		for members.Next() {
			var m string
			if err := members.Scan(&m); err != nil {
				members.Close()
				return nil, fmt.Errorf("failed to scan member: %w", err)
			}
			spaces[i].Members = append(spaces[i].Members, m)
		}
		members.Close()
	}
	return spaces, nil
}

func (r *Repository) loadNodes() ([]canvas.Node, error) {
	rows, err := r.db.Query(`SELECT id, space_id, type, title, content, parent_id, x, y, width, height, collapsed, icon
		FROM nodes ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []canvas.Node
	for rows.Next() {
		var (
			n            canvas.Node
			id, parentID string
			typ          string
		)
		err := rows.Scan(&id, &n.SpaceID, &typ, &n.Title, &n.Content, &parentID,
			&n.Position.X, &n.Position.Y, &n.Width, &n.Height, &n.Collapsed, &n.Icon)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if n.Type, err = canvas.ParseNodeType(typ); err != nil {
			return nil, fmt.Errorf("node %q: %w", id, err)
		}
		n.ID, n.ParentID = canvas.NodeID(id), canvas.NodeID(parentID)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	collabs, err := r.db.Query("SELECT node_id, id, initials, color, name FROM collaborators ORDER BY node_id, ord")
	if err != nil {
		return nil, fmt.Errorf("failed to query collaborators: %w", err)
	}
	defer collabs.Close()
	for collabs.Next() {
		var nodeID string
		var c canvas.Collaborator
		if err := collabs.Scan(&nodeID, &c.ID, &c.Initials, &c.Color, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan collaborator: %w", err)
		}
		if n := canvas.FindNode(nodes, canvas.NodeID(nodeID)); n != nil {
			n.Collaborators = append(n.Collaborators, c)
		}
	}
	return nodes, collabs.Err()
}
