package tintgrid

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image/color"
	"image/png"

	_ "modernc.org/sqlite"
)

// GridStore persists grid definitions (regions, tints and pristine
// snapshots) in a SQLite database.
type GridStore struct {
	db *sql.DB
}

const gridStoreSchema = `
CREATE TABLE IF NOT EXISTS grids (
    name     TEXT PRIMARY KEY,
    width    INTEGER NOT NULL,
    height   INTEGER NOT NULL,
    atlas    TEXT NOT NULL DEFAULT '',
    snapshot BLOB                      -- PNG, NULL before the first capture
);

CREATE TABLE IF NOT EXISTS regions (
    grid   TEXT NOT NULL REFERENCES grids(name) ON DELETE CASCADE,
    seq    INTEGER NOT NULL,          -- declaration order
    x      INTEGER NOT NULL,
    y      INTEGER NOT NULL,
    w      INTEGER NOT NULL,
    h      INTEGER NOT NULL,
    kind   INTEGER NOT NULL,
    tint   INTEGER NOT NULL DEFAULT 4294967295,  -- 0xRRGGBBAA
    PRIMARY KEY (grid, seq)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_regions_rect ON regions(grid, x, y, w, h);
`

// ErrGridNotFound is returned by LoadGrid for unknown names.
var ErrGridNotFound = errors.New("tintgrid: grid definition not found")

// OpenGridStore opens (creating if needed) the database at path.
func OpenGridStore(ctx context.Context, path string) (*GridStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: open store %s: %w", path, err)
	}
	// One connection: the engine is single-threaded and SQLite serializes
	// writers anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("tintgrid: enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, gridStoreSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tintgrid: create store schema: %w", err)
	}
	return &GridStore{db: db}, nil
}

// Close closes the database.
func (s *GridStore) Close() error {
	return s.db.Close()
}

// SaveGrid writes the full definition, replacing any stored one of the same
// name.
func (s *GridStore) SaveGrid(ctx context.Context, g *GridDefinition) error {
	var snapshot any // NULL until the first capture
	if g.HasSnapshot() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, g.Pristine()); err != nil {
			return fmt.Errorf("tintgrid: encode snapshot of %q: %w", g.Name, err)
		}
		snapshot = buf.Bytes()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tintgrid: begin save %q: %w", g.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO grids (name, width, height, atlas, snapshot) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			width = excluded.width, height = excluded.height,
			atlas = excluded.atlas, snapshot = excluded.snapshot`,
		g.Name, g.Width, g.Height, g.AtlasPath, snapshot); err != nil {
		return fmt.Errorf("tintgrid: save grid %q: %w", g.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM regions WHERE grid = ?`, g.Name); err != nil {
		return fmt.Errorf("tintgrid: clear regions of %q: %w", g.Name, err)
	}
	for i, r := range g.regions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO regions (grid, seq, x, y, w, h, kind, tint) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			g.Name, i, r.X, r.Y, r.Width, r.Height, int(r.Kind), packColor(r.Tint)); err != nil {
			return fmt.Errorf("tintgrid: save region %v of %q: %w", r.Rect(), g.Name, err)
		}
	}
	return tx.Commit()
}

// SaveTints writes only the pattern tints of g, the one field surfaces
// change between commits.
func (s *GridStore) SaveTints(ctx context.Context, g *GridDefinition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tintgrid: begin tint save %q: %w", g.Name, err)
	}
	defer tx.Rollback()
	for _, r := range g.regions {
		if r.Kind != KindTexturePattern {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE regions SET tint = ? WHERE grid = ? AND x = ? AND y = ? AND w = ? AND h = ?`,
			packColor(r.Tint), g.Name, r.X, r.Y, r.Width, r.Height); err != nil {
			return fmt.Errorf("tintgrid: save tint %v of %q: %w", r.Rect(), g.Name, err)
		}
	}
	return tx.Commit()
}

// LoadGrid reads the definition stored under name.
func (s *GridStore) LoadGrid(ctx context.Context, name string) (*GridDefinition, error) {
	var (
		width, height int
		atlas         string
		snapshot      []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT width, height, atlas, snapshot FROM grids WHERE name = ?`, name).
		Scan(&width, &height, &atlas, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrGridNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("tintgrid: load grid %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, w, h, kind, tint FROM regions WHERE grid = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: load regions of %q: %w", name, err)
	}
	defer rows.Close()
	var regions []Region
	for rows.Next() {
		var (
			r    Region
			kind int
			tint int64
		)
		if err := rows.Scan(&r.X, &r.Y, &r.Width, &r.Height, &kind, &tint); err != nil {
			return nil, fmt.Errorf("tintgrid: scan region of %q: %w", name, err)
		}
		r.Kind = Kind(kind)
		r.Tint = unpackColor(tint)
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tintgrid: load regions of %q: %w", name, err)
	}

	g, err := NewGridDefinition(name, width, height, regions)
	if err != nil {
		return nil, err
	}
	g.AtlasPath = atlas
	if len(snapshot) > 0 {
		img, err := png.Decode(bytes.NewReader(snapshot))
		if err != nil {
			return nil, fmt.Errorf("tintgrid: decode snapshot of %q: %w", name, err)
		}
		if err := g.SetSnapshot(img); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// GridNames lists the stored definitions in name order.
func (s *GridStore) GridNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM grids ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("tintgrid: list grids: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("tintgrid: list grids: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func packColor(c color.NRGBA) int64 {
	return int64(c.R)<<24 | int64(c.G)<<16 | int64(c.B)<<8 | int64(c.A)
}

func unpackColor(v int64) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
