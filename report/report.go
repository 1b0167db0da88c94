// Package report queries benchmark output with DuckDB.
//
// Open exposes every committed Parquet file under a directory as a single
// `games` view. Files still under tmp/ are ignored.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

type Reader struct {
	dir string
	db  *sql.DB
}

type Summary struct {
	Games       int64
	Wins        int64
	WinRate     float64
	MeanScore   float64
	MaxScore    int64
	MeanMoves   float64
	HighestTile int64
}

type TileCount struct {
	Tile  int64
	Games int64
}

type GameSummary struct {
	GameID      string
	Seed        int64
	Score       int64
	Moves       int64
	HighestTile int64
	Won         bool
	File        string
}

// Open builds an in-memory DuckDB over dir. A directory without results
// yields an empty view rather than an error.
func Open(ctx context.Context, dir string) (*Reader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("open report: dir is required")
	}
	files, err := committedFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list parquet files: %w", err)
	}
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA threads=4")

	var view string
	if len(files) > 0 {
		quoted := make([]string, len(files))
		for i, f := range files {
			quoted[i] = "'" + escapeSQLString(filepath.ToSlash(f)) + "'"
		}
		view = `CREATE OR REPLACE VIEW games AS
			SELECT * FROM read_parquet([` + strings.Join(quoted, ",") + `], filename=true, union_by_name=true)`
	} else {
		view = `CREATE OR REPLACE VIEW games AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS game_id,
					NULL::BIGINT AS seed,
					NULL::VARCHAR AS agent,
					NULL::INTEGER AS width,
					NULL::INTEGER AS height,
					NULL::BOOLEAN AS won,
					NULL::BIGINT AS score,
					NULL::INTEGER AS moves,
					NULL::INTEGER AS highest_tile,
					NULL::INTEGER AS pieces,
					NULL::BIGINT AS duration_ms,
					NULL::BIGINT AS finished_ns,
					NULL::INTEGER[] AS final_cells,
					NULL::VARCHAR AS filename
			) WHERE 1=0`
	}
	if _, err := db.ExecContext(ctx, view); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create games view: %w", err)
	}
	return &Reader{dir: dir, db: db}, nil
}

// committedFiles lists the Parquet files under dir, skipping tmp/
// directories where batches are still being written.
func committedFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "tmp" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (r *Reader) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Reader) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*)::BIGINT,
			COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0)::BIGINT,
			COALESCE(AVG(score), 0)::DOUBLE,
			COALESCE(MAX(score), 0)::BIGINT,
			COALESCE(AVG(moves), 0)::DOUBLE,
			COALESCE(MAX(highest_tile), 0)::BIGINT
		FROM games`).Scan(&s.Games, &s.Wins, &s.MeanScore, &s.MaxScore, &s.MeanMoves, &s.HighestTile)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}
	if s.Games > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Games)
	}
	return s, nil
}

// TileHistogram counts games by their highest tile, smallest tile first.
func (r *Reader) TileHistogram(ctx context.Context) ([]TileCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT highest_tile::BIGINT AS tile, COUNT(*)::BIGINT
		FROM games
		GROUP BY tile
		ORDER BY tile`)
	if err != nil {
		return nil, fmt.Errorf("query tile histogram: %w", err)
	}
	defer rows.Close()

	var out []TileCount
	for rows.Next() {
		var tc TileCount
		if err := rows.Scan(&tc.Tile, &tc.Games); err != nil {
			return nil, fmt.Errorf("scan tile histogram: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// TopGames returns the highest scoring games, ties broken by seed.
func (r *Reader) TopGames(ctx context.Context, limit int) ([]GameSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
			game_id, seed::BIGINT, score::BIGINT, moves::BIGINT, highest_tile::BIGINT, won, filename
		FROM games
		ORDER BY score DESC, seed ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top games: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		var file string
		if err := rows.Scan(&g.GameID, &g.Seed, &g.Score, &g.Moves, &g.HighestTile, &g.Won, &file); err != nil {
			return nil, fmt.Errorf("scan top games: %w", err)
		}
		if rel, err := filepath.Rel(r.dir, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = filepath.ToSlash(rel)
		}
		g.File = file
		out = append(out, g)
	}
	return out, rows.Err()
}
