// Package store writes benchmark results to Parquet.
//
// Each GameRow summarises one finished game. Files are written under
// outDir/tmp and renamed into outDir, so readers never see a partial file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// SchemaVersion is stored in every file's key/value metadata.
const SchemaVersion = "game_result_v1"

// GameRow is the outcome of one benchmark game.
//
// FinalCells is the final grid in row-major order (index y*width+x).
type GameRow struct {
	GameID      string  `parquet:"game_id,dict"`
	Seed        int64   `parquet:"seed"`
	Agent       string  `parquet:"agent,dict"`
	Width       int32   `parquet:"width"`
	Height      int32   `parquet:"height"`
	Won         bool    `parquet:"won"`
	Score       int64   `parquet:"score"`
	Moves       int32   `parquet:"moves"`
	HighestTile int32   `parquet:"highest_tile"`
	Pieces      int32   `parquet:"pieces"`
	DurationMs  int64   `parquet:"duration_ms"`
	FinishedNs  int64   `parquet:"finished_ns"`
	FinalCells  []int32 `parquet:"final_cells"`
}

func writerOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("final_cells"),
		parquet.KeyValueMetadata("schema", SchemaVersion),
	}
}

// WriteBatchParquetAtomic writes rows to a new batch file in outDir and
// returns its path.
func WriteBatchParquetAtomic(outDir string, rows []GameRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("write parquet: no rows")
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := batchName()
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadGameRows loads every row of a batch file.
func ReadGameRows(path string) ([]GameRow, error) {
	rows, err := parquet.ReadFile[GameRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

var batchSeq atomic.Int64

func batchName() string {
	return fmt.Sprintf("games_%d_%d.parquet", time.Now().UnixNano(), batchSeq.Add(1))
}
