// Command report prints a summary of a benchmark output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/brensch/ttfe/config"
	"github.com/brensch/ttfe/report"
	"github.com/brensch/ttfe/selfplay"
)

func main() {
	dir := flag.String("dir", config.String("TTFE_OUT_DIR", selfplay.DefaultConfig().OutDir), "Benchmark output directory")
	top := flag.Int("top", 5, "Number of best games to list")
	flag.Parse()

	if err := run(context.Background(), os.Stdout, *dir, *top); err != nil {
		log.Fatalf("Report failed: %v", err)
	}
}

func run(ctx context.Context, w io.Writer, dir string, top int) error {
	r, err := report.Open(ctx, dir)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer r.Close()

	s, err := r.Summary(ctx)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	hist, err := r.TileHistogram(ctx)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	best, err := r.TopGames(ctx, top)
	if err != nil {
		return fmt.Errorf("top games: %w", err)
	}

	fmt.Fprintf(w, "Results in %s\n\n", dir)
	fmt.Fprintf(w, "Games:        %d\n", s.Games)
	fmt.Fprintf(w, "Wins:         %d (%.1f%%)\n", s.Wins, 100*s.WinRate)
	fmt.Fprintf(w, "Mean score:   %.1f\n", s.MeanScore)
	fmt.Fprintf(w, "Max score:    %d\n", s.MaxScore)
	fmt.Fprintf(w, "Mean moves:   %.1f\n", s.MeanMoves)
	fmt.Fprintf(w, "Highest tile: %d\n\n", s.HighestTile)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TILE\tGAMES\t")
	for _, h := range hist {
		fmt.Fprintf(tw, "%d\t%d\t\n", h.Tile, h.Games)
	}
	_ = tw.Flush()

	if len(best) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tSCORE\tMOVES\tBEST\tWON\tFILE\t")
	for _, g := range best {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%v\t%s\t\n", g.Seed, g.Score, g.Moves, g.HighestTile, g.Won, g.File)
	}
	return tw.Flush()
}
