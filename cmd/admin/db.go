package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"polycube.ai/internal/persistence/indexdb"
)

func defaultIndexPath(dataDir string) string {
	return filepath.Join(dataDir, "index", "games.sqlite")
}

func dbCmd(q string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(q, flag.ContinueOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit (games)")
	gameID := fs.String("game", "", "game id (moves)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = defaultIndexPath(*dataDir)
	}
	db, err := indexdb.OpenQuery(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch q {
	case "games":
		rows, err := indexdb.RecentGames(ctx, db, *limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, r := range rows {
			printJSON(out, r)
		}
	case "moves":
		if strings.TrimSpace(*gameID) == "" {
			return fmt.Errorf("missing -game")
		}
		rows, err := indexdb.GameMoves(ctx, db, *gameID)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("no moves for game %q", *gameID)
		}
		for _, r := range rows {
			printJSON(out, r)
		}
	case "summary":
		rows, err := indexdb.Summary(ctx, db)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, r := range rows {
			printJSON(out, r)
		}
	default:
		return fmt.Errorf("unknown query: %s", q)
	}
	return nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
