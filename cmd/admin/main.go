package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	persistlog "polycube.ai/internal/persistence/log"
)

const usage = "usage: admin [games|moves|summary|sessions|state|remote-games] [flags]"

func main() {
	args := os.Args[1:]
	cmd := "games"
	if len(args) >= 1 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}
	var err error
	switch cmd {
	case "games", "moves", "summary":
		err = dbCmd(cmd, args, os.Stdout)
	case "sessions":
		err = sessionsCmd(args, os.Stdout)
	case "state":
		err = getCmd("state", "/admin/v1/state", args, os.Stdout)
	case "remote-games":
		err = getCmd("remote-games", "/admin/v1/games", args, os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", cmd)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sessionsCmd lists the session log files with their sizes.
func sessionsCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files, err := persistlog.ListSessionFiles(persistlog.SessionDir(*dataDir))
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	for _, p := range files {
		var size int64
		if st, err := os.Stat(p); err == nil {
			size = st.Size()
		}
		printJSON(out, struct {
			File  string `json:"file"`
			Bytes int64  `json:"bytes"`
		}{filepath.Base(p), size})
	}
	return nil
}
