package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/hexfoot/engine/internal/database"
)

// openDatabase connects to Postgres, or to the SQLite file given with -db
// when Postgres is down.
func openDatabase(name string, args []string) (*database.Manager, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	sqlitePath := fs.String("db", "", "SQLite recording to read when Postgres is unavailable")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := setup(true); err != nil {
		return nil, nil, err
	}

	mgr := database.NewManager(ZLogger)
	if err := mgr.Connect(*sqlitePath); err != nil {
		return nil, nil, err
	}
	return mgr, fs.Args(), nil
}

func runReplay(args []string) error {
	mgr, ids, err := openDatabase("replay", args)
	if err != nil {
		return err
	}
	defer teardown()

	if len(ids) == 0 {
		fmt.Println("No match IDs provided.")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, id := range ids {
		Logger.Info("Loading recording", "matchId", id, "local", mgr.Local)
		rec, err := database.LoadRecording(mgr.DB, id)
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write recording %s: %w", id, err)
		}
	}
	return nil
}

func runList(args []string) error {
	mgr, rest, err := openDatabase("list", args)
	if err != nil {
		return err
	}
	defer teardown()

	limit := 20
	if len(rest) > 0 {
		if limit, err = strconv.Atoi(rest[0]); err != nil {
			return fmt.Errorf("invalid limit %q: %w", rest[0], err)
		}
	}

	matches, err := database.ListMatches(mgr.DB, limit)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Printf("%s  %s  %s %d-%d %s  (%d turns)\n",
			m.MatchUUID, m.StartTime.Format("2006-01-02 15:04"),
			m.HomeName, m.HomeScore, m.AwayScore, m.AwayName, m.Turns)
	}
	return nil
}
