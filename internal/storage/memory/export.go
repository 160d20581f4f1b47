// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hexfoot/engine/pkg/core"
)

// ReplayExport is the root JSON structure of an exported match
type ReplayExport struct {
	EngineVersion string      `json:"engineVersion"`
	MatchID       string      `json:"matchId"`
	Home          string      `json:"home"`
	Away          string      `json:"away"`
	HomeEnd       int         `json:"homeEnd"`
	Seed          int64       `json:"seed"`
	Difficulty    int         `json:"difficulty"`
	StartTime     string      `json:"startTime"`
	Turns         int         `json:"turns"`
	Score         [2]int      `json:"score"`
	Tokens        []TokenJSON `json:"tokens"`
	Events        [][]any     `json:"events"`
	Phases        [][]any     `json:"phases"`
	Rolls         [][]any     `json:"rolls"`
	Ball          [][]any     `json:"ball"`
}

// TokenJSON represents a token and its movement history
type TokenJSON struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Jersey     int       `json:"jersey"`
	Side       string    `json:"side"`
	Goalkeeper int       `json:"goalkeeper"`
	StartCell  core.Cell `json:"startCell"`
	Moves      [][]any   `json:"moves"`
}

// exportJSON writes the match data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	timestamp := b.match.StartTime.Format("20060102_150405")
	name := fmt.Sprintf("%s_vs_%s_%s", safeName(b.match.HomeName), safeName(b.match.AwayName), timestamp)

	var filename string
	if b.cfg.CompressOutput {
		filename = name + ".json.gz"
	} else {
		filename = name + ".json"
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() ReplayExport {
	export := ReplayExport{
		EngineVersion: b.match.EngineVersion,
		MatchID:       b.match.ID.String(),
		Home:          b.match.HomeName,
		Away:          b.match.AwayName,
		HomeEnd:       b.match.HomeEnd,
		Seed:          b.match.Seed,
		Difficulty:    b.match.Difficulty,
		StartTime:     b.match.StartTime.UTC().Format(time.RFC3339),
		Tokens:        make([]TokenJSON, 0, len(b.tokens)),
		Events:        make([][]any, 0, len(b.events)),
		Phases:        make([][]any, 0, len(b.phases)),
		Rolls:         make([][]any, 0, len(b.rolls)),
		Ball:          make([][]any, 0, len(b.ballMoves)),
	}
	if b.result != nil {
		export.Turns = b.result.Turns
		export.Score = [2]int{b.result.HomeScore, b.result.AwayScore}
	}

	ids := make([]int, 0, len(b.tokens))
	for id := range b.tokens {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	// Format per move: [turn, [[x, z], ...]]
	for _, id := range ids {
		record := b.tokens[id]
		tok := TokenJSON{
			ID:         record.Token.ID,
			Name:       record.Token.Name,
			Jersey:     record.Token.Jersey,
			Side:       record.Token.Side,
			Goalkeeper: boolToInt(record.Token.Goalkeeper),
			StartCell:  record.Token.StartCell,
			Moves:      make([][]any, 0, len(record.Moves)),
		}
		for _, mv := range record.Moves {
			path := make([][2]int, len(mv.Path))
			for i, c := range mv.Path {
				path[i] = [2]int{c.X, c.Z}
			}
			tok.Moves = append(tok.Moves, []any{mv.Turn, path})
		}
		export.Tokens = append(export.Tokens, tok)
	}

	// Format: [turn, phase, kind, actor, connected, value, subType]
	for _, e := range b.events {
		export.Events = append(export.Events, []any{e.Turn, e.Phase, e.Kind, e.Actor, e.Connected, e.Value, e.SubType})
	}

	// Format: [turn, from, to, action, result]
	for _, p := range b.phases {
		export.Phases = append(export.Phases, []any{p.Turn, p.From, p.To, p.Action, p.Result})
	}

	// Format: [turn, purpose, tokenId, value, jackpot, total, target]
	for _, r := range b.rolls {
		export.Rolls = append(export.Rolls, []any{r.Turn, r.Purpose, r.TokenID, r.Value, boolToInt(r.Jackpot), r.Total, r.Target})
	}

	// Format: [turn, [fromX, fromZ], [toX, toZ], arc]
	for _, m := range b.ballMoves {
		export.Ball = append(export.Ball, []any{m.Turn, [2]int{m.From.X, m.From.Z}, [2]int{m.To.X, m.To.Z}, m.Arc})
	}

	return export
}

// GetExportedFilePath returns the path of the last export, empty before EndMatch.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last export for the replay server.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var meta core.UploadMetadata
	if b.match == nil {
		return meta
	}
	meta.MatchID = b.match.ID.String()
	meta.HomeName = b.match.HomeName
	meta.AwayName = b.match.AwayName
	meta.Tag = b.match.Tag
	if b.result != nil {
		meta.HomeScore = b.result.HomeScore
		meta.AwayScore = b.result.AwayScore
		meta.Turns = b.result.Turns
	}
	return meta
}

func (b *Backend) writeJSON(path string, data ReplayExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data ReplayExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func safeName(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch r {
		case ' ', ':', '/', '\\':
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "team"
	}
	return string(out)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
