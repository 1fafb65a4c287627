// Package opening names the opening of a game from an ECO book.
package opening

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// Opening is an ECO classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
	Ply  int    `json:"ply,omitempty"` // game ply at which the book position was reached
}

// Book holds ECO openings indexed by position. It is read-only after
// loading.
type Book struct {
	byPosition map[pgn.PackedPosition]Opening
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{byPosition: make(map[pgn.PackedPosition]Opening)}
}

// moveNumberRegex matches move numbers like "1." or "12..."
var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

// LoadDir loads all .tsv files from a directory.
func (b *Book) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .tsv files found in %s", dir)
	}
	for _, file := range files {
		if _, err := b.LoadFile(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile reads eco<TAB>name<TAB>moves lines and returns how many were
// added. Lines whose moves do not replay are skipped.
func (b *Book) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	added := 0
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Text()
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		pos := pgn.NewStartingPosition()
		ok := true
		for _, san := range sanTokens(parts[2]) {
			if err := applySAN(pos, san); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		b.byPosition[pos.Pack()] = Opening{ECO: parts[0], Name: parts[1]}
		added++
	}
	return added, scanner.Err()
}

// sanTokens strips move numbers and annotations: "1. e4 e5 2. Nf3" -> [e4 e5 Nf3].
func sanTokens(moves string) []string {
	cleaned := moveNumberRegex.ReplaceAllString(moves, "")
	var out []string
	for _, san := range strings.Fields(cleaned) {
		if san[0] == '$' || san[0] == '{' {
			continue
		}
		out = append(out, san)
	}
	return out
}

// applySAN plays one SAN move on pos.
func applySAN(pos *pgn.GameState, san string) error {
	san = strings.TrimRight(san, "+#!?")
	mv, err := pgn.ParseSAN(pos, san)
	if err != nil {
		return fmt.Errorf("parse %q: %w", san, err)
	}
	if err := pgn.ApplyMove(pos, mv); err != nil {
		return fmt.Errorf("apply %q: %w", san, err)
	}
	return nil
}

// Identify replays sans from the initial position and returns the deepest
// book position reached, or nil.
func (b *Book) Identify(sans []string) *Opening {
	var found *Opening
	pos := pgn.NewStartingPosition()
	for i, san := range sans {
		if err := applySAN(pos, san); err != nil {
			break
		}
		if o, ok := b.byPosition[pos.Pack()]; ok {
			o.Ply = i + 1
			found = &o
		}
	}
	return found
}

// Count returns the number of book positions.
func (b *Book) Count() int {
	return len(b.byPosition)
}
