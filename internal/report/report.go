// Package report renders game reviews as CSV and plain-text summaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/chessreview/internal/opening"
	"github.com/freeeve/chessreview/internal/review"
)

// BalanceMargin is how many accuracy points one side must lead by before
// the summary calls it the more accurate side.
const BalanceMargin = 5.0

// Summary is everything WriteText prints about one game.
type Summary struct {
	Title   string
	Opening *opening.Opening
	Review  *review.GameReview
}

var csvHeader = []string{
	"ply", "side", "move", "tag", "cp_loss", "swing",
	"eval_before", "eval_after", "best_move", "chart_before", "chart_after", "material_delta",
}

// WriteCSV writes one row per ply.
func WriteCSV(w io.Writer, r *review.GameReview) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range r.Plies {
		row := []string{
			strconv.Itoa(p.Ply),
			p.Side.String(),
			p.Move,
			string(p.Tag),
			strconv.Itoa(p.CPLoss),
			strconv.Itoa(p.Swing),
			p.EvalBefore.String(),
			p.EvalAfter.Negate().String(),
			p.BestMove,
			strconv.Itoa(p.ChartBefore),
			strconv.Itoa(p.ChartAfter),
			strconv.Itoa(p.MaterialDelta),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the CSV to path, zstd-compressed when path ends in .zst.
func WriteCSVFile(path string, r *review.GameReview) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".zst") {
		return WriteCSV(f, r)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := WriteCSV(zw, r); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Balance says which side played more accurately.
func Balance(white, black *review.AccuracyScore) string {
	switch {
	case white == nil || black == nil:
		return "Not enough moves to compare accuracy."
	case white.Accuracy > black.Accuracy+BalanceMargin:
		return "White played more accurately overall."
	case black.Accuracy > white.Accuracy+BalanceMargin:
		return "Black played more accurately overall."
	default:
		return "Accuracy was fairly balanced."
	}
}

// WriteText prints a human-readable summary: accuracy, tag counts and the
// key moments.
func WriteText(w io.Writer, s Summary) error {
	r := s.Review
	var b strings.Builder

	if s.Title != "" {
		fmt.Fprintf(&b, "%s\n", s.Title)
	}
	if s.Opening != nil {
		fmt.Fprintf(&b, "Opening: %s %s\n", s.Opening.ECO, s.Opening.Name)
	}
	b.WriteString("\n")

	for _, acc := range []*review.AccuracyScore{r.White, r.Black} {
		if acc == nil {
			continue
		}
		fmt.Fprintf(&b, "%-6s accuracy %5.1f  ACPL %4.0f  (%d moves)\n",
			capitalize(acc.Side.String()), acc.Accuracy, acc.ACPL, acc.Moves)
	}
	fmt.Fprintf(&b, "%s\n\n", Balance(r.White, r.Black))

	tags := []review.MoveTag{
		review.TagBrilliant, review.TagBest, review.TagExcellent, review.TagGood,
		review.TagInaccuracy, review.TagMistake, review.TagBlunder,
		review.TagMissedWin, review.TagMissedMate,
	}
	white, black := r.TagCounts(review.White), r.TagCounts(review.Black)
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tWhite\tBlack")
	for _, t := range tags {
		if white[t] == 0 && black[t] == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t, white[t], black[t])
	}
	tw.Flush()

	if len(r.KeyMoments) > 0 {
		b.WriteString("\nKey moments\n")
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, m := range r.KeyMoments {
			fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\tloss %d\tswing %+d\n",
				m.Rank, moveLabel(m.Ply, m.Side, m.Move), m.Tag, m.Reason, m.CPLoss, m.Swing)
		}
		tw.Flush()
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\n%d warning(s); first: ply %d %s\n", len(r.Warnings), r.Warnings[0].Ply, r.Warnings[0].Message)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// moveLabel formats "12. Nf3" or "12... Nf6".
func moveLabel(ply int, side review.Side, move string) string {
	n := (ply + 1) / 2
	if side == review.Black {
		return fmt.Sprintf("%d... %s", n, move)
	}
	return fmt.Sprintf("%d. %s", n, move)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
