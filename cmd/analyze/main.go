// Command analyze runs the statement engine over one spreadsheet sheet and
// prints the resulting snapshot as JSON. Debugging tool: no AI classifier is
// wired, so classifications come from local rules only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/warren-fi/statement-engine/analysis"
	"github.com/warren-fi/statement-engine/classify"
	"github.com/warren-fi/statement-engine/grid"
)

func main() {
	var (
		path      = flag.String("file", "", "path to the .xlsx file (required)")
		sheet     = flag.String("sheet", "", "sheet name, defaults to the first sheet")
		statement = flag.String("type", string(classify.CashFlow), "statement type: balance_sheet, profit_loss or cash_flow")
		locale    = flag.String("locale", "es", "header locale hint")
		year      = flag.Int("year", 0, "context year for yearless period labels")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*path, *sheet, *statement, *locale, *year, logger); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(path, sheet, statement, locale string, year int, logger *slog.Logger) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	g, err := grid.FromSheet(f, sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	opts := analysis.DefaultOptions(classify.StatementType(statement))
	opts.Locale = locale
	opts.ContextYear = year
	opts.Logger = logger

	a, err := analysis.New(g, nil, opts)
	if err != nil {
		return err
	}

	snap, err := a.Run(context.Background())
	if err != nil {
		return err
	}

	if snap.NeedsYearContext {
		logger.Warn("period labels carry no year, pass -year to resolve them")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
