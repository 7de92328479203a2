package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/booklearn/internal/config"
	"github.com/mrlokans/booklearn/internal/entrypoint"
	"github.com/mrlokans/booklearn/internal/importers"
)

// ImportCommand loads a structured workbook into the configured store.
type ImportCommand struct {
	WorkbookPath string
	DatabasePath string
	Verbose      bool
	DryRun       bool

	cfg *config.Config
}

func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{cfg: cfg}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVar(&cmd.WorkbookPath, "file", cmd.cfg.Import.SourcePath, "Path to the .xlsx workbook with Books, Parts, Chapters and Questions sheets")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the SQLite database (ignored with DATABASE_DRIVER=mongo)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every skipped row")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse and validate without writing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [-file <path>] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import books, parts, chapters and questions from a workbook.\n")
		fmt.Fprintf(os.Stderr, "Existing records are updated in place, so the import can be re-run.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file Structured_Book_Data.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file Structured_Book_Data.xlsx -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.WorkbookPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Workbook Import")
	fmt.Println("===============")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	if _, err := os.Stat(cmd.WorkbookPath); os.IsNotExist(err) {
		return fmt.Errorf("workbook not found: %s", cmd.WorkbookPath)
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.cfg.Database.Path = absDBPath

	ctx := context.Background()
	backend, err := entrypoint.Open(ctx, cmd.cfg)
	if err != nil {
		return err
	}
	defer backend.Close(ctx)

	fmt.Printf("File: %s\n", cmd.WorkbookPath)
	result, err := backend.Importer.ImportFile(ctx, cmd.WorkbookPath, importers.Options{DryRun: cmd.DryRun})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	printResult(result, cmd.Verbose)

	if cmd.DryRun {
		fmt.Println("\nDry run complete. Use without -dry-run to import.")
	}
	return nil
}

func printResult(result importers.Result, verbose bool) {
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("%-10s %8s %8s %8s %10s\n", "", "parsed", "created", "updated", "unchanged")
	rows := []struct {
		name string
		c    importers.Counts
	}{
		{"Books", result.Books},
		{"Parts", result.Parts},
		{"Chapters", result.Chapters},
		{"Questions", result.Questions},
	}
	for _, r := range rows {
		fmt.Printf("%-10s %8d %8d %8d %10d\n", r.name, r.c.Parsed, r.c.Created, r.c.Updated, r.c.Unchanged)
	}
	if result.Recounted > 0 {
		fmt.Printf("\nQuestion counts repaired on %d chapters\n", result.Recounted)
	}

	if len(result.Skipped) == 0 {
		return
	}
	fmt.Printf("\n%d rows skipped\n", len(result.Skipped))
	if !verbose {
		fmt.Println("Use -verbose to list them")
		return
	}
	for _, row := range result.Skipped {
		fmt.Printf("  [SKIP] %s row %d %s: %s\n", row.Sheet, row.Row, row.ID, row.Reason)
	}
}
