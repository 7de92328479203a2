package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/booklearn/internal/config"
	"github.com/mrlokans/booklearn/internal/entrypoint"
)

// RecountCommand recomputes totalQuestions from the stored questions.
type RecountCommand struct {
	DatabasePath string
	ChapterIDs   []string

	cfg *config.Config
}

func NewRecountCommand(cfg *config.Config) *RecountCommand {
	return &RecountCommand{cfg: cfg}
}

func (cmd *RecountCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("recount", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the SQLite database (ignored with DATABASE_DRIVER=mongo)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s recount [-db <path>] [chapterId...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Repair chapter question counts. Without chapter IDs every chapter is checked.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.ChapterIDs = fs.Args()
	return nil
}

func (cmd *RecountCommand) Run() error {
	cmd.cfg.Database.Path = cmd.DatabasePath

	ctx := context.Background()
	backend, err := entrypoint.Open(ctx, cmd.cfg)
	if err != nil {
		return err
	}
	defer backend.Close(ctx)

	repaired, err := backend.Library.RecountQuestions(ctx, cmd.ChapterIDs...)
	if err != nil {
		return fmt.Errorf("recount failed: %w", err)
	}
	fmt.Printf("Question counts repaired on %d chapters\n", repaired)
	return nil
}
