package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/importer"
	"github.com/pageza/recipebox/backend/internal/logging"
)

type options struct {
	dryRun    bool
	batchSize int
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "import_recipes",
		Short: "Import Meal-Master recipe files into the recipes table",
		Long: `import_recipes parses Meal-Master (.mmf) exports and stores every recipe
with site "MasterMeal". Imported files are moved into a Parsed/ folder next
to them so that re-running the import never stores a file twice.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "parse files without writing or moving anything")
	rootCmd.PersistentFlags().IntVar(&opts.batchSize, "batch-size", 100, "rows per insert statement")

	rootCmd.AddCommand(dirCmd(opts), s3Cmd(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func dirCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dir [path]",
		Short: "Import the files directly inside a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, func(*config.Config) (importer.Source, error) {
				return importer.DirSource{Root: args[0]}, nil
			})
		},
	}
}

func s3Cmd(opts *options) *cobra.Command {
	var bucket, prefix string
	cmd := &cobra.Command{
		Use:   "s3",
		Short: "Import the objects directly under an S3 prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return run(ctx, opts, func(cfg *config.Config) (importer.Source, error) {
				s3cfg, err := config.NewS3Config(ctx, cfg, bucket)
				if err != nil {
					return nil, err
				}
				return importer.S3Source{Client: s3cfg.Client, Bucket: s3cfg.BucketName, Prefix: prefix}, nil
			})
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket name (default S3_BUCKET_NAME)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix holding the files")
	return cmd
}

func run(ctx context.Context, opts *options, newSource func(*config.Config) (importer.Source, error)) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	var db *gorm.DB
	if !opts.dryRun {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	imp := importer.New(db, importer.WithBatchSize(opts.batchSize), importer.WithDryRun(opts.dryRun))
	res, err := imp.Run(ctx, src)
	printResult(res, opts.dryRun)
	return err
}

func printResult(res importer.Result, dryRun bool) {
	verb := "Imported"
	if dryRun {
		verb = "Parsed"
	}
	fmt.Printf("%s %s from %d of %d files\n",
		verb,
		color.New(color.FgHiGreen).Sprintf("%d recipes", res.Recipes),
		res.Imported, res.Files)
	if res.Skipped > 0 {
		fmt.Println(color.New(color.FgYellow).Sprintf("Skipped %d files that are not Meal-Master exports", res.Skipped))
	}
}
