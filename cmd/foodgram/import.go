package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/foodgram-backend/internal/services"
)

// newImportCmd builds import-ingredients or import-tags. Both read one file
// whose extension selects the format and are safe to rerun.
func newImportCmd(a *app, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.Logger.WithContext(cmd.Context())
			path := args[0]
			format, err := services.FormatFromPath(path)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			db, closeDB, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			im := &services.Importer{DB: db}
			var run func(context.Context, io.Reader, string) (services.ImportReport, error)
			switch use {
			case "import-ingredients":
				im.Catalog = services.NewCatalogService(db)
				run = im.Ingredients
			case "import-tags":
				run = im.Tags
			default:
				return fmt.Errorf("unknown import %q", use)
			}

			rep, err := run(ctx, f, format)
			if err != nil {
				return fmt.Errorf("%s %s: %w", use, path, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created=%d existed=%d invalid=%d\n", rep.Created, rep.Existed, rep.Invalid)
			return err
		},
	}
}
