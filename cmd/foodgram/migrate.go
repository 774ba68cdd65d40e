package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/foodgram-backend/internal/repo"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and purge expired idempotency records and revoked tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := log.Logger.WithContext(cmd.Context())

			db, closeDB, err := a.openDB(ctx)
			if err != nil {
				log.Error().Err(err).Msg("migration failed")
				return err
			}
			defer closeDB()

			now := time.Now().UTC()
			keys, err := repo.PurgeExpiredIdempotency(ctx, db, now)
			if err != nil {
				return err
			}
			tokens, err := repo.PurgeRevokedTokens(ctx, db, now)
			if err != nil {
				return err
			}
			log.Info().
				Int64("idempotency_purged", keys).
				Int64("revoked_tokens_purged", tokens).
				Msg("migration completed")
			return nil
		},
	}
}
