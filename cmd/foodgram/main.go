// Command foodgram runs the Foodgram recipe-sharing API and its maintenance
// tasks (schema migration, catalog import).
//
// @title                      Foodgram API
// @version                    1.0
// @description                Recipe sharing: recipes, tags, ingredients, favorites, shopping cart and subscriptions.
// @BasePath                   /api
// @securityDefinitions.apikey TokenAuth
// @in                         header
// @name                       Authorization
// @description                Format: "Token {auth_token}"
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("foodgram")
		os.Exit(1)
	}
}
