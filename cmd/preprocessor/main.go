// cmd/preprocessor/main.go

package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("rex-preprocessor failed")
		os.Exit(1)
	}
}
