package testlog

import (
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/hvalle/counterd/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Debug().Msgf("test=%s", t.Name())
}
