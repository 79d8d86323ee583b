package main

import (
	"os"

	"github.com/yigit/classroom/internal/config"
	"github.com/yigit/classroom/internal/pkg/logger"
	"github.com/yigit/classroom/internal/server"
)

func main() {
	srv, err := server.NewServer(config.CourseService)
	if err != nil {
		// details were logged by the setup steps
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
