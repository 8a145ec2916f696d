package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/wipetrace/internal/api"
	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/utils/logger"
)

var (
	serveAddr      string = ":8080"
	serveUploadDir string = "uploads"
)

func createServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the upload/scan/results HTTP API",
		RunE:  executeServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&serveUploadDir, "upload-dir", "uploads", "directory for uploaded images and result documents")

	return cmd
}

func executeServe(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	srv, err := api.NewServer(config.Default(), serveUploadDir)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	log.Infof("listening on %s, uploads stored under %s", serveAddr, serveUploadDir)
	return http.ListenAndServe(serveAddr, srv.Handler())
}
