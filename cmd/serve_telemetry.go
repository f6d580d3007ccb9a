package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Plantigo/plantigo-backend/pkg/cmd/server"
)

// serveTelemetryCmd represents the serve telemetry command
var serveTelemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Serve the telemetry ingestion pipeline and API",
	Run:   server.RunServeTelemetry(c),
}

func init() {
	serveCmd.AddCommand(serveTelemetryCmd)
}
