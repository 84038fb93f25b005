// Command taxi-dashboard serves the trip analytics API over the warehouse.
package main

import (
	"context"
	"flag"
	"os"

	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"

	"github.com/aware37/projet-big-data-cytech-25-taxi/internal/app"
)

const serviceName = "taxi-dashboard"

func main() {
	flags := app.NewFlags(flag.CommandLine, false)
	if err := flags.Parse(os.Args[1:]); err != nil {
		logger.Fatalf("Invalid arguments: %v", err)
	}
	settings, err := flags.Settings(serviceName, false)
	if err != nil {
		logger.Fatalf("Invalid arguments: %v", err)
	}

	// fx stops the server on SIGINT and SIGTERM.
	fxApp := app.NewDashboardApplication(context.Background(), settings)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
}
