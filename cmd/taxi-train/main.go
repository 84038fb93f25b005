// Command taxi-train fits the fare model on one or more trip partitions and
// publishes the model together with its metrics record.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"

	"github.com/aware37/projet-big-data-cytech-25-taxi/internal/app"
	appjob "github.com/aware37/projet-big-data-cytech-25-taxi/internal/job"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the job...", sig)
		cancel()
	}()

	flags := app.NewFlags(flag.CommandLine, true)
	if err := flags.Parse(os.Args[1:]); err != nil {
		logger.Fatalf("Invalid arguments: %v", err)
	}
	settings, err := flags.Settings(appjob.TrainJobName, true)
	if err != nil {
		logger.Fatalf("Invalid arguments: %v", err)
	}

	fxApp := app.NewTrainApplication(ctx, settings)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
}
