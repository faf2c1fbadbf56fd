package cmd

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/armadaproject/dataservice-client/internal/common/app"
	"github.com/armadaproject/dataservice-client/internal/common/armadacontext"
	commonconfig "github.com/armadaproject/dataservice-client/internal/common/config"
	"github.com/armadaproject/dataservice-client/internal/common/task"
	"github.com/armadaproject/dataservice-client/ingest"
	"github.com/armadaproject/dataservice-client/rpc"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Streams the configured dataset to stdout-rate logging until the job drains",
		RunE:  runDataserviceClient,
	}
	return cmd
}

func runDataserviceClient(_ *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if err := commonconfig.Validate(config.Dataset); err != nil {
		commonconfig.LogValidationErrors(err)
		return err
	}

	goCtx := app.CreateContextWithShutdown()
	ctx := armadacontext.WithLogField(armadacontext.New(goCtx, logrus.NewEntry(logrus.New())), "runId", uuid.New().String())
	ctx = armadacontext.WithLogFields(ctx, logrus.Fields{
		"datasetId": config.Dataset.DatasetID,
		"address":   config.Dataset.Address,
	})

	dialer := rpc.NewDialer()
	iter, err := ingest.NewIterator(ctx, config.Dataset, dialer, ctx.Log)
	if err != nil {
		return err
	}
	defer func() {
		if err := iter.Close(armadacontext.Background()); err != nil {
			ctx.Log.WithError(err).Warn("error closing iterator")
		}
	}()

	var elementsRead int64

	taskManager := task.NewBackgroundTaskManager("dataservice_client_")
	if config.StatsIntervalSeconds > 0 {
		taskManager.Register(func() {
			ctx.Log.Infof("elements read: %d", atomic.LoadInt64(&elementsRead))
		}, time.Duration(config.StatsIntervalSeconds)*time.Second, "stats")
	}
	defer taskManager.StopAll(5 * time.Second)

	for {
		_, endOfSequence, err := iter.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				ctx.Log.Info("shutting down")
				return nil
			}
			return err
		}
		if endOfSequence {
			ctx.Log.Infof("dataset drained, elements read: %d", atomic.LoadInt64(&elementsRead))
			return nil
		}
		atomic.AddInt64(&elementsRead, 1)
	}
}
