package commands

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sheikh-saqib/iou-ledger/internal/client"
	"github.com/sheikh-saqib/iou-ledger/internal/config"
	"github.com/sheikh-saqib/iou-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/iou-ledger/internal/httpapi"
	interfaces "github.com/sheikh-saqib/iou-ledger/internal/interfaces"
	"github.com/sheikh-saqib/iou-ledger/internal/ledger"
	"github.com/sheikh-saqib/iou-ledger/internal/metrics"
	"github.com/sheikh-saqib/iou-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/iou-ledger/internal/storage/postgres"
)

var (
	conf    = config.NewDefaultConfig()
	envFile string
	logger  *logrus.Logger
)

func init() {
	RootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional .env file with IOU_* variables")
	RootCmd.Flags().String("http-addr", conf.HTTPAddr, "Listen IP:Port of the HTTP API")
	RootCmd.Flags().String("store", conf.Store, "IOU log backend (memory, postgres)")
	RootCmd.Flags().String("database-url", conf.DatabaseURL, "Postgres connection string")
	RootCmd.Flags().String("kafka-brokers", conf.KafkaBrokers, "Comma separated Kafka brokers, empty disables events")
	RootCmd.Flags().String("kafka-topic", conf.KafkaTopic, "Topic for IOU events")
	RootCmd.Flags().String("log-level", conf.LogLevel, "debug, info, warn, error, fatal, panic")
}

// RootCmd runs the IOU ledger server.
var RootCmd = &cobra.Command{
	Use:          "iou-ledger",
	Short:        "Shared IOU ledger with debt cycle netting",
	SilenceUsage: true,
	PreRunE:      loadConfig,
	RunE:         runServer,
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []ledger.Option{
		ledger.WithLogger(logger.WithField("component", "ledger")),
		ledger.WithMetrics(metrics.New(reg)),
	}
	if brokers := conf.Brokers(); len(brokers) > 0 {
		publisher := kafka.NewPublisher(brokers)
		defer publisher.Close()
		opts = append(opts, ledger.WithPublisher(publisher, conf.KafkaTopic))
	}

	ledgerService := ledger.NewLedger(store, opts...)
	n, err := ledgerService.Restore(ctx)
	if err != nil {
		return err
	}
	logger.WithField("ious", n).Info("Ledger restored from log")

	c := client.New(ledgerService, logger.WithField("component", "client"))
	api := httpapi.NewServer(ledgerService, c, reg, logger.WithField("component", "http"))

	srv := &http.Server{
		Addr:              conf.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", conf.HTTPAddr).Info("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context) (interfaces.IOUStore, func(), error) {
	if conf.Store != config.StorePostgres {
		return memory.NewMemoryIOUStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", conf.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := postgres.NewPostgresIOUStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	var err error
	conf, err = config.Load(v, envFile)
	if err != nil {
		return err
	}

	logger = conf.Logger()
	logger.WithFields(logrus.Fields{
		"http-addr":     conf.HTTPAddr,
		"store":         conf.Store,
		"kafka-brokers": conf.KafkaBrokers,
		"kafka-topic":   conf.KafkaTopic,
		"log-level":     conf.LogLevel,
	}).Debug("RUN")

	return nil
}
