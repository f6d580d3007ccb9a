package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	nats "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Plantigo/plantigo-backend/config"
	"github.com/Plantigo/plantigo-backend/pkg/api"
	"github.com/Plantigo/plantigo-backend/pkg/events"
	"github.com/Plantigo/plantigo-backend/pkg/mqtt"
	"github.com/Plantigo/plantigo-backend/pkg/queue"
	queuememory "github.com/Plantigo/plantigo-backend/pkg/queue/memory"
	queueredis "github.com/Plantigo/plantigo-backend/pkg/queue/redis"
	"github.com/Plantigo/plantigo-backend/pkg/storage"
	"github.com/Plantigo/plantigo-backend/pkg/storage/memory"
	"github.com/Plantigo/plantigo-backend/pkg/storage/postgres"
	"github.com/Plantigo/plantigo-backend/pkg/telemetry"
)

const sensorDataPattern = "sensors/+/data"

type telemetryServer struct {
	quitCh chan bool
	doneCh chan bool

	c      *config.Config
	nc     *nats.Conn
	store  storage.Interface
	queue  queue.Queue
	router *mqtt.Router

	processorCancel context.CancelFunc
	processorDone   chan struct{}
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetLevel(log.InfoLevel)
}

func newTelemetryServer(c *config.Config) (*telemetryServer, error) {
	s := &telemetryServer{
		quitCh: make(chan bool),
		doneCh: make(chan bool),

		c:             c,
		processorDone: make(chan struct{}),
	}

	// NATS is optional: without it the pipeline still runs, only the
	// realtime event fan-out is disabled.
	nc, err := nats.Connect(c.NATSServerURL,
		nats.DrainTimeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1))
	if err != nil {
		log.Warnf("server: NATS unavailable, realtime events disabled: %s", err)
	} else {
		s.nc = nc
	}

	s.store, err = openStore(c)
	if err != nil {
		return nil, err
	}

	s.queue, err = openQueue(c)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func openStore(c *config.Config) (storage.Interface, error) {
	if c.DatabaseURL == "" {
		log.Warn("server: no DATABASE_URL configured, using in-memory storage")
		return memory.NewStore(), nil
	}

	db, err := sqlx.Open("postgres", c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return postgres.NewStore(db), nil
}

func openQueue(c *config.Config) (queue.Queue, error) {
	if c.RedisURL == "" {
		log.Warn("server: no REDIS_URL configured, using in-memory intake queue")
		return queuememory.NewQueue(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := queueredis.Connect(ctx, c.RedisURL)
	if err != nil {
		return nil, err
	}

	return queueredis.NewQueue(client, c.QueueKey), nil
}

func (s *telemetryServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	// Register API endpoints
	handler := api.NewHandler(s.nc, s.store, s.c.ActivityWindow)
	handler.RegisterRoutes(e)

	// Start the batch processor loop
	localZone, err := time.LoadLocation(s.c.LocalTimezone)
	if err != nil {
		log.Warnf("server: unknown timezone %q, falling back to UTC", s.c.LocalTimezone)
		localZone = time.UTC
	}

	processor := telemetry.NewProcessor(s.store, s.queue, events.NewPublisher(s.nc), telemetry.Config{
		BatchSize:      s.c.BatchSize,
		MaxRetries:     s.c.ProcessRetries,
		IdleDelay:      s.c.ProcessIdleDelay,
		ActivityWindow: s.c.ActivityWindow,
		LocalZone:      localZone,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.processorCancel = cancel
	go func() {
		defer close(s.processorDone)
		processor.Run(ctx)
	}()

	// Connect the MQTT ingress
	s.router = mqtt.NewRouter(mqtt.Options{
		BrokerURL: s.c.MQTTBrokerURL,
		Username:  s.c.MQTTUsername,
		Password:  s.c.MQTTPassword,
		ClientID:  s.c.MQTTClientID,
	})

	ingestor := telemetry.NewIngestor(s.queue)
	if err := s.router.Subscribe(sensorDataPattern, ingestor.HandleSensorData); err != nil {
		log.Error("server: failed to register sensor data route: ", err)
	}
	if err := s.router.Connect(5, 2*time.Second); err != nil {
		log.Error("server: MQTT ingress unavailable: ", err)
	}

	go func() {
		log.WithFields(log.Fields{
			"host": s.c.BindHost,
			"port": s.c.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.c.BindHost, s.c.BindPort)); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Stop the ingress first so no new entries arrive, then let the
	// processor finish its in-flight cycle.
	if s.router != nil {
		s.router.Close()
	}

	s.processorCancel()
	select {
	case <-s.processorDone:
	case <-time.After(10 * time.Second):
		log.Error("Batch processor did not stop in time")
	}

	// Create a 10 second timeout context
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

// Logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			reqSizeStr := req.Header.Get(echo.HeaderContentLength)
			if reqSizeStr == "" {
				reqSizeStr = "0"
			}
			reqSize, err := strconv.ParseInt(reqSizeStr, 10, 0)
			if err != nil {
				reqSize = -1
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"protocol":      req.Proto,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"referer":       req.Referer(),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

func (s *telemetryServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}
}

func RunServeTelemetry(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newTelemetryServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
