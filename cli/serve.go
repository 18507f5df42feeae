package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"waggle_server/config"
	"waggle_server/routes"
	"waggle_server/socket"

	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var withStream bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, Socket.IO hub and optional like stream consumer",
		Long: `Start the Waggle match server.

The HTTP API exposes swipe, match, notification and webhook trigger routes. With --stream
(or STREAM_ENABLED=true) the server also tails the DogSwipes table stream
and runs every like change through the match pipeline.

Example:
  waggle serve
  waggle serve --stream`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("stream") {
				cfg.StreamEnabled = withStream
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&withStream, "stream", false, "consume the DogSwipes table stream")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket server stopped: %v", err)
		}
	}()
	defer socketServer.Close()
	app.Notifier.Broadcaster = &socket.MatchHub{Server: socketServer}

	if cfg.StreamEnabled {
		consumer, err := app.StreamConsumer(ctx)
		if err != nil {
			return err
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("❌ Like stream consumer stopped: %v", err)
			}
		}()
	}

	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterActionRoutes(r, app.Likes)
	routes.RegisterMatchRoutes(r, app.Matches)
	routes.RegisterNotificationRoutes(r, app.Notifications)
	routes.RegisterTriggerRoutes(r, app.Coordinator, cfg.HandlerTimeout)
	r.Handle("/socket.io/", socketServer)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("❌ Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Starting server on port %s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("Server stopped")
	return nil
}

func streamStart(position string) streamtypes.ShardIteratorType {
	if position == string(streamtypes.ShardIteratorTypeTrimHorizon) {
		return streamtypes.ShardIteratorTypeTrimHorizon
	}
	return streamtypes.ShardIteratorTypeLatest
}
