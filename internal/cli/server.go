package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-host-service/internal/config"
	"trivia-host-service/internal/dispatch"
	"trivia-host-service/internal/game"
	"trivia-host-service/internal/infra/memory"
	pgbank "trivia-host-service/internal/infra/postgres"
	redisstore "trivia-host-service/internal/infra/redis"
	"trivia-host-service/internal/store"
	"trivia-host-service/internal/transport/ws"
	"trivia-host-service/internal/trivia"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia host server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 4*time.Hour)

	var rooms store.RoomStore
	var teams store.TeamStore
	var conns store.ConnectionStore
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, redisTTL)
		teams = redisstore.NewTeamStore(redisClient, redisTTL)
		conns = redisstore.NewConnectionStore(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomStore()
		teams = memory.NewTeamStore()
		conns = memory.NewConnectionStore()
	}

	var source game.QuestionSource
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		source = pgbank.NewQuestionBank(pool)
	} else {
		catTTL := config.TTLDuration(cfg.Trivia.CategoryTTL, time.Hour)
		source = trivia.NewClient(cfg.Trivia.BaseURL, catTTL)
	}

	builder := game.NewRoundBuilder(source)
	roomManager := game.NewRoomManager(rooms, teams, builder, cfg.Game.RoomCodeLength, game.ScoreSort(cfg.Game.ScoreSort))
	sequencer := game.NewSequencer(rooms, cfg.Game.QuestionExpirySeconds)
	teamRegistry := game.NewTeamRegistry(rooms, teams)

	hub := ws.NewHub()
	dispatcher := dispatch.NewDispatcher(roomManager, sequencer, teamRegistry, conns, hub)
	wsHandler := ws.NewHandler(dispatcher, conns, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia host on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
