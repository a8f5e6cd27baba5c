package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/escapeplan/board"
	"github.com/wfunc/escapeplan/broadcast"
	"github.com/wfunc/escapeplan/config"
	"github.com/wfunc/escapeplan/game"
	"github.com/wfunc/escapeplan/logger"
	"github.com/wfunc/escapeplan/monitor"
	"github.com/wfunc/escapeplan/persistence"
	"github.com/wfunc/escapeplan/room"
	"github.com/wfunc/escapeplan/server"
	"github.com/wfunc/escapeplan/services"
	"github.com/wfunc/escapeplan/session"
)

func main() {
	logger.Init("info")

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Re-initialize logger at the configured level
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	// Build the first board; a layout that cannot be generated is a configuration error
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator, err := board.NewGenerator(cfg.Game.GridSize, cfg.Game.ObstacleCount, cfg.Game.MaxBoardAttempts, rng)
	if err != nil {
		logger.Log.Fatalf("Invalid board settings: %v", err)
	}
	engine, err := game.NewEngine(generator, cfg.Game.TurnDuration, time.Now())
	if err != nil {
		logger.Log.Fatalf("Failed to generate a board: %v", err)
	}
	logger.Log.Infof("Initial %dx%d board ready after %d attempts",
		cfg.Game.GridSize, cfg.Game.GridSize, engine.LastAttempts())

	// Initialize round archive
	archive, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open round archive: %v", err)
	}
	defer archive.Close()
	logger.Log.Infof("Round archive: %s", cfg.Database.Driver)

	mon := monitor.NewMonitor("escapeplan")
	mon.ObserveBoardAttempts(engine.LastAttempts())

	sessions := session.NewManager()
	gameRoom := room.NewRoom("main", engine, sessions, broadcast.NewSessionBroadcaster(sessions, mon),
		room.WithHeartbeat(cfg.Game.HeartbeatInterval),
		room.WithNicknameMax(cfg.Game.NicknameMaxLength),
		room.WithMonitor(mon),
		room.WithArchive(archive),
		room.WithRand(rand.New(rand.NewSource(rng.Int63()))),
	)

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg.Server, gameRoom, sessions,
		services.NewStatsService(gameRoom, archive), mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.Log.Info("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown error: %v", err)
		}
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
	gameRoom.Close()
}
