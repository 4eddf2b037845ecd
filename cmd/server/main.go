package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siggame/Cerveau-sub002/internal/engine"
	"github.com/siggame/Cerveau-sub002/internal/games"
	"github.com/siggame/Cerveau-sub002/internal/server"
	"github.com/siggame/Cerveau-sub002/internal/storage"
	"github.com/siggame/Cerveau-sub002/internal/version"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации: дефолты < YAML < окружение < флаги
	var (
		configPath string
		httpAddr   string
		tcpAddr    string
		gamelogDir string
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (defaults are used when empty)")
	flag.StringVar(&httpAddr, "http", "", "HTTP listen address (overrides config)")
	flag.StringVar(&tcpAddr, "tcp", "", "TCP listen address (overrides config)")
	flag.StringVar(&gamelogDir, "gamelogs", "", "Gamelog directory (overrides config)")
	flag.Parse()

	logger.Log.Info("Starting game server...")
	logger.Log.Info(version.String())

	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		logger.Log.Fatal("Failed to load config: ", err)
	}
	if env := os.Getenv("CERVEAU_HTTP_ADDR"); env != "" {
		cfg.HTTPAddr = env
	}
	if env := os.Getenv("CERVEAU_TCP_ADDR"); env != "" {
		cfg.TCPAddr = env
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if tcpAddr != "" {
		cfg.TCPAddr = tcpAddr
	}
	if gamelogDir != "" {
		cfg.GamelogDir = gamelogDir
	}
	logger.Log.Infof("Games available: %v", games.Names())

	// 2. Инициализация ядра
	store, err := storage.NewService(cfg.GamelogDir)
	if err != nil {
		logger.Log.Fatal("Failed to init gamelog storage: ", err)
	}
	lobby := server.NewLobby(store)

	// 3. Транспорты: сырой TCP и HTTP (websocket, статус, гейм-логи)
	ln, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		logger.Log.Fatal("Failed to listen on TCP addr: ", err)
	}
	tcpSrv := server.NewTCPServer(lobby)
	go func() {
		if err := tcpSrv.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Log.Fatal("TCP server error: ", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewRouter(lobby, store),
	}
	go func() {
		logger.Log.Infof("HTTP-поверхность слушает %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("HTTP server error: ", err)
		}
	}()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down...")
	if err := ln.Close(); err != nil {
		logger.Log.Warn("Closing TCP listener: ", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Log.Warn("HTTP shutdown: ", err)
	}
	logger.Log.Info("Done.")
}
