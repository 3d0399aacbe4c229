// cmd/server/main.go
package main

import (
	"log"
	"log/slog"

	"github.com/sozercan/mail-ai-mole/internal/analyzer"
	"github.com/sozercan/mail-ai-mole/internal/config"
	"github.com/sozercan/mail-ai-mole/internal/server"
	"github.com/sozercan/mail-ai-mole/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions := session.NewManager(cfg.Session, cfg.History)
	stop := make(chan struct{})
	defer close(stop)
	sessions.StartJanitor(stop)

	srv := server.New(*cfg, analyzer.New(), sessions)
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
