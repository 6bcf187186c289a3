package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/bot"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "server base URL")
	token := flag.String("token", "dev-bot-token", "Telegram bot token shared with the server")
	players := flag.Int("players", 2, "number of scripted clients")
	bots := flag.Int("bots", 0, "number of server-side bot seats")
	mode := flag.String("mode", "podkidnoy", "game mode (podkidnoy, perevodnoy)")
	deck := flag.Int("deck", 36, "deck size (24 or 36)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, *token, *players, *bots, *mode, *deck)
	if err := orch.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Scripted game failed")
	}
	log.Info().Msg("Scripted game completed successfully")
}
