package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	fchat "github.com/feathrs/fchat-go"
	"github.com/feathrs/fchat-go/protocol"
	"github.com/joho/godotenv"
)

// printListener logs ready, message, system-message, disconnect and
// session-error notifications via the default logger; every other callback
// keeps NoopListener's behaviour.
type printListener struct {
	fchat.NoopListener
}

func (printListener) Ready(session *fchat.Session) {
	slog.Info("session ready", "character", session.Character().String())
}

func (printListener) Message(session *fchat.Session, source fchat.Character, target fchat.MessageChannel, content fchat.MessageContent) {
	if target.IsPrivateMessage() {
		slog.Info("private message", "from", source.String(), "text", content.Text())
		return
	}
	slog.Info("channel message", "channel", target.Channel().String(), "from", source.String(), "text", content.Text())
}

func (printListener) SystemMessage(session *fchat.Session, channel fchat.Channel, message string) {
	slog.Info("system message", "channel", channel.String(), "message", message)
}

func (printListener) SessionDisconnected(session *fchat.Session, err protocol.ErrorCode) {
	slog.Warn("session disconnected", "character", session.Character().String(), "code", err.String())
}

func (printListener) SessionError(session *fchat.Session, err error) {
	slog.Error("session error", "err", err)
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	account := os.Getenv("FCHAT_ACCOUNT")
	password := os.Getenv("FCHAT_PASSWORD")
	if account == "" || password == "" {
		log.Fatal("FCHAT_ACCOUNT and FCHAT_PASSWORD must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fchat.New(printListener{}, fchat.WithCache(fchat.NewMemoryCache()))

	if err := client.Init(ctx, account, password); err != nil {
		log.Fatalf("init: %v", err)
	}

	character := client.DefaultCharacter()
	if name := os.Getenv("FCHAT_CHARACTER"); name != "" {
		character = fchat.NewCharacter(name)
	}

	session, err := client.Connect(ctx, character)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	if channel := os.Getenv("FCHAT_CHANNEL"); channel != "" {
		if err := session.JoinChannel(ctx, fchat.NewChannel(channel)); err != nil {
			slog.Error("join channel failed", "err", err)
		}
	}

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("run: %v", err)
	}
}
