package main

import (
	"fmt"

	"go.uber.org/zap"

	"glowchat/internal/catalog"
	"glowchat/internal/config"
	"glowchat/internal/conversation"
	"glowchat/internal/gateway"
	"glowchat/internal/profile"
	"glowchat/internal/session"
)

// Persisted slot keys. One conversation per database for now.
const (
	conversationKey = "conversation"
	userContextKey  = "user_context"
)

// app wires the session dependencies from config.
type app struct {
	Session *session.Session
	backend *conversation.BoltBackend
}

func buildApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	backend, err := conversation.OpenBolt(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open state database %s: %w", cfg.Storage.Path, err)
	}

	store := conversation.NewStore(backend, conversationKey, cfg.Chat.HistoryLimit, log)
	store.Load()
	tracker := profile.NewTracker(backend, userContextKey, cfg.Chat.HistoryLimit, log)
	tracker.Load()

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	timeout, err := cfg.GatewayTimeout()
	if err != nil {
		backend.Close()
		return nil, err
	}
	gw := gateway.NewClient(gateway.Config{URL: cfg.Gateway.URL, Timeout: timeout}, log)

	sess := session.New(store, tracker, gw, cat, session.Options{
		SystemPrompt:   cfg.Chat.SystemPrompt,
		IncludeContext: cfg.Gateway.IncludeContext,
	}, log)

	return &app{Session: sess, backend: backend}, nil
}

func (a *app) Close() {
	_ = a.backend.Close()
}
