// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API cache coherent with writes made by other processes. It holds a
// dedicated pgx connection (not from the pool) listening on two channels:
// `player_upserted`, fed by the players trigger, and `dashboards_refreshed`,
// raised after every materialized view refresh.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/gemscout-data/internal/config"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

var channels = []string{
	config.PlayerUpsertedChannel,
	config.DashboardsRefreshedChannel,
}

// PlayerEvent is the JSON payload from pg_notify('player_upserted', ...).
type PlayerEvent struct {
	FotmobID  int64  `json:"fotmob_id"`
	Op        string `json:"op"`
	Timestamp int64  `json:"ts"`
}

// Invalidator drops cached responses.
type Invalidator interface {
	InvalidatePlayer(externalID int64)
	InvalidatePlayerLists() int
}

// Start opens a dedicated connection and listens on both channels. It reconnects
// automatically on connection loss. Blocks until ctx is cancelled. Intended
// to be called with `go`.
func Start(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, inv, logger)
		if ctx.Err() != nil {
			logger.Info("Player listener stopped (context cancelled)")
			return
		}

		logger.Error("Player listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range channels {
		if _, err := conn.Exec(ctx, "LISTEN "+ch); err != nil {
			return fmt.Errorf("LISTEN %s: %w", ch, err)
		}
	}
	logger.Info("Player listener connected", "channels", channels)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(notification.Channel, notification.Payload, inv, logger)
	}
}

// Handle applies one notification. A refreshed view drops every cached list
// page; a player event drops that player's dashboard. Malformed payloads are
// logged and dropped.
func Handle(channel, payload string, inv Invalidator, logger *slog.Logger) {
	if channel == config.DashboardsRefreshedChannel {
		n := inv.InvalidatePlayerLists()
		logger.Debug("Dashboards refreshed", "views", payload, "dropped", n)
		return
	}

	var event PlayerEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse player event", "payload", payload, "error", err)
		return
	}
	if event.FotmobID <= 0 {
		logger.Warn("Player event without fotmob_id", "payload", payload)
		return
	}

	logger.Debug("Player event received", "fotmob_id", event.FotmobID, "op", event.Op)
	inv.InvalidatePlayer(event.FotmobID)
}
