package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hexfoot/engine/internal/config"
	"github.com/hexfoot/engine/internal/influx"
	"github.com/hexfoot/engine/internal/monitor"
	"github.com/hexfoot/engine/internal/storage"
	"github.com/hexfoot/engine/internal/storage/memory"
	pgstorage "github.com/hexfoot/engine/internal/storage/postgres"
	sqlitestorage "github.com/hexfoot/engine/internal/storage/sqlite"
	wsstorage "github.com/hexfoot/engine/internal/storage/websocket"
)

// primaryBackend is the configured backend before any influx mirror is added.
var primaryBackend storage.Backend

func initStorage() error {
	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	primaryBackend = backend
	storageBackend = backend

	if storageCfg.Influx {
		influxManager = influx.NewManager(ZLogger, filepath.Join(viper.GetString("logsDir"), "influx_backup.log.gzip"))
		switch err := influxManager.Connect(); {
		case errors.Is(err, influx.ErrDisabled):
			influxManager = nil
		case err != nil:
			Logger.Warn("InfluxDB mirror disabled", "error", err)
			influxManager = nil
		default:
			storageBackend = storage.NewFanout(backend, influx.NewBackend(influxManager))
			Logger.Info("Mirroring match records to InfluxDB")
		}
	}

	if err := storageBackend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	Logger.Info("Storage ready", "type", storageCfg.Type)
	return nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.Connect(pgstorage.Dependencies{
			LogManager: SlogManager,
			Session:    matchSession,
			Version:    Version,
		})
		if err != nil {
			return nil, err
		}
		Logger.Info("Postgres storage backend initialized")
		return backend, nil

	case "sqlite":
		dumpPath := filepath.Join(
			viper.GetString("logsDir"),
			"recordings",
			fmt.Sprintf("%s_%s.db", ServiceName, sessionStart.Format("20060102_150405")),
		)
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, SlogManager, matchSession, Version)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", dumpPath)
		return backend, nil

	case "websocket":
		wsURL := storageCfg.WebSocket.URL
		if wsURL == "" {
			wsURL = httpToWS(viper.GetString("api.serverUrl")) + "/api/v1/stream"
		}
		secret := storageCfg.WebSocket.Secret
		if secret == "" {
			secret = viper.GetString("api.apiKey")
		}
		Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: secret,
		}, Logger), nil

	default:
		Logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil
	}
}

// writeQueues returns the backend's pending write queues for the status
// monitor, nil for backends that write synchronously.
func writeQueues() monitor.QueueReporter {
	if q, ok := primaryBackend.(monitor.QueueReporter); ok {
		return q
	}
	return nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
