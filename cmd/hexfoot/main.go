package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/hexfoot/engine/internal/api"
	"github.com/hexfoot/engine/internal/cache"
	"github.com/hexfoot/engine/internal/config"
	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/influx"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/match"
	"github.com/hexfoot/engine/internal/monitor"
	intOtel "github.com/hexfoot/engine/internal/otel"
	"github.com/hexfoot/engine/internal/parser"
	"github.com/hexfoot/engine/internal/pitch"
	"github.com/hexfoot/engine/internal/roster"
	"github.com/hexfoot/engine/internal/session"
	"github.com/hexfoot/engine/internal/storage"
	"github.com/hexfoot/engine/internal/transport"
	"github.com/hexfoot/engine/internal/worker"
	"github.com/hexfoot/engine/pkg/core"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const ServiceName = "hexfoot"

// globals shared by the subcommands
var (
	env          config.Env
	sessionStart = time.Now()

	SlogManager  *logging.SlogManager
	Logger       *slog.Logger
	ZLogger      zerolog.Logger
	OTelProvider *intOtel.Provider

	logFile     *os.File
	metricsFile *os.File
	gelfWriter  io.Closer

	// Services
	matchSession    *session.Context
	tokenCache      = cache.NewTokenCache()
	parserService   *parser.Parser
	eventDispatcher *dispatcher.Dispatcher
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager
	storageBackend  storage.Backend
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s <command> [args]

commands:
  serve                 play one match over HTTP/WebSocket (default)
  play                  play one match on stdin/stdout
  replay <matchId>...   print recorded matches from the database
  list [n]              list the n most recent recorded matches
  version               print version information
`, ServiceName)
}

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command = strings.ToLower(args[0])
		args = args[1:]
	}

	var err error
	switch command {
	case "serve":
		err = runMatch(false)
	case "play":
		err = runMatch(true)
	case "replay":
		err = runReplay(args)
	case "list":
		err = runList(args)
	case "version":
		fmt.Printf("%s %s (built %s)\n", ServiceName, Version, BuildDate)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and starts logging. console keeps log output
// off stdout for the interactive mode.
func setup(console bool) error {
	if err := config.ParseEnv(&env); err != nil {
		return err
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(os.Stderr, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(env.ConfigDir); err != nil {
		config.LoadDefaults()
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}
	if env.Listen != "" {
		viper.Set("transport.listen", env.Listen)
	}
	if env.LogLevel != "" {
		viper.Set("logLevel", env.LogLevel)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, ServiceName, sessionStart)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	var err error
	logFile, err = os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logPath)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && logFile != nil {
		metricsPath := strings.TrimSuffix(logPath, ".log") + ".metrics.json"
		metricsFile, err = os.OpenFile(metricsPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
		if err != nil {
			Logger.Warn("OTel metrics disabled", "error", err, "path", metricsPath)
			metricsFile = nil
		}
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
			MetricWriter:   metricsWriter(),
			MetricInterval: otelCfg.MetricInterval,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", logPath, "endpoint", otelCfg.Endpoint)
		}
	}

	var extra []slog.Handler
	if viper.GetBool("graylog.enabled") {
		h, w, err := logging.NewGelfHandler(viper.GetString("graylog.address"), viper.GetString("logLevel"))
		if err != nil {
			Logger.Warn("Graylog disabled", "error", err)
		} else {
			extra = append(extra, h)
			gelfWriter = w
		}
	}

	// records carry the live match phase once a match is running
	SlogManager.SetMatchProvider(func() []slog.Attr {
		if workerManager == nil {
			return nil
		}
		if e := workerManager.Engine(); e != nil {
			return e.LogAttrs()
		}
		return nil
	})

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	var out io.Writer = logFile
	if logFile == nil {
		out = os.Stderr
	} else if !console {
		out = io.MultiWriter(logFile, os.Stderr)
	}
	SlogManager.Setup(out, viper.GetString("logLevel"), otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logPath, "version", Version)

	zlevel, err := zerolog.ParseLevel(viper.GetString("logLevel"))
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	var zout io.Writer = os.Stderr
	if logFile != nil {
		zout = logFile
	}
	ZLogger = zerolog.New(zout).Level(zlevel).With().Timestamp().Str("service", ServiceName).Logger()
	return nil
}

// metricsWriter keeps a nil file from becoming a non-nil io.Writer.
func metricsWriter() io.Writer {
	if metricsFile == nil {
		return nil
	}
	return metricsFile
}

func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if gelfWriter != nil {
		_ = gelfWriter.Close()
	}
	if metricsFile != nil {
		_ = metricsFile.Close()
	}
	if logFile != nil {
		_ = logFile.Close()
	}
}

// newEngine builds the pitch from the roster and the engine on top of it.
func newEngine() (*match.Engine, *core.Match, error) {
	boardCfg := config.GetBoardConfig()
	board, err := hexboard.NewBoard(hexboard.Config{
		HalfWidth:  boardCfg.HalfWidth,
		HalfHeight: boardCfg.HalfHeight,
	})
	if err != nil {
		return nil, nil, err
	}

	r := roster.Default()
	if path := viper.GetString("rosterFile"); path != "" {
		r, err = roster.Load(path)
		if err != nil {
			return nil, nil, err
		}
		Logger.Info("Loaded roster", "path", path, "home", r.Home.Name, "away", r.Away.Name)
	}

	homeEnd := viper.GetInt("homeEnd")
	if homeEnd != -1 {
		homeEnd = 1
	}
	p, err := r.Pitch(board, homeEnd, pitch.Home)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to line up teams: %w", err)
	}

	seed := viper.GetInt64("seed")
	if seed == 0 {
		if seed, err = dice.NewSeed(); err != nil {
			return nil, nil, err
		}
	}
	roller, err := dice.NewEngine(seed)
	if err != nil {
		return nil, nil, err
	}

	e, err := match.New(p, match.Config{
		Difficulty: viper.GetInt("difficulty"),
		MaxTurns:   viper.GetInt("maxTurns"),
		Roller:     roller,
		Logger:     Logger,
	})
	if err != nil {
		return nil, nil, err
	}

	info := &core.Match{
		StartTime:       time.Now(),
		Seed:            seed,
		Difficulty:      viper.GetInt("difficulty"),
		HomeName:        r.Home.Name,
		AwayName:        r.Away.Name,
		HomeEnd:         homeEnd,
		BoardHalfWidth:  boardCfg.HalfWidth,
		BoardHalfHeight: boardCfg.HalfHeight,
		EngineVersion:   Version,
		Tag:             viper.GetString("defaultTag"),
	}
	return e, info, nil
}

// runMatch plays exactly one match, over the network or on the terminal.
func runMatch(interactive bool) error {
	if err := setup(interactive); err != nil {
		return err
	}
	defer teardown()

	matchSession = session.NewContext()

	var err error
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(ZLogger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	var keys *cache.KeyMap
	if bindings := viper.GetStringMapString("keys"); len(bindings) > 0 {
		keys = cache.NewKeyMap(bindings)
	}
	parserService = parser.NewParser(Logger, keys)

	if err := initStorage(); err != nil {
		return err
	}
	defer func() {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
		if influxManager != nil {
			if err := influxManager.Close(); err != nil {
				Logger.Warn("Failed to close influx", "error", err)
			}
		}
	}()

	workerManager = worker.NewManager(worker.Dependencies{
		TokenCache:    tokenCache,
		LogManager:    SlogManager,
		ParserService: parserService,
		Session:       matchSession,
	}, storageBackend)
	workerManager.RegisterHandlers(eventDispatcher)
	Logger.Debug("Worker handlers registered with dispatcher", "commands", len(eventDispatcher.Commands()))

	e, info, err := newEngine()
	if err != nil {
		return err
	}
	if err := workerManager.StartMatch(e, info); err != nil {
		return err
	}

	monitorService = monitor.NewService(monitor.Dependencies{
		LogManager:  SlogManager,
		Session:     matchSession,
		Worker:      workerManager,
		Dispatcher:  eventDispatcher,
		WriteQueues: writeQueues(),
		Influx:      influxManager,
		StatusFile:  filepath.Join(viper.GetString("logsDir"), "status.txt"),
		Interval:    viper.GetDuration("monitor.interval"),
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interactive {
		err = play(ctx, os.Stdin, os.Stdout)
	} else {
		err = serve(ctx)
	}
	if err != nil {
		Logger.Error("Match interrupted", "error", err)
	}

	monitorService.Stop()
	// recorder queues drain before the result is written
	eventDispatcher.Close()
	result, endErr := workerManager.EndMatch()
	if endErr != nil {
		Logger.Error("Failed to end match", "error", endErr)
	} else if interactive {
		fmt.Printf("full time: %d-%d after %d turns\n", result.HomeScore, result.AwayScore, result.Turns)
	}

	uploadRecording()
	return errors.Join(err, endErr)
}

// serve runs the transport until full time or a signal.
func serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-workerManager.Done():
			Logger.Info("Full time")
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := transport.New(viper.GetString("transport.listen"), eventDispatcher, parserService, Logger)
	return srv.Run(ctx)
}

// uploadRecording sends the exported file to the web frontend when the
// backend produced one and an API key is configured.
func uploadRecording() {
	apiKey := viper.GetString("api.apiKey")
	if apiKey == "" {
		return
	}
	var u storage.Uploadable
	switch b := storageBackend.(type) {
	case *storage.Fanout:
		var ok bool
		if u, ok = b.Uploadable(); !ok {
			return
		}
	case storage.Uploadable:
		u = b
	default:
		return
	}

	client := api.New(viper.GetString("api.serverUrl"), apiKey)
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Web frontend unavailable, recording kept locally", "error", err, "path", u.GetExportedFilePath())
		return
	}
	if err := client.UploadExport(u); err != nil {
		Logger.Error("Failed to upload recording", "error", err, "path", u.GetExportedFilePath())
		return
	}
	Logger.Info("Recording uploaded", "path", u.GetExportedFilePath())
}
