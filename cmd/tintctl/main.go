package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("tintctl v%s\n", version)
	fmt.Println("Color correction profile editor for the tint overlay service")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  tintctl [OPTIONS]")
	fmt.Println("  tintctl service-sim [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Edits the color correction profile bound to the current performance")
	fmt.Println("  mode. Changes are pushed to the tint service after a short quiet")
	fmt.Println("  period and saved to the profile store on exit.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (optional; defaults are used when omitted)")
	fmt.Println()
	fmt.Println("  -ws-url string")
	fmt.Println("        Tint service websocket URL (default \"ws://127.0.0.1:7438/tint\")")
	fmt.Println()
	fmt.Println("  -ws-timeout-ms int")
	fmt.Printf("        Timeout for websocket responses in ms (default %d)\n", defaultReadTimeoutMS)
	fmt.Println()
	fmt.Println("  -tick-hz int")
	fmt.Printf("        Session tick rate in Hz (default %d)\n", defaultTickHz)
	fmt.Println()
	fmt.Println("  -debounce-ticks int")
	fmt.Printf("        Quiet ticks before a change is applied (default %d)\n", defaultDebounceTicks)
	fmt.Println()
	fmt.Println("  -store-backend string")
	fmt.Println("        Profile store backend: yaml|sqlite (default \"yaml\")")
	fmt.Println()
	fmt.Println("  -store-path string")
	fmt.Println("        Profile store path (default \"~/.config/tintctl/profiles.yaml\")")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC; empty disables (default \"/tmp/tintctl.sock\")")
	fmt.Println()
	fmt.Println("  -input-device string")
	fmt.Println("        Linux input event device for hardware buttons (e.g. /dev/input/event3)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -log-file string")
	fmt.Println("        Log file used while the terminal UI is running (default \"/tmp/tintctl.log\")")
	fmt.Println()
	fmt.Println("  -headless")
	fmt.Println("        Run without the terminal UI; log to stdout and take input from IPC/devices")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("SUBCOMMANDS:")
	fmt.Println("  service-sim")
	fmt.Println("        Run an in-process tint service simulator")
	fmt.Println("        Options: -config, -listen, -performance-mode, -log-level")
	fmt.Println()
	fmt.Println("KEYS:")
	fmt.Println("  up/down      select item")
	fmt.Println("  left/right   adjust the selected parameter")
	fmt.Println("  y/backspace  reset the selected parameter")
	fmt.Println("  a/enter      toggle correction, toggle range, or reset all")
	fmt.Println("  b/q/esc      quit")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start a simulator and edit against it")
	fmt.Println("  tintctl service-sim &")
	fmt.Println("  tintctl")
	fmt.Println()
	fmt.Println("  # Drive a headless session from a script")
	fmt.Println("  tintctl -headless &")
	fmt.Println("  tint-send set gamma 40")
	fmt.Println()
}

// loadConfig builds the effective config: defaults, then the optional file,
// then explicitly set flags.
func loadConfig(path string, overrides FlagOverrides) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setFlags returns the names of flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "service-sim" {
		runSimSubcommand()
		return
	}

	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath    = flag.String("config", "", "YAML config file")
		wsURL         = flag.String("ws-url", "", "Tint service websocket URL")
		wsTimeoutMS   = flag.Int("ws-timeout-ms", 0, "Timeout in milliseconds for reading websocket responses")
		tickHz        = flag.Int("tick-hz", 0, "Session tick rate in Hz")
		debounceTicks = flag.Int("debounce-ticks", 0, "Quiet ticks before a change is applied")
		storeBackend  = flag.String("store-backend", "", "Profile store backend: yaml|sqlite")
		storePath     = flag.String("store-path", "", "Profile store path")
		ipcSocketPath = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		inputDevice   = flag.String("input-device", "", "Linux input event device for hardware buttons")
		logLevelStr   = flag.String("log-level", "", "Log level: error, warn, info, debug")
		logFile       = flag.String("log-file", "", "Log file used while the terminal UI is running")
		headless      = flag.Bool("headless", false, "Run without the terminal UI")
		_             = flag.Bool("version", false, "Print version and exit")
		_             = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	given := setFlags(flag.CommandLine)
	var o FlagOverrides
	if given["ws-url"] {
		o.ServiceWsURL = wsURL
	}
	if given["ws-timeout-ms"] {
		o.ServiceTimeoutMS = wsTimeoutMS
	}
	if given["tick-hz"] {
		o.TickHz = tickHz
	}
	if given["debounce-ticks"] {
		o.DebounceTicks = debounceTicks
	}
	if given["store-backend"] {
		o.StoreBackend = storeBackend
	}
	if given["store-path"] {
		o.StorePath = storePath
	}
	if given["ipc-socket"] {
		o.IPCSocketPath = ipcSocketPath
	}
	if given["input-device"] {
		o.InputDevice = inputDevice
	}
	if given["log-level"] {
		o.LogLevel = logLevelStr
	}
	if given["log-file"] {
		o.LogFile = logFile
	}

	cfg, err := loadConfig(*configPath, o)
	if err != nil {
		fatal(err)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fatal(err)
	}

	// The terminal UI owns stdout; interactive sessions log to a file.
	var logOut io.Writer = os.Stdout
	if !*headless {
		f, err := openLogFile(cfg.Logging.File)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		logOut = f
	}
	logger := setupLogger(logLevel, logOut)

	if err := run(cfg, *headless, logger); err != nil {
		logger.Error("tintctl exited with error", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run wires the session and its input sources and blocks until the session
// ends. Teardown always runs, in order: stop inputs, restore the terminal,
// flush and persist, close the service session.
func run(cfg Config, headless bool, logger *slog.Logger) error {
	logger = logger.With("session_id", uuid.NewString())
	logger.Debug("starting tintctl", "version", version)
	logger.Debug("configuration",
		"ws_url", cfg.Service.WsURL,
		"ws_timeout_ms", cfg.Service.TimeoutMS,
		"tick_hz", cfg.Session.TickHz,
		"debounce_ticks", cfg.Session.DebounceTicks,
		"store_backend", cfg.Store.Backend,
		"store_path", cfg.Store.Path,
		"ipc_socket", cfg.IPC.SocketPath,
		"input_devices", cfg.Input.Devices,
		"headless", headless)

	client, err := NewTintClient(cfg.Service, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := openConfigStore(cfg.Store, cfg.Limits)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close profile store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan Event, 64)

	if cfg.IPC.SocketPath != "" {
		go func() {
			if err := runIPCServer(ctx, cfg.IPC.SocketPath, events, logger); err != nil {
				logger.Error("IPC server error", "error", err)
			}
		}()
	}

	if len(cfg.Input.Devices) > 0 {
		go func() {
			if err := runInputDevices(ctx, cfg.Input.Devices, events, logger); err != nil {
				logger.Error("input devices stopped", "error", err)
			}
		}()
	}

	edCfg := NewEditorConfig(cfg.Limits, cfg.Session.DebounceTicks, cfg.NudgeConfig())
	sess := OpenSession(client, store, edCfg, logger, time.Now())

	var term *terminal
	var render func(*SessionState)
	if !headless {
		term, err = openTerminal(edCfg)
		if err != nil {
			stop()
			return errors.Join(fmt.Errorf("open terminal: %w", err), sess.Close())
		}
		go term.pollInput(ctx, events)
		render = term.render
	} else {
		render = headlessRenderer(logger)
	}

	runErr := sess.Run(ctx, events, cfg.Session.TickHz, render)

	stop()
	if term != nil {
		term.close()
	}

	return errors.Join(runErr, sess.Close())
}

// headlessRenderer logs presentation and apply-status changes instead of
// drawing them.
func headlessRenderer(logger *slog.Logger) func(*SessionState) {
	var lastPresentation Presentation = -1
	var lastStatus string
	return func(s *SessionState) {
		if s.Presentation != lastPresentation {
			lastPresentation = s.Presentation
			attrs := []any{"presentation", s.Presentation.String()}
			if s.Presentation == PresentationError {
				attrs = append(attrs, "result", ResultOf(s.InitErr).Error())
			}
			logger.Info("presentation changed", attrs...)
		}
		if s.Display.Status != lastStatus {
			lastStatus = s.Display.Status
			if lastStatus != "" {
				logger.Info("status", "text", lastStatus)
			}
		}
	}
}

func printSimUsage() {
	fmt.Printf("tintctl service-sim v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  tintctl service-sim [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Serves the tint service websocket protocol from memory. Profiles are")
	fmt.Println("  seeded from the profile store; nothing is written back.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (sim and store sections are used)")
	fmt.Println()
	fmt.Println("  -listen string")
	fmt.Println("        Listen address (default \"127.0.0.1:7438\")")
	fmt.Println()
	fmt.Println("  -performance-mode string")
	fmt.Println("        Reported performance mode: normal|other (default \"normal\")")
	fmt.Println()
	fmt.Println("  -inactive")
	fmt.Println("        Report the service as not running")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
}

// runSimSubcommand handles the service-sim subcommand.
func runSimSubcommand() {
	fs := flag.NewFlagSet("service-sim", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	listen := fs.String("listen", "", "Listen address")
	perfMode := fs.String("performance-mode", "", "Reported performance mode: normal|other")
	inactive := fs.Bool("inactive", false, "Report the service as not running")
	logLevelStr := fs.String("log-level", "", "Log level: error, warn, info, debug")
	showHelp := fs.Bool("help", false, "Print help message")

	fs.Usage = printSimUsage
	fs.Parse(os.Args[2:])

	if *showHelp {
		printSimUsage()
		return
	}

	given := setFlags(fs)
	var o FlagOverrides
	if given["listen"] {
		o.SimListen = listen
	}
	if given["performance-mode"] {
		o.SimPerformanceMode = perfMode
	}
	if given["log-level"] {
		o.LogLevel = logLevelStr
	}

	cfg, err := loadConfig(*configPath, o)
	if err != nil {
		fatal(err)
	}
	if *inactive {
		cfg.Sim.ServiceActive = false
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fatal(err)
	}
	logger := setupLogger(logLevel, os.Stdout)

	store, closeStore, err := openConfigStore(cfg.Store, cfg.Limits)
	if err != nil {
		logger.Error("failed to open profile store", "error", err)
		os.Exit(1)
	}
	set, err := store.Read()
	_ = closeStore()
	if err != nil {
		logger.Warn("could not read profile store, using defaults", "error", err)
		set = DefaultProfileSet(cfg.Limits)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runServiceSim(ctx, cfg.Sim, set, logger); err != nil {
		logger.Error("service simulator error", "error", err)
		os.Exit(1)
	}
}
