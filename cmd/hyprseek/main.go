package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hyprseek/hyprseek/internal/config"
	"github.com/hyprseek/hyprseek/internal/ipc"
	"github.com/hyprseek/hyprseek/internal/util"
)

func main() {
	defaultConfig, err := config.DefaultPath()
	if err != nil {
		exitErr(err)
	}

	cfgPath := flag.String("config", defaultConfig, "path to YAML config")
	logLevel := flag.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	launcher := flag.Bool("launcher", false, "start in the full overlay without modifier semantics")
	backward := flag.Bool("backward", false, "cycle backward when relaying to a running session")
	listWindows := flag.Bool("list-windows", false, "print the hint table and exit")
	check := flag.Bool("check", false, "validate the configuration and exit")
	watch := flag.Bool("watch", false, "revalidate the configuration on every change")
	dispatchStrategy := flag.String("dispatch", string(ipc.DispatchStrategySocket), "dispatch strategy (socket|hyprctl)")
	enableMetrics := flag.Bool("metrics", false, "collect anonymous session counters")
	flag.Parse()

	selectedStrategy := ipc.DispatchStrategy(strings.ToLower(*dispatchStrategy))
	switch selectedStrategy {
	case ipc.DispatchStrategySocket, ipc.DispatchStrategyHyprctl:
	default:
		exitErr(fmt.Errorf("unsupported dispatch strategy %q", *dispatchStrategy))
	}

	logger := util.NewSessionLogger(util.ParseLogLevel(*logLevel))

	if *check {
		if _, err := config.Load(*cfgPath); err != nil {
			exitErr(err)
		}
		fmt.Println("Configuration OK")
		return
	}
	if *watch {
		if err := watchConfig(logger, *cfgPath); err != nil {
			exitErr(err)
		}
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("load config: %w", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hypr, strategy, err := ipc.NewSwitchClient(logger, selectedStrategy)
	if err != nil {
		exitErr(fmt.Errorf("configure dispatch strategy: %w", err))
	}
	logger.Debugf("using %s dispatch strategy", strategy)

	if *listWindows {
		if err := runListWindows(ctx, logger, cfg, hypr, os.Stdout); err != nil {
			exitErr(err)
		}
		return
	}

	if err := runSwitch(ctx, switchOptions{
		logger:        logger,
		cfg:           cfg,
		hypr:          hypr,
		launcherMode:  *launcher,
		relayBackward: *backward,
		metrics:       *enableMetrics,
	}); err != nil {
		exitErr(err)
	}
}

// watchConfig revalidates the file after every settled write and logs what
// changed between good versions.
func watchConfig(logger *util.Logger, path string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var lastGood []byte
	validate := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Errorf("read config: %v", err)
			return
		}
		if _, err := config.Parse(data); err != nil {
			logger.Errorf("configuration invalid: %v", err)
			return
		}
		if diff := config.Diff(lastGood, data); diff != "" && lastGood != nil {
			logger.Infof("configuration changed:\n%s", diff)
		}
		lastGood = data
		logger.Infof("configuration OK")
	}
	validate()
	return config.Watch(ctx, logger, path, validate)
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
