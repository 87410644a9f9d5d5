package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pod-navigation/pod_nav"
)

func main() {
	var configPath string
	var liveAddr string
	var outputAddr string
	var serialPort string
	var strategy string
	var logLevel string
	flag.StringVar(&configPath, "config", "config.json", "Path to JSON config.")
	flag.StringVar(&liveAddr, "live-addr", "", "Override live UDP listen addr (host:port).")
	flag.StringVar(&outputAddr, "output-addr", "", "Override output UDP addr (host:port).")
	flag.StringVar(&serialPort, "serial", "", "Also write commands to this serial port.")
	flag.StringVar(&strategy, "strategy", "", "Force navigation strategy (e.g., CLOSEST_WALL).")
	flag.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error).")
	flag.Parse()

	cfg, err := pod_nav.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config %q: %v", configPath, err)
	}

	if liveAddr != "" {
		cfg.Live.UDPAddr = liveAddr
	}
	if outputAddr != "" {
		cfg.Output.UDPAddr = outputAddr
	}
	if serialPort != "" {
		cfg.Output.SerialPort = serialPort
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if strategy != "" {
		s, err := pod_nav.ParseNavStrategy(strategy)
		if err != nil {
			log.Fatalf("invalid strategy %q: %v", strategy, err)
		}
		cfg.Pilot.Navigator.Strategy = s
		if err := cfg.Pilot.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	logger, closer, err := pod_nav.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pod_nav.RunLive(ctx, cfg, logger); err != nil {
		logger.Error("live run failed", slog.Any("error", err))
		stop()
		log.Fatal(err)
	}
}
