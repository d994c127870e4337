// Command logsinkd runs a logsink.Service driven by a YAML settings file.
// Editing the file changes the level or rotation of the running process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/Station-Manager/logsink"
	"github.com/Station-Manager/logsink/fileconfig"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logsinkd:", err)
		os.Exit(1)
	}
}

// run serves until ctx is done.
func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("logsinkd", pflag.ContinueOnError)
	var (
		configPath = flags.StringP("config", "c", "logsink.yaml", "settings file to load and watch")
		logDir     = flags.String("log-dir", "logs", "log directory when the settings file names none")
		heartbeat  = flags.Duration("heartbeat", 5*time.Second, "interval between heartbeat records, 0 disables")
		sidecar    = flags.StringSlice("sidecar", nil, "command to run with its output in the sidecar log")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	settings, err := fileconfig.Load(*configPath, *logDir)
	if err != nil {
		return err
	}

	svc := logsink.NewService(settings, settings)
	if err := svc.Initialize(); err != nil {
		return err
	}
	defer svc.Close()

	log := logsink.Module("logsinkd")
	log.Info().Str("config", settings.Path()).Msg("started")

	watchErr := make(chan error, 1)
	go func() { watchErr <- fileconfig.Watch(ctx, settings, svc) }()

	if len(*sidecar) > 0 {
		go runSidecar(ctx, svc, *sidecar)
	}

	var tick <-chan time.Time
	if *heartbeat > 0 {
		t := time.NewTicker(*heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping")
			return nil
		case err := <-watchErr:
			if err != nil {
				log.Error().Err(err).Msg("settings watcher stopped")
			}
			watchErr = nil
		case <-tick:
			log.Debug().Int("n", n).Msg("heartbeat")
		}
	}
}

func runSidecar(ctx context.Context, svc *logsink.Service, argv []string) {
	log := logsink.Module("logsinkd/sidecar")
	out, err := svc.SidecarWriter("sidecar")
	if err != nil {
		log.Error().Err(err).Msg("open sidecar log")
		return
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = out
	cmd.Stderr = out
	log.Info().Strs("argv", argv).Msg("sidecar starting")
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("sidecar exited")
		return
	}
	log.Info().Msg("sidecar exited")
}
