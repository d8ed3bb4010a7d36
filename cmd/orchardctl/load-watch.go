package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/orchard/pkg/loader"
	"github.com/doodlesbykumbi/orchard/pkg/logger"
)

// loadWatchCmd represents the load watch command
var loadWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a file and load the trees file it names",
	Long: `Watch a trigger file and load trees whenever it is written.

To trigger a load, write the path of a trees YAML file into the watched
file. The path must be visible to the process running "orchardctl load watch".

Example:
  orchardctl load watch /run/orchard/load`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchTrees(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch trees: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	loadCmd.AddCommand(loadWatchCmd)
}

func watchTrees(cmd *cobra.Command, filename string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	l, closeAudit, err := newTreeLoader(cfg, log, false)
	if err != nil {
		return err
	}
	defer closeAudit()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filename); err != nil {
		return fmt.Errorf("failed to watch file %s: %w", filename, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching for tree loads", "file", filename)
	return watchLoop(ctx, watcher, filename, l, log)
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, filename string, l *loader.Loader, log *logger.Logger) error {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := loadTriggered(ctx, filename, l); err != nil {
				log.Error("tree load failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err)
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		}
	}
}

// loadTriggered loads the trees file named by the trigger file. An empty
// trigger file is ignored.
func loadTriggered(ctx context.Context, trigger string, l *loader.Loader) error {
	content, err := os.ReadFile(trigger)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", trigger, err)
	}

	path := strings.TrimSpace(string(content))
	if path == "" {
		return nil
	}

	_, err = l.LoadFile(ctx, path)
	return err
}
