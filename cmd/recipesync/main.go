// cmd/recipesync/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/control"
	"github.com/tamzrod/recipe-sync/internal/device/modbus"
	"github.com/tamzrod/recipe-sync/internal/poller"
	"github.com/tamzrod/recipe-sync/internal/recipe"
	"github.com/tamzrod/recipe-sync/internal/transfer"
)

const usage = "usage: recipesync -config <config.yaml> <check|upload|download|watch> [recipe.yaml]"

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", "recipesync.yaml", "controller config file")
	outPath := flag.String("out", "", "download: write the recipe here instead of stdout")
	interval := flag.Duration("interval", time.Second, "watch: control block poll interval")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if flag.NArg() < 1 {
		logger.Print(usage)
		return 2
	}
	cmd := flag.Arg(0)

	// --------------------
	// Validate config up front
	// --------------------

	provider := config.FileProvider{Path: *cfgPath}
	settings, err := provider.Settings()
	if err != nil {
		logger.Printf("config failed: %v", err)
		return int(errorCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := recipe.DefaultCatalog()
	tr := transfer.New(provider, modbus.Dialer(logger), cat, logger)

	switch cmd {
	case "check":
		err = tr.CheckConnection(ctx)
		if err == nil {
			fmt.Println("controller reachable")
		}

	case "upload":
		if flag.NArg() < 2 {
			logger.Print(usage)
			return 2
		}
		var r recipe.Recipe
		r, err = recipe.LoadFile(flag.Arg(1), cat)
		if err != nil {
			break
		}
		if _, err = tr.UploadAndVerify(ctx, r); err == nil {
			fmt.Printf("uploaded and verified %d steps\n", r.Len())
		}

	case "download":
		var r recipe.Recipe
		r, err = tr.Download(ctx)
		if err != nil {
			break
		}
		err = writeRecipe(*outPath, r, cat)

	case "watch":
		err = watch(ctx, settings, *interval, logger)

	default:
		logger.Printf("unknown command %q", cmd)
		logger.Print(usage)
		return 2
	}

	if err != nil {
		logger.Printf("%s failed: %v", cmd, err)
		return int(errorCode(err))
	}
	return 0
}

// watch logs every control block change until ctx is done.
func watch(ctx context.Context, s config.Settings, interval time.Duration, logger *log.Logger) error {
	p, err := poller.New(poller.Config{Settings: s, Interval: interval}, modbus.Dialer(logger))
	if err != nil {
		return err
	}

	out := make(chan poller.Snapshot)
	go p.Run(ctx, out)

	var last poller.Snapshot
	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-out:
			if !first && !poller.Changed(last, snap) {
				continue
			}
			first = false
			last = snap

			if snap.Err != nil {
				logger.Printf("watch: controller unreachable (endpoint=%s): %v", snap.Endpoint, snap.Err)
				continue
			}
			logger.Printf("watch: state=%s rows=%d (endpoint=%s)",
				control.StateName(snap.Block.State), snap.Block.RowCount, snap.Endpoint)
		}
	}
}

func writeRecipe(path string, r recipe.Recipe, cat *recipe.Catalog) error {
	if path == "" {
		return recipe.Write(os.Stdout, r, cat)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := recipe.Write(f, r, cat); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// errorCode extracts the process exit code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
