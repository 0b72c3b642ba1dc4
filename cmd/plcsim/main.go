// cmd/plcsim/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/plcsim"
)

func main() {
	cfgPath := flag.String("config", "", "recipesync config; the control address is taken from it")
	listen := flag.String("listen", "127.0.0.1:1502", "Modbus TCP listen address")
	controlAddr := flag.Uint("control", 0, "control block base address (ignored with -config)")
	deny := flag.Bool("deny-writes", false, "never grant write permission")
	trace := flag.Bool("trace", false, "log every frame")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if *controlAddr+config.ControlBlockWords > plcsim.AddressSpace {
		logger.Fatalf("invalid -control=%d", *controlAddr)
	}
	ctrlBase := uint16(*controlAddr)

	// --------------------
	// Optional shared config
	// --------------------

	if *cfgPath != "" {
		s, err := config.FileProvider{Path: *cfgPath}.Settings()
		if err != nil {
			logger.Fatalf("config failed: %v", err)
		}
		ctrlBase = s.Control
	}

	ctrl := plcsim.NewController(ctrlBase, logger)
	ctrl.SetDenyWrites(*deny)

	srv := plcsim.NewServer(ctrl, logger)
	srv.SetTrace(*trace)
	if err := srv.Listen(*listen); err != nil {
		logger.Fatalf("listen failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		logger.Fatalf("serve failed: %v", err)
	}
	logger.Print("plcsim: stopped")
}
