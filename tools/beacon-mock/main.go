// Command beacon-mock simulates a single paired device: it authenticates to
// the broker with its own device-id credentials and blocks on its queue,
// printing whether each popped payload is a lighting command or rasterized
// PNG bytes. Grounded in original_source/tools/beetle-mock; it resolves
// spec §9's framing Open Question concretely by checking for the
// "lighting:" prefix rather than a length or content-type header.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lanternhq/beacon/internal/config"
	"github.com/lanternhq/beacon/internal/platform"
)

const popTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "beacon.toml", "path to the TOML config file")
	deviceID := flag.String("device-id", "", "device id to authenticate as (must already be pool-granted ACL entries)")
	outDir := flag.String("out", "", "directory to save received PNG frames to (optional)")
	flag.Parse()

	if *deviceID == "" {
		fmt.Fprintln(os.Stderr, "error: -device-id is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	broker, err := platform.NewBroker(ctx, platform.BrokerOptions{
		Addr:     fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		Username: *deviceID,
		Password: *deviceID,
		UseTLS:   cfg.Broker.TLS,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connecting to broker as %s: %v\n", *deviceID, err)
		os.Exit(1)
	}
	defer broker.Close()

	queueKey := "queue:" + *deviceID
	fmt.Printf("beacon-mock: device %s listening on %s\n", *deviceID, queueKey)

	frame := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Println("beacon-mock: stopped")
			return
		default:
		}

		popped, err := broker.BLPop(ctx, popTimeout, queueKey)
		if err != nil {
			if platform.IsNoData(err) {
				continue
			}
			fmt.Fprintf(os.Stderr, "error: popping queue: %v\n", err)
			return
		}
		if len(popped) < 2 {
			continue
		}
		payload := []byte(popped[1])

		if bytes.HasPrefix(payload, []byte("lighting:")) {
			fmt.Printf("received lighting command: %s\n", payload)
			continue
		}

		fmt.Printf("received rendered frame: %d bytes\n", len(payload))
		if *outDir != "" {
			frame++
			path := fmt.Sprintf("%s/frame-%03d.png", *outDir, frame)
			if err := os.WriteFile(path, payload, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "error: saving frame: %v\n", err)
				continue
			}
			fmt.Printf("saved %s\n", path)
		}
	}
}
