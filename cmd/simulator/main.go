package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	apiURL      = flag.String("api", "http://localhost:8080", "AutoSpace HTTP base URL")
	grpcAddr    = flag.String("grpc", "localhost:9090", "AutoSpace gRPC address")
	email       = flag.String("email", "operator@autospace.local", "Operator e-mail")
	pin         = flag.String("pin", "1234", "Operator PIN")
	plates      = flag.String("plates", "ABC1D23,MOT0A12,TRK9Z88", "Comma separated plates driven by the gate")
	interval    = flag.Duration("interval", 5*time.Second, "Time between gate events in background mode")
	watch       = flag.Bool("watch", true, "Follow the live session feed")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config := &SimulatorConfig{
		APIURL:   strings.TrimRight(*apiURL, "/"),
		GRPCAddr: *grpcAddr,
		Email:    *email,
		PIN:      *pin,
		Plates:   splitPlates(*plates),
		Interval: *interval,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := NewSimulator(config, logger)
	if err := sim.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect to server", zap.Error(err))
	}
	defer sim.Stop()

	if *watch {
		if err := sim.WatchFeed(ctx); err != nil {
			logger.Warn("Live feed unavailable", zap.Error(err))
		}
	}

	if *interactive {
		runInteractiveMode(ctx, sim)
		return
	}

	fmt.Printf("AutoSpace Gate Simulator started\n")
	fmt.Printf("  API: %s\n", config.APIURL)
	fmt.Printf("  gRPC: %s\n", config.GRPCAddr)
	fmt.Printf("  Plates: %s\n", strings.Join(config.Plates, ", "))
	fmt.Println("\nPress Ctrl+C to stop")

	sim.Run(ctx)
	fmt.Println("\nShutting down simulator...")
}

func runInteractiveMode(ctx context.Context, sim *Simulator) {
	fmt.Println("\nAutoSpace Gate Simulator - Interactive Mode")
	fmt.Println("===========================================")
	fmt.Println("Commands:")
	fmt.Println("  enter <plate>           - Open a session at the entry gate")
	fmt.Println("  exit <plate>            - Close the plate's session at the exit gate")
	fmt.Println("  quote <plate>           - Show the current fee without closing")
	fmt.Println("  active                  - List open sessions")
	fmt.Println("  quit                    - Exit simulator")
	fmt.Println("")

	sim.RunInteractive(ctx)
}

func splitPlates(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
