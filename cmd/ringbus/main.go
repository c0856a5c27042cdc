// If you are AI: This is the main entrypoint for the ringbus demo driver.
// It builds the distribution tree from configuration, runs the power-sum
// demo workload, and serves the health and feed endpoints until signaled.

package main

import (
	"context"
	"flag"
	"log"
	"math"
	"net/http"
	"os"
	"sync"
	"time"

	"ringbus/internal/config"
	"ringbus/internal/core/distrib"
	"ringbus/internal/server"
	"ringbus/internal/svc/feed"
	"ringbus/internal/svc/health"
)

// powSum accumulates the sum of value^pow over every processed event, the
// same per-reader arithmetic the demo has always printed.
type powSum struct {
	pow int
	sum float64
}

// Process folds the event value into the running power sum.
func (p *powSum) Process(msg *feed.Event) {
	switch p.pow {
	case 0:
		p.sum++
	case 1:
		p.sum += float64(msg.Value)
	default:
		p.sum += math.Pow(float64(msg.Value), float64(p.pow))
	}
}

// main is the entrypoint for the ringbus demo driver.
// It loads configuration, runs the demo pass, and handles graceful shutdown.
func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	rounds := flag.Int64("rounds", 0, "Messages to publish, overrides config")
	readers := flag.Int("readers", 0, "Reader count, overrides config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *rounds > 0 {
		cfg.Demo.Rounds = *rounds
	}
	if *readers > 0 {
		cfg.Demo.Readers = *readers
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	hub := feed.NewHub()
	tree, sums, par := buildTree(cfg, hub)
	if err := tree.Start(); err != nil {
		log.Fatalf("Failed to start distribution tree: %v", err)
	}

	log.Printf("Demo of ringbus: rounds=%d, readers=%d, capacity=%d, claim=%s, wait=%s",
		cfg.Demo.Rounds, cfg.Demo.Readers, cfg.Ring.Capacity, cfg.Ring.Claim, cfg.Ring.Wait)
	runDemo(cfg, tree)

	status := func() health.Status {
		return health.Status{
			Cursor:    par.Cursor(),
			Processed: par.Processed(),
			Clients:   hub.ClientCount(),
			Dropped:   hub.Dropped(),
		}
	}
	srv := server.New(cfg, status, hub)
	stopTree := stopOnce(tree, sums)
	shutdownHandler := server.NewShutdownHandler(srv, stopTree, context.Background())

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}

	log.Println("Driver shut down cleanly")
}

// buildTree assembles the composite: the reader handlers run async in
// parallel, the feed hub taps the same subtree.
func buildTree(cfg *config.Config, hub *feed.Hub) (*distrib.CompositeDistributor[feed.Event], []*powSum, *distrib.ParallelDistributor[feed.Event]) {
	tree := distrib.NewCompositeWith[feed.Event](
		cfg.Ring.Capacity, cfg.Ring.ClaimMode(),
		cfg.Ring.NewWaitStrategy, cfg.Ring.PollTimeout)

	sums := make([]*powSum, cfg.Demo.Readers)
	handlers := make([]distrib.Handler[feed.Event], 0, cfg.Demo.Readers+1)
	for i := range sums {
		sums[i] = &powSum{pow: i + 1}
		handlers = append(handlers, sums[i])
	}
	handlers = append(handlers, hub)

	par, err := tree.AddAsyncParallel(handlers...)
	if err != nil {
		log.Fatalf("Failed to build async subtree: %v", err)
	}
	return tree, sums, par
}

// runDemo publishes the workload through the tree and reports throughput.
func runDemo(cfg *config.Config, tree *distrib.CompositeDistributor[feed.Event]) {
	start := time.Now()
	for i := int64(0); i < cfg.Demo.Rounds; i++ {
		ev := feed.Event{Seq: i, Value: i}
		tree.Distribute(&ev)
	}
	elapsed := time.Since(start)
	log.Printf("Distributed %d messages in %v, avg=%.1fns/op",
		cfg.Demo.Rounds, elapsed, float64(elapsed.Nanoseconds())/float64(cfg.Demo.Rounds))
}

// stopOnce returns a function that drains and joins the tree exactly once,
// then logs the per-reader power sums.
func stopOnce(tree *distrib.CompositeDistributor[feed.Event], sums []*powSum) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			tree.Signal(distrib.DefaultStop)
			tree.Join()
			for i, p := range sums {
				log.Printf("psum[%d]=%g", i, p.sum)
			}
		})
	}
}
