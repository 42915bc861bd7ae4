// The kiosk binary hosts one checkout lane: the frame loop driving the
// vision pipeline, the sqlite-backed catalog and audit trail, and the
// operator HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/checklane/kiosk.vision/internal/api"
	"github.com/checklane/kiosk.vision/internal/cart"
	"github.com/checklane/kiosk.vision/internal/config"
	"github.com/checklane/kiosk.vision/internal/db"
	"github.com/checklane/kiosk.vision/internal/version"
	"github.com/checklane/kiosk.vision/internal/vision"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "kiosk.db", "Path to the sqlite database")
	configPath  = flag.String("config", "", "Path to a tuning config JSON (optional)")
	frameWidth  = flag.Int("frame-width", 640, "Frame width in pixels")
	frameHeight = flag.Int("frame-height", 480, "Frame height in pixels")
)

func main() {
	flag.Parse()

	// `kiosk migrate up|down|status|force` manages the schema and exits.
	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		runMigrate(args[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	log.Printf("kiosk %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = loaded
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	labels, err := database.CatalogLabels()
	if err != nil {
		log.Fatalf("Failed to load product catalog: %v", err)
	}
	if len(labels) == 0 {
		log.Print("Product catalog is empty; seed products via POST /api/products")
	}

	lane := vision.NewLane(vision.NewCatalog(labels))
	if err := lane.Apply(tuning.LaneSettings()); err != nil {
		log.Fatalf("Invalid tuning config: %v", err)
	}
	// No live detector attached; simulation mode drives the pipeline.
	lane.SetSimulationMode(true)

	server := api.NewServer(lane, cart.New(database), database, tuning)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Frame loop: tick the lane at the configured rate and keep the
	// overlay current.
	wg.Add(1)
	go func() {
		defer wg.Done()
		interval := time.Second / time.Duration(tuning.GetFrameRate())
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				server.RecordFrame(lane.Tick(*frameWidth, *frameHeight, now))
			case <-ctx.Done():
				log.Print("frame loop terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := server.ServeMux()
		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func runMigrate(args []string, dbPath string) {
	if len(args) < 1 {
		fmt.Println("Usage: kiosk migrate <up|down|status|force>")
		os.Exit(1)
	}

	migrationsFS, err := db.MigrationsFS()
	if err != nil {
		log.Fatalf("Failed to open embedded migrations: %v", err)
	}

	// Open without running migrations; this command manages the schema.
	database, err := db.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(migrationsFS); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("All migrations applied")

	case "down":
		if err := database.MigrateDown(migrationsFS); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Rolled back one migration")

	case "status":
		version, dirty, err := database.MigrateVersion(migrationsFS)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	case "force":
		if len(args) < 2 {
			fmt.Println("Usage: kiosk migrate force <version>")
			os.Exit(1)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version %q: %v", args[1], err)
		}
		if err := database.MigrateForce(migrationsFS, version); err != nil {
			log.Fatalf("Migration force failed: %v", err)
		}
		log.Printf("Forced migration version to %d", version)

	default:
		fmt.Printf("Unknown migrate action: %s\n", args[0])
		os.Exit(1)
	}
}
