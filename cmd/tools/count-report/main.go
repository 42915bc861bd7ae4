// count-report renders a bar chart of counted units per product label
// over a time window, straight from a kiosk database. Useful for spot
// checks of counting behaviour in the field without the HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/checklane/kiosk.vision/internal/db"
)

var (
	dbFile  = flag.String("db", "kiosk.db", "Path to the sqlite database")
	days    = flag.Int("days", 7, "Window in days to aggregate")
	outFile = flag.String("out", "counts.png", "Output PNG path")
)

func main() {
	flag.Parse()

	if *days < 1 {
		log.Fatal("days must be >= 1")
	}
	if _, err := os.Stat(*dbFile); err != nil {
		log.Fatalf("Cannot open database %q: %v", *dbFile, err)
	}

	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	since := time.Now().AddDate(0, 0, -*days)
	counts, err := database.CountsByLabelSince(since)
	if err != nil {
		log.Fatalf("Failed to aggregate counts: %v", err)
	}
	if len(counts) == 0 {
		log.Fatalf("No count events since %s", since.Format(time.RFC3339))
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	values := make(plotter.Values, len(labels))
	total := 0
	for i, label := range labels {
		values[i] = float64(counts[label])
		total += counts[label]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Counted units, last %dd (%d total)", *days, total)
	p.Y.Label.Text = "units"
	p.NominalX(labels...)

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		log.Fatalf("Failed to build chart: %v", err)
	}
	p.Add(bars)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, *outFile); err != nil {
		log.Fatalf("Failed to save chart: %v", err)
	}

	for _, label := range labels {
		fmt.Printf("%-20s %6d\n", label, counts[label])
	}
	fmt.Printf("%-20s %6d\n", "total", total)
	log.Printf("Wrote %s", *outFile)
}
