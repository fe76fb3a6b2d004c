// Command session-plot renders the recorded session history from a stats
// database as PNG line charts for offline review.
package main

import (
	"flag"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/driveline-data/driveline.report/internal/blobstore"
	"github.com/driveline-data/driveline.report/internal/drivestats"
)

func main() {
	dbPath := flag.String("db", "drive_stats.db", "path to the stats database")
	output := flag.String("o", "sessions.png", "output PNG path")
	flag.Parse()

	store, err := blobstore.OpenSQLite(*dbPath)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}
	defer store.Close()

	data, err := store.Get(drivestats.BlobStats)
	if err != nil {
		log.Fatalf("failed to load stats: %v", err)
	}
	stats := drivestats.DecodeStats(data)
	if len(stats.SessionHistory) == 0 {
		log.Fatal("no sessions recorded yet")
	}

	stalls := make(plotter.XYs, len(stats.SessionHistory))
	lugs := make(plotter.XYs, len(stats.SessionHistory))
	goodRate := make(plotter.XYs, len(stats.SessionHistory))
	for i, entry := range stats.SessionHistory {
		x := float64(i)
		stalls[i] = plotter.XY{X: x, Y: float64(entry.Stalls)}
		lugs[i] = plotter.XY{X: x, Y: float64(entry.Lugs)}

		rate := 0.0
		if shifts := entry.Upshifts + entry.Downshifts; shifts > 0 {
			rate = 100 * float64(entry.UpshiftsGood+entry.DownshiftsGood) / float64(shifts)
		}
		goodRate[i] = plotter.XY{X: x, Y: rate}
	}

	p := plot.New()
	p.Title.Text = "Drive Sessions"
	p.X.Label.Text = "session"
	p.Y.Label.Text = "count / percent"
	p.Legend.Top = true

	stallLine, err := plotter.NewLine(stalls)
	if err != nil {
		log.Fatalf("failed to build stall series: %v", err)
	}
	stallLine.Width = vg.Points(1)
	stallLine.Color = color.RGBA{R: 220, A: 255}

	lugLine, err := plotter.NewLine(lugs)
	if err != nil {
		log.Fatalf("failed to build lug series: %v", err)
	}
	lugLine.Width = vg.Points(1)
	lugLine.Color = color.RGBA{B: 220, A: 255}

	rateLine, err := plotter.NewLine(goodRate)
	if err != nil {
		log.Fatalf("failed to build shift rate series: %v", err)
	}
	rateLine.Width = vg.Points(1)
	rateLine.Color = color.RGBA{G: 160, A: 255}

	p.Add(stallLine, lugLine, rateLine)
	p.Legend.Add("stalls", stallLine)
	p.Legend.Add("lugs", lugLine)
	p.Legend.Add("good shift %", rateLine)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, *output); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("wrote %s (%d sessions)", *output, len(stats.SessionHistory))
}
