// Command genmock writes deterministic sample inputs for the ETL job: a
// pipe-delimited dengue notifications file and a comma-separated rainfall
// file, both with header lines. The same seed always yields the same bytes.
// The data includes rows with an empty casos value and negative rainfall
// readings so a run exercises those paths.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -incidence-out database/sample_casos_dengue.txt \
//	  -rainfall-out database/sample_chuvas.csv \
//	  -states RS,SC,PR -year 2014 -seed 7
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
)

// city is a notification location within a state.
type city struct {
	name       string
	ibge       string
	postalCode string
	lat, lon   float64
}

var capitals = map[string]city{
	"PR": {name: "Curitiba", ibge: "4106902", postalCode: "80000-000", lat: -25.4284, lon: -49.2733},
	"RJ": {name: "Rio de Janeiro", ibge: "3304557", postalCode: "20000-000", lat: -22.9068, lon: -43.1729},
	"RS": {name: "Porto Alegre", ibge: "4314902", postalCode: "90000-000", lat: -30.0346, lon: -51.2177},
	"SC": {name: "Florianopolis", ibge: "4205407", postalCode: "88000-000", lat: -27.5954, lon: -48.5480},
	"SP": {name: "Sao Paulo", ibge: "3550308", postalCode: "01000-000", lat: -23.5505, lon: -46.6333},
}

// options controls what generate writes.
type options struct {
	states []string
	year   int
	seed   uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	incidenceOut := flag.String("incidence-out", "", "output path for the dengue notifications file")
	rainfallOut := flag.String("rainfall-out", "", "output path for the rainfall file")
	states := flag.String("states", "PR,RS,SC", "comma-separated state codes")
	year := flag.Int("year", 2014, "year to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *incidenceOut == "" || *rainfallOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -incidence-out, -rainfall-out")
	}

	opts := options{states: strings.Split(*states, ","), year: *year, seed: *seed}
	for _, s := range opts.states {
		if _, ok := capitals[s]; !ok {
			return fmt.Errorf("unknown state %q", s)
		}
	}

	incidence, rainfall, err := createBoth(*incidenceOut, *rainfallOut)
	if err != nil {
		return err
	}
	defer incidence.Close()
	defer rainfall.Close()

	iw, rw := bufio.NewWriter(incidence), bufio.NewWriter(rainfall)
	stats, err := generate(iw, rw, opts)
	if err != nil {
		return err
	}
	if err := iw.Flush(); err != nil {
		return err
	}
	if err := rw.Flush(); err != nil {
		return err
	}

	log.Printf("wrote %d notifications to %s", stats.incidence, *incidenceOut)
	log.Printf("wrote %d rainfall readings to %s", stats.rainfall, *rainfallOut)
	return nil
}

func createBoth(incidencePath, rainfallPath string) (*os.File, *os.File, error) {
	for _, p := range []string{incidencePath, rainfallPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, nil, err
		}
	}
	inc, err := os.Create(incidencePath)
	if err != nil {
		return nil, nil, err
	}
	rain, err := os.Create(rainfallPath)
	if err != nil {
		inc.Close()
		return nil, nil, err
	}
	return inc, rain, nil
}

type genStats struct {
	incidence int
	rainfall  int
}

// generate writes weekly notifications and daily rainfall for every state and
// month of opts.year.
func generate(incidence, rainfall io.Writer, opts options) (genStats, error) {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	var stats genStats

	if _, err := fmt.Fprintln(incidence, strings.Join(domain.IncidenceColumns, domain.IncidenceDelimiter)); err != nil {
		return stats, err
	}
	if _, err := fmt.Fprintln(rainfall, strings.Join([]string{"data", "chuva", "estado"}, domain.RainfallDelimiter)); err != nil {
		return stats, err
	}

	id := 0
	for _, state := range opts.states {
		c := capitals[state]
		for month := time.January; month <= time.December; month++ {
			first := time.Date(opts.year, month, 1, 0, 0, 0, 0, time.UTC)
			days := first.AddDate(0, 1, -1).Day()

			for day := 1; day <= days; day++ {
				date := first.AddDate(0, 0, day-1)
				mm := rng.Float64() * 30
				// Roughly one reading in forty is a negative sensor glitch.
				if rng.IntN(40) == 0 {
					mm = -mm
				}
				line := strings.Join([]string{
					date.Format(time.DateOnly),
					strconv.FormatFloat(mm, 'f', 1, 64),
					state,
				}, domain.RainfallDelimiter)
				if _, err := fmt.Fprintln(rainfall, line); err != nil {
					return stats, err
				}
				stats.rainfall++
			}

			for day := 1; day <= days; day += 7 {
				id++
				cases := strconv.Itoa(rng.IntN(60))
				if rng.IntN(10) == 0 {
					cases = ""
				}
				line := strings.Join([]string{
					strconv.Itoa(id),
					first.AddDate(0, 0, day-1).Format(time.DateOnly),
					cases,
					c.ibge,
					c.name,
					state,
					c.postalCode,
					strconv.FormatFloat(c.lat, 'f', 4, 64),
					strconv.FormatFloat(c.lon, 'f', 4, 64),
				}, domain.IncidenceDelimiter)
				if _, err := fmt.Fprintln(incidence, line); err != nil {
					return stats, err
				}
				stats.incidence++
			}
		}
	}
	return stats, nil
}
