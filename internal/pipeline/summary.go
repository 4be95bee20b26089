package pipeline

import (
	"time"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one completed run.
type Summary struct {
	RunID       string
	Records     map[Source]int // input lines parsed
	Keys        map[Source]int // distinct keys after aggregation
	Join        JoinStats
	Duration    time.Duration
	ProcessedAt time.Time

	TotalRainfall float64
	TotalCases    float64
	// Correlation is the Pearson coefficient between monthly rainfall and
	// cases over joined rows; nil with fewer than two rows or when either
	// series is constant.
	Correlation *float64
	// Fit is the least-squares line cases = Intercept + Slope*rainfall; nil
	// with fewer than two rows or when rainfall does not vary.
	Fit *LinearFit
}

// LinearFit is a simple linear regression of cases on rainfall.
type LinearFit struct {
	Intercept float64
	Slope     float64
}

func summarizeRows(s *Summary, rows []domain.OutputRow) {
	if len(rows) == 0 {
		return
	}

	rain := make(stats.Float64Data, len(rows))
	cases := make(stats.Float64Data, len(rows))
	for i, r := range rows {
		rain[i] = r.Rainfall
		cases[i] = r.Cases
	}

	s.TotalRainfall, _ = stats.Sum(rain)
	s.TotalCases, _ = stats.Sum(cases)

	if len(rows) < 2 {
		return
	}
	rainVaries := stat.Variance(rain, nil) > 0
	if rainVaries && stat.Variance(cases, nil) > 0 {
		if c, err := stats.Correlation(rain, cases); err == nil {
			s.Correlation = &c
		}
	}
	if rainVaries {
		alpha, beta := stat.LinearRegression(rain, cases, nil, false)
		s.Fit = &LinearFit{Intercept: alpha, Slope: beta}
	}
}
