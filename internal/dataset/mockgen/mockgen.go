// Package mockgen fabricates plausible tabular rows for local runs where no
// row store or catalog is reachable.
package mockgen

import (
	"math/rand"
	"strings"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
)

var cities = []string{
	"New York", "London", "Tokyo", "Paris", "Sydney",
	"Berlin", "San Francisco", "Singapore", "Dubai", "Toronto",
}

var networkTypes = []string{"5G", "4G", "3G", "WiFi"}

// Source is a drop-in row source that synthesizes rows instead of querying a
// table. The table name is ignored; values are drawn per column from ranges
// guessed off the column name.
type Source struct {
	Columns []string
	Seed    int64
}

func (s *Source) FetchRows(table string, limit int) ([]dataset.Row, error) {
	rng := rand.New(rand.NewSource(s.Seed))
	rows := make([]dataset.Row, 0, limit)
	for i := 0; i < limit; i++ {
		row := make(dataset.Row, len(s.Columns))
		for _, column := range s.Columns {
			row[column] = generateValue(rng, column)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func generateValue(rng *rand.Rand, column string) interface{} {
	name := strings.ToLower(column)
	switch {
	case name == "hour":
		return float64(rng.Intn(24))
	case name == "day_of_week":
		return float64(rng.Intn(7))
	case name == "month":
		return float64(rng.Intn(12))
	case name == "network_type":
		return networkTypes[rng.Intn(len(networkTypes))]
	case name == "location_name" || name == "city":
		return cities[rng.Intn(len(cities))]
	case strings.Contains(name, "count") || strings.Contains(name, "interactions") ||
		strings.Contains(name, "users") || strings.Contains(name, "queries"):
		return float64(rng.Intn(1000))
	case strings.Contains(name, "signal_strength") || strings.Contains(name, "score"):
		return rng.Float64() * 100
	case strings.Contains(name, "speed"):
		return 1 + rng.Float64()*199
	case strings.Contains(name, "latency") || strings.Contains(name, "jitter"):
		return 5 + rng.Float64()*95
	case name == "latitude":
		return -90 + rng.Float64()*180
	case name == "longitude":
		return -180 + rng.Float64()*360
	default:
		return rng.Float64()
	}
}
