/*
Copyright © 2025 the GenIDF authors.
This file is part of GenIDF.

GenIDF is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GenIDF is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GenIDF.  If not, see <http://www.gnu.org/licenses/>.
*/

package genidf

import (
	"sort"
	"strconv"

	"github.com/GaryBoone/GoStats/stats"
	"gonum.org/v1/gonum/stat"
)

// ZonalStatColumns are the attribute-table columns attached to each
// polygon produced by raster-to-vector extraction.
var ZonalStatColumns = []string{"Count", "Average", "SD", "Median", "IQR", "Min", "Max"}

// zonalStats accumulates the raster cell values attributed to one
// polygon.
type zonalStats struct {
	values []float64
}

func (z *zonalStats) add(v float64) { z.values = append(z.values, v) }

func (z *zonalStats) count() int { return len(z.values) }

// row returns the statistics as attribute-table values aligned with
// ZonalStatColumns, rounded to 3 decimals.
func (z *zonalStats) row() []string {
	if len(z.values) == 0 {
		return []string{"0", "", "", "", "", "", ""}
	}
	sorted := make([]float64, len(z.values))
	copy(sorted, z.values)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	iqr := stat.Quantile(0.75, stat.Empirical, sorted, nil) -
		stat.Quantile(0.25, stat.Empirical, sorted, nil)
	return []string{
		strconv.Itoa(len(z.values)),
		round3(stats.StatsMean(z.values)),
		round3(stats.StatsPopulationStandardDeviation(z.values)),
		round3(median),
		round3(iqr),
		round3(stats.StatsMin(z.values)),
		round3(stats.StatsMax(z.values)),
	}
}

func round3(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
