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
	"testing"

	"github.com/kr/pretty"
)

func TestZonalStatsRow(t *testing.T) {
	var z zonalStats
	for _, v := range []float64{3, 1, 4, 2} {
		z.add(v)
	}
	if z.count() != 4 {
		t.Errorf("count = %d, want 4", z.count())
	}
	got := z.row()
	want := []string{"4", "2.500", "1.118", "2.000", "2.000", "1.000", "4.000"}
	if d := pretty.Diff(got, want); len(d) > 0 {
		t.Errorf("row: %v", d)
	}
}

func TestZonalStatsConstant(t *testing.T) {
	var z zonalStats
	for i := 0; i < 4; i++ {
		z.add(7)
	}
	got := z.row()
	want := []string{"4", "7.000", "0.000", "7.000", "0.000", "7.000", "7.000"}
	if d := pretty.Diff(got, want); len(d) > 0 {
		t.Errorf("row: %v", d)
	}
}

func TestZonalStatsEmpty(t *testing.T) {
	var z zonalStats
	got := z.row()
	want := []string{"0", "", "", "", "", "", ""}
	if d := pretty.Diff(got, want); len(d) > 0 {
		t.Errorf("row: %v", d)
	}
}
