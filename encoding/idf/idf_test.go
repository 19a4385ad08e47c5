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

package idf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/genidf/internal/genidf"
)

func testGrid(t *testing.T) *genidf.Grid {
	t.Helper()
	g, err := genidf.NewGrid(&geom.Bounds{
		Min: geom.Point{X: 100, Y: 200},
		Max: geom.Point{X: 130, Y: 220},
	}, 10, 10, -9999)
	if err != nil {
		t.Fatal(err)
	}
	g.Set(1.5, 0, 0)
	g.Set(-2.25, 1, 2)
	return g
}

func TestRoundTrip(t *testing.T) {
	g := testGrid(t)
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Nx() != 3 || got.Ny() != 2 {
		t.Fatalf("grid is %d x %d, want 3 x 2", got.Nx(), got.Ny())
	}
	if got.Dx != 10 || got.Dy != 10 || got.NoData != -9999 {
		t.Errorf("georeferencing: dx %g dy %g nodata %g", got.Dx, got.Dy, got.NoData)
	}
	if *got.Bounds() != *g.Bounds() {
		t.Errorf("bounds %+v, want %+v", got.Bounds(), g.Bounds())
	}
	for i, v := range got.Data.Elements {
		if v != g.Data.Elements[i] {
			t.Errorf("element %d = %g, want %g", i, v, g.Data.Elements[i])
		}
	}
}

func TestHeader(t *testing.T) {
	g := testGrid(t)
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatal(err)
	}
	var h header
	if err := binary.Read(&buf, binary.LittleEndian, &h); err != nil {
		t.Fatal(err)
	}
	if h.Lahey != lahey {
		t.Errorf("record identifier %d, want %d", h.Lahey, lahey)
	}
	if h.Ncol != 3 || h.Nrow != 2 {
		t.Errorf("dimensions %d x %d", h.Ncol, h.Nrow)
	}
	if h.Dmin != -2.25 || h.Dmax != 1.5 {
		t.Errorf("data range [%g, %g], want [-2.25, 1.5]", h.Dmin, h.Dmax)
	}
	if h.Ieq != 0 || h.Itb != 0 {
		t.Errorf("flags ieq %d itb %d, want 0 0", h.Ieq, h.Itb)
	}
}

func TestHeaderAllNoData(t *testing.T) {
	g, err := genidf.NewGrid(&geom.Bounds{
		Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 10, Y: 10}}, 10, 10, -9999)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatal(err)
	}
	var h header
	if err := binary.Read(&buf, binary.LittleEndian, &h); err != nil {
		t.Fatal(err)
	}
	if h.Dmin != -9999 || h.Dmax != -9999 {
		t.Errorf("data range [%g, %g] for an empty grid", h.Dmin, h.Dmax)
	}
}

func TestReadRejectsBadInput(t *testing.T) {
	// wrong record identifier
	var buf bytes.Buffer
	h := header{Lahey: 42, Ncol: 1, Nrow: 1, Dx: 1, Dy: 1, Xmax: 1, Ymax: 1}
	binary.Write(&buf, binary.LittleEndian, &h)
	if _, err := Read(&buf); err == nil {
		t.Error("bad record identifier accepted")
	}

	// non-equidistant flag
	buf.Reset()
	h = header{Lahey: lahey, Ncol: 1, Nrow: 1, Dx: 1, Dy: 1, Xmax: 1, Ymax: 1, Ieq: 1}
	binary.Write(&buf, binary.LittleEndian, &h)
	if _, err := Read(&buf); err == nil {
		t.Error("non-equidistant file accepted")
	}

	// truncated data section
	buf.Reset()
	h = header{Lahey: lahey, Ncol: 2, Nrow: 2, Dx: 1, Dy: 1, Xmax: 2, Ymax: 2}
	binary.Write(&buf, binary.LittleEndian, &h)
	binary.Write(&buf, binary.LittleEndian, []float32{1})
	if _, err := Read(&buf); err == nil {
		t.Error("truncated file accepted")
	}

	// extent inconsistent with cell size and counts
	buf.Reset()
	h = header{Lahey: lahey, Ncol: 5, Nrow: 5, Dx: 1, Dy: 1, Xmax: 2, Ymax: 2}
	binary.Write(&buf, binary.LittleEndian, &h)
	if _, err := Read(&buf); err == nil {
		t.Error("inconsistent extent accepted")
	}
}
