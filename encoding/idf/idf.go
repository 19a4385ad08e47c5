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

// Package idf reads and writes iMOD IDF raster files.
//
// An IDF file is little-endian binary: a header record starting with
// the Lahey record-length identifier 1271, the column and row counts,
// the extent (xmin, xmax, ymin, ymax), the data minimum and maximum,
// the NoData sentinel, four flag bytes (ieq, itb, ivf, itp), the cell
// sizes dx and dy, and then nrow x ncol float32 values in row-major
// order from the northwest corner (north to south, west to east).
// Only equidistant grids (ieq == 0) without top/bottom records
// (itb == 0) are supported.
package idf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/genidf/internal/genidf"
)

// lahey is the record-length identifier beginning every IDF file.
const lahey int32 = 1271

type header struct {
	Lahey                  int32
	Ncol, Nrow             int32
	Xmin, Xmax, Ymin, Ymax float32
	Dmin, Dmax             float32
	NoData                 float32
	Ieq, Itb, Ivf, Itp     byte
	Dx, Dy                 float32
}

// ReadFile reads the IDF file at the given path.
func ReadFile(filename string) (*genidf.Grid, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("idf: opening %s: %v", filename, err)
	}
	defer f.Close()
	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("idf: reading %s: %v", filename, err)
	}
	return g, nil
}

// Read reads an IDF raster from r.
func Read(r io.Reader) (*genidf.Grid, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Lahey != lahey {
		return nil, fmt.Errorf("not an IDF file: record identifier %d", h.Lahey)
	}
	if h.Ieq != 0 {
		return nil, fmt.Errorf("non-equidistant IDF files are not supported")
	}
	if h.Itb != 0 {
		return nil, fmt.Errorf("IDF files with top/bottom records are not supported")
	}
	if h.Ncol < 1 || h.Nrow < 1 {
		return nil, fmt.Errorf("invalid IDF dimensions %d x %d", h.Ncol, h.Nrow)
	}
	b := &geom.Bounds{
		Min: geom.Point{X: float64(h.Xmin), Y: float64(h.Ymin)},
		Max: geom.Point{X: float64(h.Xmax), Y: float64(h.Ymax)},
	}
	g, err := genidf.NewGrid(b, float64(h.Dx), float64(h.Dy), float64(h.NoData))
	if err != nil {
		return nil, err
	}
	if g.Nx() != int(h.Ncol) || g.Ny() != int(h.Nrow) {
		return nil, fmt.Errorf("IDF extent %v does not match %d x %d cells of %g x %g",
			b, h.Ncol, h.Nrow, h.Dx, h.Dy)
	}
	values := make([]float32, int(h.Ncol)*int(h.Nrow))
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return nil, fmt.Errorf("reading %d values: %v", len(values), err)
	}
	for i, v := range values {
		g.Data.Elements[i] = float64(v)
	}
	return g, nil
}

// WriteFile writes g to an IDF file at the given path.
func WriteFile(filename string, g *genidf.Grid) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("idf: creating %s: %v", filename, err)
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return fmt.Errorf("idf: writing %s: %v", filename, err)
	}
	return f.Close()
}

// Write writes g to w in IDF format. Values are narrowed to float32.
func Write(w io.Writer, g *genidf.Grid) error {
	b := g.Bounds()
	h := header{
		Lahey:  lahey,
		Ncol:   int32(g.Nx()),
		Nrow:   int32(g.Ny()),
		Xmin:   float32(b.Min.X),
		Xmax:   float32(b.Max.X),
		Ymin:   float32(b.Min.Y),
		Ymax:   float32(b.Max.Y),
		NoData: float32(g.NoData),
		Dx:     float32(g.Dx),
		Dy:     float32(g.Dy),
	}
	dmin, dmax := math.Inf(1), math.Inf(-1)
	for _, v := range g.Data.Elements {
		if v == g.NoData {
			continue
		}
		dmin = math.Min(dmin, v)
		dmax = math.Max(dmax, v)
	}
	if dmin <= dmax {
		h.Dmin = float32(dmin)
		h.Dmax = float32(dmax)
	} else { // no data cells at all
		h.Dmin = float32(g.NoData)
		h.Dmax = float32(g.NoData)
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	values := make([]float32, len(g.Data.Elements))
	for i, v := range g.Data.Elements {
		values[i] = float32(v)
	}
	return binary.Write(w, binary.LittleEndian, values)
}
