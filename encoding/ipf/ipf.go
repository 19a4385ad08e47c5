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

// Package ipf writes iMOD IPF point files.
//
// An IPF file is plain text: the point count, the column count, one
// column name per line (the first two are X and Y), an associated-file
// line (here always "0,TXT"), and then one comma-separated row per
// point.
package ipf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// A File is an in-memory IPF point file: named float columns, the
// first two being the X and Y coordinates.
type File struct {
	Columns []string
	Rows    [][]float64
}

// NewFile creates an IPF file with X and Y plus the given extra
// columns.
func NewFile(extraColumns ...string) *File {
	return &File{Columns: append([]string{"X", "Y"}, extraColumns...)}
}

// AddRow appends a point row. The number of values must match the
// number of columns.
func (f *File) AddRow(values ...float64) error {
	if len(values) != len(f.Columns) {
		return fmt.Errorf("ipf: row has %d values for %d columns", len(values), len(f.Columns))
	}
	f.Rows = append(f.Rows, values)
	return nil
}

// WriteFile writes f to the given path.
func WriteFile(filename string, f *File) error {
	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("ipf: creating %s: %v", filename, err)
	}
	if err := Write(w, f); err != nil {
		w.Close()
		return fmt.Errorf("ipf: writing %s: %v", filename, err)
	}
	return w.Close()
}

// Write writes f to w in IPF format.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, len(f.Rows))
	fmt.Fprintln(bw, len(f.Columns))
	for _, c := range f.Columns {
		fmt.Fprintln(bw, c)
	}
	fmt.Fprintln(bw, "0,TXT")
	for _, row := range f.Rows {
		for i, v := range row {
			if i > 0 {
				if _, err := bw.WriteString(","); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
