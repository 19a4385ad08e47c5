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

package ipf

import (
	"bytes"
	"testing"
)

func TestWrite(t *testing.T) {
	f := NewFile("Value")
	if err := f.AddRow(1.5, 2, 7); err != nil {
		t.Fatal(err)
	}
	if err := f.AddRow(3, 4.25, -1); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatal(err)
	}
	want := "2\n3\nX\nY\nValue\n0,TXT\n1.5,2,7\n3,4.25,-1\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestAddRowMismatch(t *testing.T) {
	f := NewFile("Value")
	if err := f.AddRow(1, 2); err == nil {
		t.Error("short row accepted")
	}
}
