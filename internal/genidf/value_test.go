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

	"github.com/ctessum/geom"
)

func valueTestCollection(t *testing.T) *FeatureCollection {
	t.Helper()
	fc := &FeatureCollection{Attributes: NewAttributeTable("top", "bottom")}
	fc.Add(&Feature{Geom: geom.Point{X: 0, Y: 0}, ID: "1"})
	fc.Add(&Feature{Geom: geom.Point{X: 1, Y: 1}, ID: "2"})
	if err := fc.Attributes.AddRow("1", []string{"10", "4"}); err != nil {
		t.Fatal(err)
	}
	if err := fc.Attributes.AddRow("2", []string{"bad", "6"}); err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestValueSourceColumn(t *testing.T) {
	fc := valueTestCollection(t)
	vs := ValueSource{Column: 1}
	if err := vs.Validate(); err != nil {
		t.Fatal(err)
	}
	v, ok := vs.Value(fc, 0, fc.Features[0])
	if !ok || different(v, 10) {
		t.Errorf("column value = %g, %v", v, ok)
	}
	// an unparseable attribute falls through to the sequence number
	v, ok = vs.Value(fc, 1, fc.Features[1])
	if !ok || different(v, 2) {
		t.Errorf("fallback value = %g, %v", v, ok)
	}
}

func TestValueSourceExpression(t *testing.T) {
	fc := valueTestCollection(t)
	vs := ValueSource{Expression: "(top - bottom) / 2"}
	if err := vs.Validate(); err != nil {
		t.Fatal(err)
	}
	v, ok := vs.Value(fc, 0, fc.Features[0])
	if !ok || different(v, 3) {
		t.Errorf("expression value = %g, %v", v, ok)
	}

	bad := ValueSource{Expression: "top +* bottom"}
	if err := bad.Validate(); err == nil {
		t.Error("invalid expression accepted")
	}
}

func TestValueSourceConstantAndFallback(t *testing.T) {
	fc := &FeatureCollection{}
	fc.Add(&Feature{Geom: geom.Point{X: 0, Y: 0}, ID: "1"})

	vs := ValueSource{Constant: 42, HasConstant: true}
	if v, ok := vs.Value(fc, 0, fc.Features[0]); !ok || different(v, 42) {
		t.Errorf("constant value = %g, %v", v, ok)
	}

	// without any source the value is the feature sequence number
	vs = ValueSource{}
	if v, ok := vs.Value(fc, 0, fc.Features[0]); !ok || different(v, 1) {
		t.Errorf("sequence value = %g, %v", v, ok)
	}
}

func TestValueSourceSkipRange(t *testing.T) {
	fc := &FeatureCollection{}
	fc.Add(&Feature{Geom: geom.Point{X: 0, Y: 0}, ID: "1"})
	vs := ValueSource{Constant: 5, HasConstant: true,
		SkipRanges: []ValueRange{{V1: 5, V2: 5}}}
	if _, ok := vs.Value(fc, 0, fc.Features[0]); ok {
		t.Error("value in skip range not skipped")
	}
}
