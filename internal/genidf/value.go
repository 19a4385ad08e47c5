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
	"fmt"
	"log"
	"strconv"

	"github.com/Knetic/govaluate"
)

// A ValueSource resolves the raster value to write for each feature
// during vector-to-raster conversion. Sources are tried in order:
// the configured DAT column, the expression, the constant, and finally
// the fallback sequence value (feature index + 1). A resolved value
// inside any skip range excludes the feature from rasterization
// entirely.
type ValueSource struct {
	// Column is the 1-based attribute-table column holding the value;
	// 0 disables column lookup.
	Column int

	// Expression is an optional expression over the feature's
	// attribute-table columns, evaluated when the column lookup does
	// not apply.
	Expression string

	// Constant is used when neither the column nor the expression
	// yields a value and HasConstant is true.
	Constant    float64
	HasConstant bool

	SkipRanges []ValueRange

	expr *govaluate.EvaluableExpression
}

// Validate compiles the expression, if any. It must be called before
// Value; an error here is a configuration error.
func (vs *ValueSource) Validate() error {
	if vs.Expression == "" {
		return nil
	}
	expr, err := govaluate.NewEvaluableExpression(vs.Expression)
	if err != nil {
		return fmt.Errorf("genidf: invalid value expression %q: %v", vs.Expression, err)
	}
	vs.expr = expr
	return nil
}

// Value resolves the raster value for feature f at index i in fc.
// ok is false when the feature must be skipped because its value falls
// inside a skip range. Unparseable attribute values and failing
// expressions are warnings; resolution falls through to the next source.
func (vs *ValueSource) Value(fc *FeatureCollection, i int, f *Feature) (v float64, ok bool) {
	v, resolved := vs.resolve(fc, i, f)
	if !resolved {
		v = float64(i + 1)
	}
	if inRanges(v, vs.SkipRanges) {
		return v, false
	}
	return v, true
}

func (vs *ValueSource) resolve(fc *FeatureCollection, i int, f *Feature) (float64, bool) {
	if vs.Column > 0 && fc.Attributes != nil {
		if s, ok := fc.Attributes.Value(f.ID, vs.Column); ok {
			v, err := strconv.ParseFloat(s, 64)
			if err == nil {
				return v, true
			}
			log.Printf("genidf: feature %s: attribute column %d value %q is not a number; using default value",
				f.ID, vs.Column, s)
		}
	}
	if vs.expr != nil && fc.Attributes != nil {
		if row, ok := fc.Attributes.Row(f.ID); ok {
			params := make(map[string]interface{}, len(row))
			for j, name := range fc.Attributes.Columns() {
				if x, err := strconv.ParseFloat(row[j], 64); err == nil {
					params[name] = x
				} else {
					params[name] = row[j]
				}
			}
			result, err := vs.expr.Evaluate(params)
			if err == nil {
				if x, isFloat := result.(float64); isFloat {
					return x, true
				}
				log.Printf("genidf: feature %s: value expression returned non-numeric %v",
					f.ID, result)
			} else {
				log.Printf("genidf: feature %s: value expression failed: %v", f.ID, err)
			}
		}
	}
	if vs.HasConstant {
		return vs.Constant, true
	}
	return 0, false
}
