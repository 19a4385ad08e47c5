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

package genidfutil

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/genidf"
	"github.com/spf13/cast"
)

// ConfigFromViper builds a conversion configuration from the given
// viper configuration.
func ConfigFromViper(cfg *viper.Viper) (*genidf.Config, error) {
	skip, err := parseSkipRanges(cfg.GetStringSlice("SkipRanges"))
	if err != nil {
		return nil, err
	}
	mask, err := parseMask(cfg.GetString("MaskGeoJSON"))
	if err != nil {
		return nil, err
	}
	outDir, err := checkOutputDir(cfg.GetString("OutputDir"))
	if err != nil {
		return nil, err
	}
	c := &genidf.Config{
		CellSize:      cfg.GetFloat64("CellSize"),
		NoData:        cfg.GetFloat64("NoData"),
		Hull:          genidf.HullType(cfg.GetInt("HullType")),
		K:             cfg.GetInt("ConcaveK"),
		SkipRanges:    skip,
		Overlap:       genidf.OverlapMethod(cfg.GetInt("OverlapMethod")),
		CellOverlap:   genidf.CellOverlapMethod(cfg.GetInt("CellOverlapMethod")),
		Angle:         cfg.GetBool("Angle"),
		Length:        cfg.GetBool("Length"),
		OrderBySize:   cfg.GetBool("OrderBySize"),
		IgnoreWinding: cfg.GetBool("IgnoreWinding"),
		Merge:         cfg.GetBool("Merge"),
		Shapefile:     cfg.GetBool("Shapefile"),
		GeoJSON:       cfg.GetBool("GeoJSON"),
		Mask:          mask,
		OutputDir:     outDir,
	}
	c.Values.Column = cfg.GetInt("ValueColumn")
	c.Values.Expression = cfg.GetString("ValueExpression")
	if s := cfg.GetString("ValueConstant"); s != "" {
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, fmt.Errorf("genidf: invalid ValueConstant %q: %v", s, err)
		}
		c.Values.Constant = v
		c.Values.HasConstant = true
	}
	return c, nil
}

// parseSkipRanges parses skip range specifications: either a single
// value ("0") or an inclusive low:high range ("10:20").
func parseSkipRanges(specs []string) ([]genidf.ValueRange, error) {
	var ranges []genidf.ValueRange
	for _, s := range specs {
		parts := strings.SplitN(s, ":", 2)
		v1, err := cast.ToFloat64E(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("genidf: invalid skip range %q: %v", s, err)
		}
		v2 := v1
		if len(parts) == 2 {
			v2, err = cast.ToFloat64E(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, fmt.Errorf("genidf: invalid skip range %q: %v", s, err)
			}
		}
		if v2 < v1 {
			v1, v2 = v2, v1
		}
		ranges = append(ranges, genidf.ValueRange{V1: v1, V2: v2})
	}
	return ranges, nil
}

// parseMask returns a mask polygon represented by the
// given GeoJSON file.
func parseMask(maskGeoJSONFile string) (geom.Polygon, error) {
	var mask geom.Polygon
	if m := maskGeoJSONFile; m != "" {
		f, err := os.Open(os.ExpandEnv(m))
		if err != nil {
			return nil, fmt.Errorf("opening mask file: %v", err)
		}
		defer f.Close()
		b, err := ioutil.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading mask file: %v", err)
		}
		j, err := geojson.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("decoding MaskGeoJSON: %v", err)
		}
		switch msk := j.(type) {
		case geom.Polygon:
			mask = msk
		case geom.MultiPolygon:
			for _, p := range msk {
				mask = append(mask, p...)
			}
		default:
			return nil, fmt.Errorf("invalid mask geometry type %T", j)
		}
	}
	return mask, nil
}

// checkOutputDir expands any environment variables in d and makes sure
// it exists.
func checkOutputDir(d string) (string, error) {
	if d == "" {
		return "", nil
	}
	d = os.ExpandEnv(d)
	if err := os.MkdirAll(d, os.ModePerm); err != nil {
		return d, fmt.Errorf("genidf: creating output directory: %v", err)
	}
	return d, nil
}
