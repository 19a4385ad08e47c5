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

// Package genidfutil provides the configuration and command-line
// interface for the genidf program.
package genidfutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/genidf"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds the global configuration.
var Cfg *viper.Viper

// options are the configuration options available to GenIDF.
var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CellSize",
			usage: `
              CellSize is the raster resolution [m] used when converting
              vector files to rasters.`,
			defaultVal: float64(genidf.DefaultCellSize),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "NoData",
			usage: `
              NoData is the sentinel value written to raster cells not
              covered by any feature.`,
			defaultVal: float64(genidf.DefaultNoData),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "HullType",
			usage: `
              HullType selects the raster-to-vector mode: 0 writes cell
              center points only, 1 a convex hull, 2 a concave hull,
              3 traced cell boundaries, 4 traced boundaries plus outer
              cell points, and 5 traced boundaries without islands.`,
			defaultVal: int(genidf.HullConvex),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "ConcaveK",
			usage: `
              ConcaveK is the number of nearest neighbours considered by
              the concave hull (HullType 2); it must be at least 3.`,
			defaultVal: genidf.DefaultConcaveK,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "SkipRanges",
			usage: `
              SkipRanges lists value ranges to leave out of the
              conversion, each either a single value ("0") or an
              inclusive range ("10:20").`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "ValueColumn",
			usage: `
              ValueColumn is the 1-based DAT attribute column whose
              values are written to the raster. 0 disables column
              lookup.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "ValueExpression",
			usage: `
              ValueExpression is an arithmetic expression evaluated per
              feature over its DAT attributes, for example
              "(top - bottom) * 0.5". Column names are the variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "ValueConstant",
			usage: `
              ValueConstant is a fixed value written for every feature.
              Leave empty to fall back to the feature number.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "OverlapMethod",
			usage: `
              OverlapMethod decides the value kept where features
              overlap in a cell: 0 default (first for polygons, last
              for lines), 1 first, 2 minimum, 3 maximum, 4 sum,
              5 largest cell overlap, 6 area-weighted average,
              7 smallest cell overlap, 8 largest feature area,
              9 smallest feature area, 10 last.`,
			defaultVal: int(genidf.OverlapDefault),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "CellOverlapMethod",
			usage: `
              CellOverlapMethod decides when a cell belongs to a
              polygon: 1 when its center is inside, 2 when the true
              overlap area is greater than zero.`,
			defaultVal: int(genidf.CellCenter),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Angle",
			usage: `
              Angle additionally writes a raster holding the direction
              [degrees] each line crosses its cells.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Length",
			usage: `
              Length additionally writes a raster holding the line
              length accumulated in each cell. Polygon overlap areas
              go to a separate area raster in the true-overlap mode.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "OrderBySize",
			usage: `
              OrderBySize processes features from largest to smallest so
              small features are not hidden under large ones.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "IgnoreWinding",
			usage: `
              IgnoreWinding suppresses the warning for polygons whose
              outer ring is wound counter-clockwise.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Merge",
			usage: `
              Merge collects the vector output of all input files into a
              single merged.gen file with renumbered feature IDs.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Shapefile",
			usage: `
              Shapefile additionally writes extracted polygons as an
              ESRI shapefile.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "GeoJSON",
			usage: `
              GeoJSON additionally writes extracted features as a
              GeoJSON feature collection.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "MaskGeoJSON",
			usage: `
              MaskGeoJSON is the path to a GeoJSON file with a polygon
              restricting the conversion; cells outside it are left as
              NoData.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory output files are written to.
              When empty, outputs go next to their inputs.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GENIDF")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("genidf: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "genidf",
	Short: "A converter between GEN vector and IDF raster files.",
	Long: `GenIDF converts iMOD GEN vector files (with their DAT attribute
tables) to IDF raster files and back. Use the subcommands specified
below to access the functionality.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'GENIDF_var'
where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of GenIDF.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("GenIDF v%s\n", genidf.Version)
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert file...",
	Short: "Convert between GEN and IDF files.",
	Long: `convert converts each of the given files, choosing the direction by
extension: .gen vector files are rasterized to .idf, and .idf raster
files are vectorized to .gen (or .ipf point files, depending on
HullType). A provenance sidecar with the .met extension is written next
to each output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		cv, err := genidf.NewConverter(*c)
		if err != nil {
			return err
		}
		return cv.Run(args...)
	},
	DisableAutoGenTag: true,
}
