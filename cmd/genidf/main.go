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

// Command genidf is a command-line converter between GEN vector and
// IDF raster files.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/genidf/genidfutil"
)

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

func main() {
	if err := genidfutil.Root.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
