/*
Copyright © 2018 the EnKFPrep authors.
This file is part of EnKFPrep.

EnKFPrep is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EnKFPrep is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EnKFPrep.  If not, see <http://www.gnu.org/licenses/>.
*/

package enkfprep

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Number formats used in the EnKF input files. The solver reads these
// files with list-directed Fortran input, but the layout is kept
// identical to what earlier versions of the tooling produced.
const (
	nodeFmt  = "%18.0f" // node numbers; must be read as integers
	iniFmt   = "%.18f"  // log10 head in IC files
	bdyFmt   = "%18e"   // boundary values
	bdyWidth = 18
	obsFmt   = "%.18e" // observation values
	errFmt   = "%18f"  // observation error in the obs file header
	bdySep   = "  "
	obsSep   = "   "
)

// formatFloat formats v with verb. Non-finite values are written as
// "nan", "inf" and "-inf", right-aligned to width.
func formatFloat(verb string, width int, v float64) string {
	var s string
	switch {
	case math.IsNaN(v):
		s = "nan"
	case math.IsInf(v, 1):
		s = "inf"
	case math.IsInf(v, -1):
		s = "-inf"
	default:
		return fmt.Sprintf(verb, v)
	}
	return fmt.Sprintf("%*s", width, s)
}

// joinFloats formats each value in vals and joins them with sep.
func joinFloats(vals []float64, verb string, width int, sep string) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = formatFloat(verb, width, v)
	}
	return strings.Join(s, sep)
}

// checkDir makes sure that dir exists and is a directory.
func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("enkfprep: output folder %q: %v: %w", dir, err, ErrMissingPath)
	}
	if !fi.IsDir() {
		return fmt.Errorf("enkfprep: output folder %q is not a directory: %w", dir, ErrMissingPath)
	}
	return nil
}
