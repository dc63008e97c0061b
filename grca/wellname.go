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

// Package grca loads the transient water level records of the Grand River
// Conservation Authority (GRCA) observation wells and converts them to
// NetCDF time series and climatologies.
package grca

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spatialmodel/enkfprep"
)

// ParseWellName breaks a well name such as "W178", "W347-3" or the name of a
// well's spreadsheet file ("W347-3.xlsx") down into the well ID and the well
// number. The well number is 1 if it is not specified.
func ParseWellName(name string) (id, no int, err error) {
	well := strings.ToUpper(strings.TrimSpace(name))
	if parts := strings.Split(well, "."); len(parts) > 1 {
		well = strings.Join(parts[:len(parts)-1], ".")
	}
	no = 1
	if i := strings.Index(well, "-"); i >= 0 {
		no, err = strconv.Atoi(well[i+1:])
		if err != nil {
			return 0, 0, fmt.Errorf("grca: invalid well number in %q: %w", name, enkfprep.ErrValue)
		}
		well = well[:i]
	}
	well = strings.TrimPrefix(well, "W")
	id, err = strconv.Atoi(well)
	if err != nil {
		return 0, 0, fmt.Errorf("grca: invalid well ID in %q: %w", name, enkfprep.ErrValue)
	}
	return id, no, nil
}

// XLSFilename returns the name of the spreadsheet holding the record of the
// given well.
func XLSFilename(id, no int) string {
	if no > 1 {
		return fmt.Sprintf("W%03d-%d.xlsx", id, no)
	}
	return fmt.Sprintf("W%03d.xlsx", id)
}

// PGMNName returns the name of the well in the Provincial Groundwater
// Monitoring Network, which is how wells are identified in the metadata
// table.
func PGMNName(id, no int) string {
	return fmt.Sprintf("W%07d-%d", id, no)
}
