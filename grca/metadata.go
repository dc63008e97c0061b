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

package grca

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/enkfprep"
)

// DefaultMetadataFile is the name of the well attribute table. It is
// stored as a point shapefile, whose attribute table (metadata.dbf) holds
// the well information.
const DefaultMetadataFile = "metadata.shp"

// Metadata is the information about a well in the attribute table,
// with the screen information parsed into depths and elevations. Depths are
// measured from the surface in meters, elevations are above mean sea level.
type Metadata struct {
	// Well is the PGMN name of the well.
	Well string

	// Screen is the screen type, e.g. "Open Hole".
	Screen string

	Depth        float64 // well depth
	PiezoDepth   float64 // depth of the piezometer
	ScreenTop    float64 // depth of the top of the screen
	ScreenBottom float64 // depth of the bottom of the screen
	ScreenDepth  float64 // mid-screen depth
	Surface      float64 // surface elevation
	Z            float64 // sampling elevation
	ZTop         float64 // screen top elevation
	ZBottom      float64 // screen bottom elevation
	Lon, Lat     float64
}

// wellRecord is a row in the attribute table.
type wellRecord struct {
	Location   geom.Geom
	Well       string  `shp:"PGMN_WELL"`
	ScreenHole string  `shp:"SCREEN_HOL"`
	Surface    float64 `shp:"ELVA_GROUN"`
	Depth      float64 `shp:"WELL_DEPTH"`
	PiezoDepth float64 `shp:"WEL_PIEZOM"`
}

// metadataCache holds previously read attribute tables.
var metadataCache *requestcache.Cache

var metadataCacheOnce sync.Once

// loadMetadataTable reads all rows of the attribute table in file, using a
// cache to avoid reading the same file more than once.
func loadMetadataTable(file string) ([]wellRecord, error) {
	metadataCacheOnce.Do(func() {
		metadataCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			return readMetadataTable(req.(string))
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(20))
	})
	r := metadataCache.NewRequest(context.Background(), file, file)
	recs, err := r.Result()
	if err != nil {
		return nil, err
	}
	return recs.([]wellRecord), nil
}

func readMetadataTable(file string) ([]wellRecord, error) {
	file = strings.TrimSuffix(file, filepath.Ext(file)) + ".shp"
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("grca: opening metadata: %v: %w", err, enkfprep.ErrMissingPath)
	}
	d, err := shp.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("grca: opening metadata: %v", err)
	}
	defer d.Close()
	var recs []wellRecord
	for {
		var rec wellRecord
		if more := d.DecodeRow(&rec); !more {
			break
		}
		rec.Well = cleanAttribute(rec.Well)
		rec.ScreenHole = cleanAttribute(rec.ScreenHole)
		recs = append(recs, rec)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("grca: reading metadata %s: %v", file, err)
	}
	return recs, nil
}

func cleanAttribute(s string) string { return strings.TrimSpace(strings.Trim(s, "\x00")) }

// LoadMetadata returns the information about the named well in the
// attribute table file. If the well occurs more than once, the last
// occurrence is used.
func LoadMetadata(well, file string) (*Metadata, error) {
	id, no, err := ParseWellName(well)
	if err != nil {
		return nil, err
	}
	name := PGMNName(id, no)
	recs, err := loadMetadataTable(file)
	if err != nil {
		return nil, err
	}
	var rec *wellRecord
	for i := range recs {
		if recs[i].Well == name {
			rec = &recs[i]
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("grca: well %s is not in %s: %w", name, file, enkfprep.ErrValue)
	}

	m := &Metadata{
		Well:       name,
		Surface:    rec.Surface,
		Depth:      rec.Depth,
		PiezoDepth: rec.PiezoDepth,
	}
	if m.Screen, m.ScreenTop, m.ScreenBottom, err = parseScreen(rec.ScreenHole); err != nil {
		return nil, fmt.Errorf("grca: well %s: %w", name, err)
	}
	m.ScreenDepth = (m.ScreenTop + m.ScreenBottom) / 2
	m.Z = m.Surface - m.ScreenDepth
	m.ZTop = m.Surface - m.ScreenTop
	m.ZBottom = m.Surface - m.ScreenBottom
	if p, ok := rec.Location.(geom.Point); ok {
		m.Lon, m.Lat = p.X, p.Y
	} else {
		return nil, fmt.Errorf("grca: well %s location is a %T, not a point: %w", name, rec.Location, enkfprep.ErrType)
	}
	return m, nil
}

// parseScreen parses a screen description of the form
// "TYPE:TOP-BOTTOM", where at least one of the depths carries the
// unit "M".
func parseScreen(s string) (typ string, top, bottom float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", 0, 0, fmt.Errorf("invalid screen %q: %w", s, enkfprep.ErrValue)
	}
	depths := strings.Split(strings.TrimSpace(parts[1]), "-")
	if len(depths) != 2 {
		return "", 0, 0, fmt.Errorf("screen %q does not have a top and a bottom: %w", s, enkfprep.ErrValue)
	}
	var d [2]float64
	unit := false
	for i, v := range depths {
		v = strings.TrimSpace(v)
		if strings.HasSuffix(v, "M") {
			unit = true
			v = strings.TrimSuffix(v, "M")
		}
		if d[i], err = strconv.ParseFloat(v, 64); err != nil {
			return "", 0, 0, fmt.Errorf("screen %q: %v: %w", s, err, enkfprep.ErrValue)
		}
	}
	if !unit {
		return "", 0, 0, fmt.Errorf("screen %q depths have no unit: %w", s, enkfprep.ErrValue)
	}
	return titleCase(strings.TrimSpace(parts[0])), d[0], d[1], nil
}

// titleCase capitalizes the first letter of each word in s and
// lower-cases the rest.
func titleCase(s string) string {
	r := []rune(s)
	prev := false
	for i, c := range r {
		if prev {
			r[i] = unicode.ToLower(c)
		} else {
			r[i] = unicode.ToUpper(c)
		}
		prev = unicode.IsLetter(c)
	}
	return string(r)
}
