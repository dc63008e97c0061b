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
	"errors"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/enkfprep"
)

type metaRow struct {
	well, screen       string
	surface, depth, pz float64
	x, y               float64
}

var testMetadata = []metaRow{
	{"W0000178-1", "OPEN HOLE:10.5M-20M", 320, 25, 15, -80.5, 43.4},
	{"W0000347-3", "SCREEN:5-8M", 300, 10, 7, -80.3, 43.6},
	{"W0000347-3", "SCREEN:6-9M", 301, 10, 7, -80.3, 43.6},
	{"W0000400-1", "SCREEN:5-8", 300, 10, 7, -80.1, 43.1},
	{"W0000401-1", "SCREEN 5-8M", 300, 10, 7, -80.1, 43.1},
}

// writeMetadata writes the well attribute table to dir and returns its path.
func writeMetadata(t *testing.T, dir string) string {
	path := filepath.Join(dir, DefaultMetadataFile)
	e, err := shp.NewEncoderFromFields(path, goshp.POINT,
		goshp.StringField("PGMN_WELL", 20),
		goshp.StringField("SCREEN_HOL", 40),
		goshp.FloatField("ELVA_GROUN", 12, 3),
		goshp.FloatField("WELL_DEPTH", 12, 3),
		goshp.FloatField("WEL_PIEZOM", 12, 3),
	)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range testMetadata {
		if err := e.EncodeFields(geom.Point{X: r.x, Y: r.y}, r.well, r.screen, r.surface, r.depth, r.pz); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()
	return path
}

func TestLoadMetadata(t *testing.T) {
	file := writeMetadata(t, t.TempDir())
	m, err := LoadMetadata("W178", file)
	if err != nil {
		t.Fatal(err)
	}
	want := Metadata{
		Well:         "W0000178-1",
		Screen:       "Open Hole",
		Depth:        25,
		PiezoDepth:   15,
		ScreenTop:    10.5,
		ScreenBottom: 20,
		ScreenDepth:  15.25,
		Surface:      320,
		Z:            304.75,
		ZTop:         309.5,
		ZBottom:      300,
		Lon:          -80.5,
		Lat:          43.4,
	}
	if *m != want {
		t.Errorf("have %+v\nwant %+v", *m, want)
	}

	// The last record of a well is used.
	m, err = LoadMetadata("W347-3.xlsx", file)
	if err != nil {
		t.Fatal(err)
	}
	if m.Screen != "Screen" || m.ScreenTop != 6 || m.ScreenBottom != 9 || m.Z != 293.5 {
		t.Errorf("have %+v", *m)
	}
}

func TestLoadMetadataErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeMetadata(t, dir)
	tests := []struct {
		well, file string
		err        error
	}{
		{"W178", filepath.Join(dir, "nope.shp"), enkfprep.ErrMissingPath},
		{"W999", file, enkfprep.ErrValue},
		{"W400", file, enkfprep.ErrValue},
		{"W401", file, enkfprep.ErrValue},
	}
	for _, test := range tests {
		if _, err := LoadMetadata(test.well, test.file); !errors.Is(err, test.err) {
			t.Errorf("%s: have error %v, want %v", test.well, err, test.err)
		}
	}
}

func TestParseScreen(t *testing.T) {
	typ, top, bottom, err := parseScreen("OVERBURDEN SCREEN:3.2M-4.7M")
	if err != nil {
		t.Fatal(err)
	}
	if typ != "Overburden Screen" || top != 3.2 || bottom != 4.7 {
		t.Errorf("have %q, %g, %g", typ, top, bottom)
	}
	for _, s := range []string{"SCREEN:3-4-5M", "SCREEN:3M", "SCREEN:aM-4M", ""} {
		if _, _, _, err := parseScreen(s); !errors.Is(err, enkfprep.ErrValue) {
			t.Errorf("%q: have error %v, want value error", s, err)
		}
	}
}
