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
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/enkfprep"
	"github.com/tealeg/xlsx"
)

// xlsRow is a row of a well record; an empty head is a missing value.
type xlsRow struct {
	time string
	head string
}

// writeXLS writes a well record spreadsheet to dir.
func writeXLS(t *testing.T, dir, filename, headLabel string, rows []xlsRow) {
	f := xlsx.NewFile()
	sh, err := f.AddSheet(Sheet)
	if err != nil {
		t.Fatal(err)
	}
	r := sh.AddRow()
	r.AddCell().SetString("Date Set")
	r.AddCell().SetString(headLabel)
	for _, row := range rows {
		r := sh.AddRow()
		r.AddCell().SetString(row.time)
		r.AddCell().SetString(row.head)
	}
	if err := f.Save(filepath.Join(dir, filename)); err != nil {
		t.Fatal(err)
	}
}

// monthlyRecord returns a record from January 2000 with two samples per
// month; month m has a mean head of base+m+0.25.
func monthlyRecord(base float64, months int) []xlsRow {
	var o []xlsRow
	for m := 0; m < months; m++ {
		d := time.Date(2000, time.Month(m+1), 5, 0, 0, 0, 0, time.UTC)
		o = append(o,
			xlsRow{d.Format("2006-01-02 15:04:05"), fmt.Sprint(base + float64(m))},
			xlsRow{d.AddDate(0, 0, 15).Format("2006-01-02 15:04:05"), fmt.Sprint(base + float64(m) + 0.5)},
		)
	}
	return o
}

func writeW178(t *testing.T, dir string) {
	rows := monthlyRecord(300, 24)
	rows = append(rows,
		xlsRow{"2000-03-12 00:00:00", "1000"}, // outlier
		xlsRow{"2000-02-05 00:00:00", "999"},  // repeated time
		xlsRow{"2000-04-07 00:00:00", ""},     // missing
		xlsRow{"", ""},
	)
	writeXLS(t, dir, "W178.xlsx", "Water Level Logger W178 (m)", rows)
}

func TestLoadXLS(t *testing.T) {
	dir := t.TempDir()
	writeW178(t, dir)
	s, err := LoadXLS(XLSOptions{Well: "W178", Folder: dir, Period: Period{Start: 2000, End: 2002}})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 24 {
		t.Fatalf("have %d months, want 24", s.Len())
	}
	for m, v := range s.Values {
		if want := 300 + float64(m) + 0.25; math.Abs(v-want) > 1e-9 {
			t.Errorf("month %d: have %g, want %g", m, v, want)
		}
	}
	if want := time.Date(2000, time.January, 31, 0, 0, 0, 0, time.UTC); !s.Times[0].Equal(want) {
		t.Errorf("first month: %v", s.Times[0])
	}
}

func TestLoadXLSOutliers(t *testing.T) {
	dir := t.TempDir()
	writeW178(t, dir)
	s, err := LoadXLS(XLSOptions{Filename: "W178.xlsx", Folder: dir, KeepOutliers: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := (302 + 302.5 + 1000) / 3.; math.Abs(s.Values[2]-want) > 1e-9 {
		t.Errorf("March: have %g, want %g", s.Values[2], want)
	}
}

func TestLoadXLSPeriod(t *testing.T) {
	dir := t.TempDir()
	writeW178(t, dir)
	_, err := LoadXLS(XLSOptions{Well: "W178", Folder: dir, Period: Period{Start: 2001, End: 2002}})
	if !errors.Is(err, ErrDate) || !errors.Is(err, enkfprep.ErrValue) {
		t.Errorf("have error %v, want date error", err)
	}
	s, err := LoadXLS(XLSOptions{Well: "W178", Folder: dir, Period: Period{Start: 2001, End: 2003}, Trim: true})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 24 {
		t.Fatalf("have %d months, want 24", s.Len())
	}
	if s.Values[0] != 312.25 || !math.IsNaN(s.Values[12]) {
		t.Errorf("values: %v", s.Values)
	}
}

func TestLoadXLSErrors(t *testing.T) {
	dir := t.TempDir()
	writeW178(t, dir)
	writeXLS(t, dir, "W179.xlsx", "Water Level Logger W178 (m)", monthlyRecord(300, 2))
	tests := []struct {
		name string
		o    XLSOptions
		err  error
	}{
		{name: "both", o: XLSOptions{Well: "W178", Filename: "W178.xlsx", Folder: dir}, err: enkfprep.ErrValue},
		{name: "neither", o: XLSOptions{Folder: dir}, err: enkfprep.ErrValue},
		{name: "missing", o: XLSOptions{Well: "W180", Folder: dir}, err: enkfprep.ErrMissingPath},
		{name: "header", o: XLSOptions{Well: "W179", Folder: dir}, err: enkfprep.ErrValue},
		{name: "period", o: XLSOptions{Well: "W178", Folder: dir, Period: Period{Start: 2002, End: 2000}}, err: enkfprep.ErrValue},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := LoadXLS(test.o); !errors.Is(err, test.err) {
				t.Errorf("have error %v, want %v", err, test.err)
			}
		})
	}
}

func TestCheckHeader(t *testing.T) {
	if err := checkHeader([]string{"Date Set", "Water Level Logger W347 (m)"}, 347); err != nil {
		t.Error(err)
	}
	for _, h := range [][]string{
		{"Date", "Water Level Logger W347"},
		{"Date Set", "Water Level W347"},
		{"Date Set", "Water Level Logger W348"},
		{"Date Set"},
	} {
		if err := checkHeader(h, 347); !errors.Is(err, enkfprep.ErrValue) {
			t.Errorf("%v: have error %v, want value error", h, err)
		}
	}
}
