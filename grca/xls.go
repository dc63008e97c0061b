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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/enkfprep"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/stat"
)

// Sheet is the name of the worksheet holding the water level record.
const Sheet = "ChartData"

// ErrDate is returned when a water level record extends beyond the
// requested period.
var ErrDate = fmt.Errorf("grca: record outside of period: %w", enkfprep.ErrValue)

// Period is a range of years. Records cover the period from January 1st of
// Start to January 1st of End.
type Period struct {
	Start, End int
}

// DefaultPeriod is the approximate period for which water level records
// are available.
var DefaultPeriod = Period{Start: 2000, End: 2015}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool { return p.Start == 0 && p.End == 0 }

func (p Period) String() string { return fmt.Sprintf("%d-%d", p.Start, p.End) }

// Bounds returns the first and last instant of the period.
func (p Period) Bounds() (start, end time.Time) {
	return time.Date(p.Start, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(p.End, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// check makes sure the period covers at least one year.
func (p Period) check() error {
	if p.End <= p.Start {
		return fmt.Errorf("grca: invalid period %s: %w", p, enkfprep.ErrValue)
	}
	return nil
}

// XLSOptions specify which spreadsheet is loaded and how its record is
// processed.
type XLSOptions struct {
	// Exactly one of Well and Filename must be specified.
	Well, Filename string

	// Folder is the folder holding the spreadsheets.
	Folder string

	// KeepOutliers disables the removal of heads that are three or more
	// standard deviations away from the mean.
	KeepOutliers bool

	// Sampling is the frequency the record is averaged to. The default is
	// monthly.
	Sampling enkfprep.Frequency

	// Period, if set, is the period the record is reindexed to.
	Period Period

	// Trim allows records that extend beyond Period; otherwise ErrDate is
	// returned for them.
	Trim bool
}

// LoadXLS loads the water level record of a well from its spreadsheet,
// removes missing values, duplicate times and outliers, and resamples it.
func LoadXLS(o XLSOptions) (*enkfprep.Series, error) {
	var id int
	var err error
	switch {
	case o.Well != "" && o.Filename != "":
		return nil, fmt.Errorf("grca: only one of well and filename may be specified: %w", enkfprep.ErrValue)
	case o.Well != "":
		var no int
		if id, no, err = ParseWellName(o.Well); err != nil {
			return nil, err
		}
		o.Filename = XLSFilename(id, no)
	case o.Filename != "":
		if id, _, err = ParseWellName(filepath.Base(o.Filename)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("grca: no well or filename specified: %w", enkfprep.ErrValue)
	}
	path := filepath.Join(o.Folder, o.Filename)

	s, err := readXLS(path, id)
	if err != nil {
		return nil, err
	}
	if !o.KeepOutliers {
		s = removeOutliers(s)
	}
	freq := o.Sampling
	if freq.IsZero() {
		freq, _ = enkfprep.ParseFrequency("M")
	}
	s = s.Resample(freq)
	if o.Period.IsZero() {
		return s, nil
	}
	if err := o.Period.check(); err != nil {
		return nil, err
	}
	start, end := o.Period.Bounds()
	if !o.Trim && s.Len() > 0 {
		if s.Times[0].Before(start) || s.Times[s.Len()-1].After(end) {
			return nil, fmt.Errorf("%s (%s to %s) and %s: %w", path,
				s.Times[0].Format("2006-01-02"), s.Times[s.Len()-1].Format("2006-01-02"), o.Period, ErrDate)
		}
	}
	return s.Reindex(freq.Range(start, end)), nil
}

// readXLS reads the time and head columns of the record of well id,
// dropping missing heads and all but the first of repeated times.
func readXLS(path string, id int) (*enkfprep.Series, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("grca: %v: %w", err, enkfprep.ErrMissingPath)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("grca: opening xlsx file: %v", err)
	}
	sh, ok := f.Sheet[Sheet]
	if !ok {
		return nil, fmt.Errorf("grca: %s has no sheet %s: %w", path, Sheet, enkfprep.ErrValue)
	}
	if len(sh.Rows) == 0 {
		return nil, fmt.Errorf("grca: sheet %s in %s is empty: %w", Sheet, path, enkfprep.ErrShape)
	}
	if err := checkHeader(cellValues(sh.Rows[0]), id); err != nil {
		return nil, fmt.Errorf("grca: %s: %w", path, err)
	}

	s := &enkfprep.Series{Name: "head"}
	seen := make(map[int64]struct{})
	for i, row := range sh.Rows[1:] {
		vals := cellValues(row)
		if len(vals) < 2 || (vals[0] == "" && vals[1] == "") {
			continue
		}
		t, err := cellTime(vals[0], f.Date1904)
		if err != nil {
			return nil, fmt.Errorf("grca: %s row %d: %v: %w", path, i+2, err, enkfprep.ErrValue)
		}
		h := math.NaN()
		if vals[1] != "" {
			if h, err = strconv.ParseFloat(vals[1], 64); err != nil {
				return nil, fmt.Errorf("grca: %s row %d: %v: %w", path, i+2, err, enkfprep.ErrValue)
			}
		}
		if math.IsNaN(h) || math.IsInf(h, 0) {
			continue
		}
		if _, ok := seen[t.UnixNano()]; ok {
			continue
		}
		seen[t.UnixNano()] = struct{}{}
		s.Times = append(s.Times, t)
		s.Values = append(s.Values, h)
	}
	s.Sort()
	return s, nil
}

// checkHeader makes sure the record holds the time and the water level
// logged in well id.
func checkHeader(header []string, id int) error {
	var labels []string
	for _, h := range header {
		if h != "" {
			labels = append(labels, h)
		}
	}
	if len(labels) != 2 {
		return fmt.Errorf("expected 2 columns but found %d: %w", len(labels), enkfprep.ErrValue)
	}
	tLabel, hLabel := labels[0], labels[1]
	if !strings.Contains(tLabel, "Set") {
		return fmt.Errorf("unexpected time column %q: %w", tLabel, enkfprep.ErrValue)
	}
	for _, want := range []string{"Water Level", "Logger", "W", strconv.Itoa(id)} {
		if !strings.Contains(hLabel, want) {
			return fmt.Errorf("head column %q does not contain %q: %w", hLabel, want, enkfprep.ErrValue)
		}
	}
	return nil
}

func cellValues(r *xlsx.Row) []string {
	o := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		o[i] = strings.TrimSpace(c.Value)
	}
	return o
}

// cellTime parses a time cell, which holds either an Excel serial date
// or a formatted time stamp.
func cellTime(v string, date1904 bool) (time.Time, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		t := xlsx.TimeFromExcelTime(f, date1904)
		// Excel times are not precise to the second.
		return t.Round(time.Second).UTC(), nil
	}
	return enkfprep.ParseTime(v)
}

// removeOutliers removes values whose z-score is 3 or more. Records
// without variability are returned unchanged.
func removeOutliers(s *enkfprep.Series) *enkfprep.Series {
	mean, std := stat.MeanStdDev(s.Values, nil)
	if std == 0 || math.IsNaN(std) {
		return s
	}
	o := &enkfprep.Series{Name: s.Name}
	for i, v := range s.Values {
		if math.Abs((v-mean)/std) < 3 {
			o.Times = append(o.Times, s.Times[i])
			o.Values = append(o.Values, v)
		}
	}
	return o
}
