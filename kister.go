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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/stat"
)

// DefaultKisterHeader is the index of the column name row in the CSV
// files exported from the Kisters WISKI system.
const DefaultKisterHeader = 3

// Series is a time-indexed scalar time series.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Len returns the number of samples in s.
func (s *Series) Len() int { return len(s.Values) }

// KisterOptions specify how a Kisters time series is read and sampled.
type KisterOptions struct {
	// Header is the index of the column name row; all rows up to and
	// including it are skipped.
	Header int

	// Comma is the field delimiter. The default is ','.
	Comma rune

	// Name is the name given to the value column. The default is "value".
	Name string

	// Start and End, if both are set, limit the series to [Start, End].
	Start, End time.Time

	// Resample, if set, is the frequency the series is aggregated (by
	// averaging) to.
	Resample Frequency

	// Pad extends the resampled series to the complete [Start, End] range,
	// filling gaps with NaN. It has no effect without Start, End and
	// Resample.
	Pad bool
}

// hasPeriod reports whether the options specify a period.
func (o KisterOptions) hasPeriod() bool { return !o.Start.IsZero() && !o.End.IsZero() }

// ReadKister reads a Kisters CSV export with time stamps in the first
// column and values in the second, and slices, resamples and pads it
// as specified by opts.
func ReadKister(path string, opts KisterOptions) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("enkfprep: reading time series: %v: %w", err, ErrMissingPath)
		}
		return nil, fmt.Errorf("enkfprep: reading time series: %v", err)
	}
	defer f.Close()
	s, err := readSeries(f, opts)
	if err != nil {
		return nil, fmt.Errorf("enkfprep: reading time series %s: %w", path, err)
	}
	if opts.hasPeriod() {
		s = s.Slice(opts.Start, opts.End)
	}
	if !opts.Resample.IsZero() {
		s = s.Resample(opts.Resample)
		if opts.hasPeriod() && opts.Pad {
			s = s.Reindex(opts.Resample.Range(opts.Start, opts.End))
		}
	}
	return s, nil
}

// readSeries parses the delimited records from r.
func readSeries(r io.Reader, opts KisterOptions) (*Series, error) {
	cr := csv.NewReader(r)
	cr.Comma = ','
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	s := &Series{Name: opts.Name}
	if s.Name == "" {
		s.Name = "value"
	}
	row := -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		row++
		if row <= opts.Header {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d has %d columns, expected 2: %w", row, len(rec), ErrShape)
		}
		t, err := ParseTime(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %v: %w", row, err, ErrValue)
		}
		v := math.NaN()
		if vs := strings.TrimSpace(rec[1]); vs != "" {
			v, err = strconv.ParseFloat(vs, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %v: %w", row, err, ErrValue)
			}
		}
		s.Times = append(s.Times, t)
		s.Values = append(s.Values, v)
	}
	s.Sort()
	return s, nil
}

// timeLayouts are tried before falling back to the more general parsing
// in github.com/spf13/cast.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseTime parses a time stamp; times without zone information are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return t, err
	}
	return t.UTC(), nil
}

// Sort sorts s by time, keeping the order of samples with equal times.
func (s *Series) Sort() { sort.Stable(byTime{s}) }

type byTime struct{ *Series }

func (b byTime) Len() int           { return len(b.Times) }
func (b byTime) Less(i, j int) bool { return b.Times[i].Before(b.Times[j]) }
func (b byTime) Swap(i, j int) {
	b.Times[i], b.Times[j] = b.Times[j], b.Times[i]
	b.Values[i], b.Values[j] = b.Values[j], b.Values[i]
}

// Slice returns the part of s between start and end, inclusive.
func (s *Series) Slice(start, end time.Time) *Series {
	o := &Series{Name: s.Name}
	for i, t := range s.Times {
		if t.Before(start) || t.After(end) {
			continue
		}
		o.Times = append(o.Times, t)
		o.Values = append(o.Values, s.Values[i])
	}
	return o
}

// Resample returns the mean of s in each bin of frequency f, from the
// bin of the first sample to the bin of the last. Missing values are
// ignored; bins without valid values are NaN.
func (s *Series) Resample(f Frequency) *Series {
	o := &Series{Name: s.Name}
	if len(s.Times) == 0 {
		return o
	}
	origin := midnight(s.Times[0])
	bins := make(map[int64][]float64)
	for i, t := range s.Times {
		if math.IsNaN(s.Values[i]) {
			continue
		}
		k := f.Label(t, origin).UnixNano()
		bins[k] = append(bins[k], s.Values[i])
	}
	last := f.Label(s.Times[len(s.Times)-1], origin)
	for t := f.Label(s.Times[0], origin); !t.After(last); t = f.Next(t) {
		v := math.NaN()
		if b, ok := bins[t.UnixNano()]; ok {
			v = stat.Mean(b, nil)
		}
		o.Times = append(o.Times, t)
		o.Values = append(o.Values, v)
	}
	return o
}

// Reindex returns s sampled at times; times not present in s are NaN.
func (s *Series) Reindex(times []time.Time) *Series {
	idx := make(map[int64]float64, len(s.Times))
	for i, t := range s.Times {
		if _, ok := idx[t.UnixNano()]; !ok {
			idx[t.UnixNano()] = s.Values[i]
		}
	}
	o := &Series{
		Name:   s.Name,
		Times:  make([]time.Time, len(times)),
		Values: make([]float64, len(times)),
	}
	for i, t := range times {
		o.Times[i] = t
		if v, ok := idx[t.UnixNano()]; ok {
			o.Values[i] = v
		} else {
			o.Values[i] = math.NaN()
		}
	}
	return o
}
