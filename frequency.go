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
	"strconv"
	"strings"
	"time"
)

// Frequency is a regular sampling frequency, specified with an offset
// alias such as "D", "12H", "30min", "M" (month end), "MS" (month start),
// "W" or "A".
type Frequency struct {
	n    int
	unit string
	step time.Duration // zero for calendar-anchored frequencies
}

// ParseFrequency parses a frequency alias. Multiples are allowed for
// fixed frequencies (seconds to days) only.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n := 1
	if i > 0 {
		var err error
		n, err = strconv.Atoi(s[:i])
		if err != nil || n <= 0 {
			return Frequency{}, fmt.Errorf("enkfprep: invalid frequency %q: %w", s, ErrValue)
		}
	}
	f := Frequency{n: n, unit: strings.ToUpper(s[i:])}
	switch f.unit {
	case "S":
		f.step = time.Duration(n) * time.Second
	case "T", "MIN":
		f.unit = "T"
		f.step = time.Duration(n) * time.Minute
	case "H":
		f.step = time.Duration(n) * time.Hour
	case "D":
		f.step = time.Duration(n) * 24 * time.Hour
	case "W", "W-SUN", "M", "MS", "A", "Y":
		if n != 1 {
			return Frequency{}, fmt.Errorf("enkfprep: multiples of frequency %q are not supported: %w", f.unit, ErrValue)
		}
		if f.unit == "W-SUN" {
			f.unit = "W"
		}
		if f.unit == "Y" {
			f.unit = "A"
		}
	default:
		return Frequency{}, fmt.Errorf("enkfprep: invalid frequency %q: %w", s, ErrValue)
	}
	return f, nil
}

func (f Frequency) String() string {
	if f.n == 1 {
		return f.unit
	}
	return strconv.Itoa(f.n) + f.unit
}

// IsZero reports whether f is the zero Frequency (no resampling).
func (f Frequency) IsZero() bool { return f.unit == "" }

// Label returns the label of the bin containing t. Fixed frequencies
// are binned from origin, which is the start of the day for daily and
// sub-daily frequencies. Month-end, week and year frequencies are labeled
// with the last day of the period, month-start with the first.
func (f Frequency) Label(t, origin time.Time) time.Time {
	if f.step > 0 {
		d := t.Sub(origin)
		k := d / f.step
		if d < 0 && d%f.step != 0 {
			k--
		}
		return origin.Add(k * f.step)
	}
	day := midnight(t)
	switch f.unit {
	case "W":
		return day.AddDate(0, 0, (7-int(day.Weekday()))%7)
	case "M":
		return monthEnd(day)
	case "MS":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default: // "A"
		return time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, day.Location())
	}
}

// Next returns the label following label.
func (f Frequency) Next(label time.Time) time.Time {
	if f.step > 0 {
		return label.Add(f.step)
	}
	switch f.unit {
	case "W":
		return label.AddDate(0, 0, 7)
	case "M":
		return monthEnd(time.Date(label.Year(), label.Month()+1, 1, 0, 0, 0, 0, label.Location()))
	case "MS":
		return label.AddDate(0, 1, 0)
	default:
		return label.AddDate(1, 0, 0)
	}
}

// Range returns the regular sequence of labels from start to end,
// inclusive. For calendar-anchored frequencies the first label is the first
// one on or after start; fixed frequencies start at start itself.
func (f Frequency) Range(start, end time.Time) []time.Time {
	var t time.Time
	if f.step > 0 {
		t = start
	} else {
		t = f.Label(start, start)
		if t.Before(start) {
			t = f.Next(t)
		}
	}
	var o []time.Time
	for ; !t.After(end); t = f.Next(t) {
		o = append(o, t)
	}
	return o
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
