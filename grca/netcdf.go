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
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/enkfprep"
	"gonum.org/v1/gonum/mat"
)

// WriteNetCDF writes d to a NetCDF file at path.
func (d *Dataset) WriteNetCDF(path, title string) error {
	nw, nt := d.Head.Dims()
	if nw == 0 || nt == 0 {
		return fmt.Errorf("grca: dataset is empty: %w", enkfprep.ErrShape)
	}
	if len(d.Wells) != nw || len(d.Meta) != nw || len(d.Time) != nt {
		return fmt.Errorf("grca: dataset has %d wells, %d metadata records and %d times, but head is %dx%d: %w",
			len(d.Wells), len(d.Meta), len(d.Time), nw, nt, enkfprep.ErrShape)
	}
	screens := make([]string, nw)
	pgmn := make([]string, nw)
	for i, m := range d.Meta {
		screens[i] = m.Screen
		pgmn[i] = m.Well
	}
	strlen := 1
	for _, s := range [][]string{d.Wells, screens, pgmn} {
		for _, v := range s {
			if len(v) > strlen {
				strlen = len(v)
			}
		}
	}

	h := cdf.NewHeader([]string{"well", "time", "strlen"}, []int{nw, nt, strlen})
	h.AddAttribute("", "name", "grca")
	h.AddAttribute("", "title", title)
	addVar := func(name string, dims []string, val interface{}, units string) {
		h.AddVariable(name, dims, val)
		h.AddAttribute(name, "units", units)
		h.AddAttribute(name, "long_name", VarAtts[name].LongName)
	}
	addVar("head", []string{"well", "time"}, []float64{0}, VarAtts["head"].Units)
	addVar("time", []string{"time"}, []float64{0}, d.TimeUnits)
	addVar("well", []string{"well"}, []int32{0}, VarAtts["well"].Units)
	addVar("well_name", []string{"well", "strlen"}, "", VarAtts["well_name"].Units)
	addVar("pgmn_well", []string{"well", "strlen"}, "", VarAtts["pgmn_well"].Units)
	addVar("screen", []string{"well", "strlen"}, "", VarAtts["screen"].Units)
	for _, v := range metaVars {
		addVar(v.name, []string{"well"}, []float64{0}, VarAtts[v.name].Units)
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("grca: creating NetCDF header: %v", errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("grca: creating NetCDF file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("grca: creating NetCDF file: %v", err)
	}

	wells := make([]int32, nw)
	for i := range wells {
		wells[i] = int32(i + 1)
	}
	data := map[string]interface{}{
		"head":      mat.DenseCopyOf(d.Head).RawMatrix().Data,
		"time":      d.Time,
		"well":      wells,
		"well_name": padStrings(d.Wells, strlen),
		"pgmn_well": padStrings(pgmn, strlen),
		"screen":    padStrings(screens, strlen),
	}
	for _, v := range metaVars {
		vals := make([]float64, nw)
		for i := range d.Meta {
			vals[i] = *v.field(&d.Meta[i])
		}
		data[v.name] = vals
	}
	for _, v := range h.Variables() {
		if _, err := f.Writer(v, nil, nil).Write(data[v]); err != nil {
			ff.Close()
			return fmt.Errorf("grca: writing %s to NetCDF file: %v", v, err)
		}
	}
	if err := ff.Close(); err != nil {
		return fmt.Errorf("grca: closing NetCDF file: %v", err)
	}
	return nil
}

// padStrings concatenates s, padding each element to n characters.
func padStrings(s []string, n int) string {
	var b strings.Builder
	for _, v := range s {
		b.WriteString(v)
		b.WriteString(strings.Repeat("\x00", n-len(v)))
	}
	return b.String()
}

// ReadNetCDF reads a Dataset from the NetCDF file at path.
func ReadNetCDF(path string) (*Dataset, error) {
	ff, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("grca: %v: %w", err, enkfprep.ErrMissingPath)
		}
		return nil, fmt.Errorf("grca: opening NetCDF file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("grca: opening NetCDF file %s: %v", path, err)
	}
	dims := f.Header.Lengths("head")
	if len(dims) != 2 {
		return nil, fmt.Errorf("grca: %s has no (well, time) head variable: %w", path, enkfprep.ErrShape)
	}
	nw, nt := dims[0], dims[1]

	readFloats := func(v string, n int) ([]float64, error) {
		buf := make([]float64, n)
		r := f.Reader(v, nil, nil)
		if r == nil {
			return nil, fmt.Errorf("grca: %s has no variable %s: %w", path, v, enkfprep.ErrShape)
		}
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("grca: reading %s from %s: %v", v, path, err)
		}
		return buf, nil
	}
	readStrings := func(v string) ([]string, error) {
		l := f.Header.Lengths(v)
		if len(l) != 2 || l[0] != nw {
			return nil, fmt.Errorf("grca: %s has no (well, strlen) variable %s: %w", path, v, enkfprep.ErrShape)
		}
		buf := make([]byte, l[0]*l[1])
		if _, err := f.Reader(v, nil, nil).Read(buf); err != nil {
			return nil, fmt.Errorf("grca: reading %s from %s: %v", v, path, err)
		}
		o := make([]string, nw)
		for i := range o {
			o[i] = strings.TrimRight(string(buf[i*l[1]:(i+1)*l[1]]), "\x00 ")
		}
		return o, nil
	}

	d := &Dataset{Meta: make([]Metadata, nw)}
	head, err := readFloats("head", nw*nt)
	if err != nil {
		return nil, err
	}
	d.Head = mat.NewDense(nw, nt, head)
	if d.Time, err = readFloats("time", nt); err != nil {
		return nil, err
	}
	if u, ok := f.Header.GetAttribute("time", "units").(string); ok {
		d.TimeUnits = u
	}
	if d.Wells, err = readStrings("well_name"); err != nil {
		return nil, err
	}
	screens, err := readStrings("screen")
	if err != nil {
		return nil, err
	}
	pgmn, err := readStrings("pgmn_well")
	if err != nil {
		return nil, err
	}
	for _, v := range metaVars {
		vals, err := readFloats(v.name, nw)
		if err != nil {
			return nil, err
		}
		for i := range d.Meta {
			*v.field(&d.Meta[i]) = vals[i]
		}
	}
	for i := range d.Meta {
		d.Meta[i].Screen = screens[i]
		d.Meta[i].Well = pgmn[i]
	}
	return d, nil
}
