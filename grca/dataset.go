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
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/enkfprep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Folder names relative to the GRCA root folder.
const (
	// DataFolder holds the well spreadsheets and the attribute table.
	DataFolder = "GRCA Transient Waterlevels"

	// AvgFolder holds the converted NetCDF files.
	AvgFolder = "grcaavg"
)

// TimeSeriesFile is the name of the monthly time series file.
const TimeSeriesFile = "grca_monthly.nc"

// ClimatologyFile returns the name of the climatology file for period p.
func ClimatologyFile(p Period) string {
	return fmt.Sprintf("grca_clim_%s.nc", p)
}

// timeOrigin is the first year of the time axis; time is measured in
// months since January of this year.
const timeOrigin = 1979

// VarAtt holds the attributes of a NetCDF variable.
type VarAtt struct {
	Name, Units, LongName string
}

// VarAtts are the attributes of the dataset variables.
var VarAtts = map[string]VarAtt{
	"head":      {Name: "head", Units: "m", LongName: "Pressure Head at Well"},
	"depth":     {Name: "depth", Units: "m", LongName: "Well Depth"},
	"d_piezo":   {Name: "d_piezo", Units: "m", LongName: "Depth of Piezometer"},
	"screen":    {Name: "screen", Units: "", LongName: "Screen Type"},
	"d_scr":     {Name: "d_scr", Units: "m", LongName: "Screen Depth"},
	"d_st":      {Name: "d_st", Units: "m", LongName: "Screen Top Depth"},
	"d_sb":      {Name: "d_sb", Units: "m", LongName: "Screen Bottom Depth"},
	"zs":        {Name: "zs", Units: "m", LongName: "Surface Elevation (M.S.L.)"},
	"z_t":       {Name: "z_t", Units: "m", LongName: "Screen Top Elevation (M.S.L.)"},
	"z_b":       {Name: "z_b", Units: "m", LongName: "Screen Bottom Elevation (M.S.L.)"},
	"z":         {Name: "z", Units: "m", LongName: "Screen/Sampling Elevation (M.S.L.)"},
	"lon":       {Name: "lon", Units: "deg E", LongName: "Longitude"},
	"lat":       {Name: "lat", Units: "deg N", LongName: "Latitude"},
	"well":      {Name: "well", Units: "", LongName: "Well Index Number"},
	"time":      {Name: "time", Units: "month", LongName: "Month since 1979-01"},
	"well_name": {Name: "well_name", Units: "", LongName: "Short Well Name"},
	"pgmn_well": {Name: "pgmn_well", Units: "", LongName: "PGMN Well Name"},
}

// metaVars are the numeric well variables and the Metadata fields they
// are stored in.
var metaVars = []struct {
	name  string
	field func(*Metadata) *float64
}{
	{"depth", func(m *Metadata) *float64 { return &m.Depth }},
	{"d_piezo", func(m *Metadata) *float64 { return &m.PiezoDepth }},
	{"d_scr", func(m *Metadata) *float64 { return &m.ScreenDepth }},
	{"d_st", func(m *Metadata) *float64 { return &m.ScreenTop }},
	{"d_sb", func(m *Metadata) *float64 { return &m.ScreenBottom }},
	{"zs", func(m *Metadata) *float64 { return &m.Surface }},
	{"z_t", func(m *Metadata) *float64 { return &m.ZTop }},
	{"z_b", func(m *Metadata) *float64 { return &m.ZBottom }},
	{"z", func(m *Metadata) *float64 { return &m.Z }},
	{"lon", func(m *Metadata) *float64 { return &m.Lon }},
	{"lat", func(m *Metadata) *float64 { return &m.Lat }},
}

// Dataset holds the monthly heads and the metadata of a set of wells.
type Dataset struct {
	// Wells are the short well names, e.g. "W347-3".
	Wells []string

	// Meta holds the metadata of each well.
	Meta []Metadata

	// Time is the time coordinate. For time series it is in months since
	// January 1979; for climatologies it is the month of the year (1-12).
	Time []float64

	// TimeUnits describes Time.
	TimeUnits string

	// Head holds the heads, with wells as rows and time steps as columns.
	Head *mat.Dense
}

// Well returns the dataset of the named well only.
func (d *Dataset) Well(name string) (*Dataset, error) {
	id, no, err := ParseWellName(name)
	if err != nil {
		return nil, err
	}
	for i, w := range d.Wells {
		wid, wno, err := ParseWellName(w)
		if err != nil {
			return nil, err
		}
		if wid == id && wno == no {
			_, nt := d.Head.Dims()
			h := mat.NewDense(1, nt, nil)
			h.Copy(d.Head.Slice(i, i+1, 0, nt))
			return &Dataset{
				Wells:     []string{w},
				Meta:      []Metadata{d.Meta[i]},
				Time:      append([]float64(nil), d.Time...),
				TimeUnits: d.TimeUnits,
				Head:      h,
			}, nil
		}
	}
	return nil, fmt.Errorf("grca: well %s not found: %w", name, enkfprep.ErrValue)
}

// ClimMean returns the monthly climatology of d, which must be a monthly
// time series starting in January: the mean of each calendar month over
// all years, ignoring missing values.
func (d *Dataset) ClimMean() (*Dataset, error) {
	nw, nt := d.Head.Dims()
	if nt%12 != 0 {
		return nil, fmt.Errorf("grca: climatology requires whole years, but time series has %d months: %w", nt, enkfprep.ErrShape)
	}
	o := &Dataset{
		Wells:     append([]string(nil), d.Wells...),
		Meta:      append([]Metadata(nil), d.Meta...),
		Time:      make([]float64, 12),
		TimeUnits: "month of the year",
		Head:      mat.NewDense(nw, 12, nil),
	}
	for m := 0; m < 12; m++ {
		o.Time[m] = float64(m + 1)
	}
	vals := make([]float64, 0, nt/12)
	for i := 0; i < nw; i++ {
		for m := 0; m < 12; m++ {
			vals = vals[:0]
			for t := m; t < nt; t += 12 {
				if v := d.Head.At(i, t); !math.IsNaN(v) {
					vals = append(vals, v)
				}
			}
			v := math.NaN()
			if len(vals) > 0 {
				v = stat.Mean(vals, nil)
			}
			o.Head.Set(i, m, v)
		}
	}
	return o, nil
}

// ConvertOptions specify the input and output of Convert.
type ConvertOptions struct {
	// Folder holds the well spreadsheets.
	Folder string

	// MetadataFile is the attribute table. The default is
	// DefaultMetadataFile in Folder.
	MetadataFile string

	// OutDir is the folder the NetCDF files are written to.
	OutDir string

	// Period is the period of the time series. The default is DefaultPeriod.
	Period Period

	// Log receives progress messages. It may be nil.
	Log logrus.FieldLogger
}

// Convert loads the spreadsheets of all wells in Folder and writes their
// monthly time series and climatology as NetCDF files. It returns the
// paths of the two files.
func Convert(o ConvertOptions) (tsFile, climFile string, err error) {
	log := enkfprep.Feedback(o.Log)
	if o.Period.IsZero() {
		o.Period = DefaultPeriod
	}
	if err := o.Period.check(); err != nil {
		return "", "", err
	}
	if o.MetadataFile == "" {
		o.MetadataFile = filepath.Join(o.Folder, DefaultMetadataFile)
	}
	if fi, err := os.Stat(o.OutDir); err != nil || !fi.IsDir() {
		return "", "", fmt.Errorf("grca: output folder %q does not exist: %w", o.OutDir, enkfprep.ErrMissingPath)
	}

	files, err := filepath.Glob(filepath.Join(o.Folder, "W*.xlsx"))
	if err != nil {
		return "", "", fmt.Errorf("grca: %v", err)
	}
	if len(files) == 0 {
		return "", "", fmt.Errorf("grca: no well spreadsheets in %q: %w", o.Folder, enkfprep.ErrMissingPath)
	}
	sort.Strings(files)
	log.Infof("Number of wells: %d", len(files))

	ds := &Dataset{TimeUnits: VarAtts["time"].Units}
	nt := 12 * (o.Period.End - o.Period.Start)
	ds.Time = make([]float64, nt)
	for i := range ds.Time {
		ds.Time[i] = float64(12*(o.Period.Start-timeOrigin) + i)
	}
	ds.Head = mat.NewDense(len(files), nt, nil)
	for i, f := range files {
		well := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		log.WithField("well", well).Debug("loading well data")
		m, err := LoadMetadata(well, o.MetadataFile)
		if err != nil {
			return "", "", err
		}
		s, err := LoadXLS(XLSOptions{Filename: filepath.Base(f), Folder: o.Folder, Period: o.Period})
		if err != nil {
			return "", "", err
		}
		if s.Len() != nt {
			return "", "", fmt.Errorf("grca: well %s has %d months, expected %d: %w", well, s.Len(), nt, enkfprep.ErrShape)
		}
		ds.Wells = append(ds.Wells, well)
		ds.Meta = append(ds.Meta, *m)
		ds.Head.SetRow(i, s.Values)
	}

	tsFile = filepath.Join(o.OutDir, TimeSeriesFile)
	if err := ds.WriteNetCDF(tsFile, "GRCA Observation Wells"); err != nil {
		return "", "", err
	}
	log.WithField("file", tsFile).Info("wrote GRCA time series")

	clim, err := ds.ClimMean()
	if err != nil {
		return "", "", err
	}
	climFile = filepath.Join(o.OutDir, ClimatologyFile(o.Period))
	if err := clim.WriteNetCDF(climFile, fmt.Sprintf("GRCA Observation Wells Climatology %s", o.Period)); err != nil {
		return "", "", err
	}
	log.WithField("file", climFile).Info("wrote GRCA climatology")
	return tsFile, climFile, nil
}

// LoadTimeSeries loads the monthly time series in folder. If well is not
// empty only that well is returned.
func LoadTimeSeries(folder, well string) (*Dataset, error) {
	return load(filepath.Join(folder, TimeSeriesFile), well)
}

// LoadClimatology loads the monthly climatology for period p in folder.
// If well is not empty only that well is returned.
func LoadClimatology(folder string, p Period, well string) (*Dataset, error) {
	if p.IsZero() {
		p = DefaultPeriod
	}
	return load(filepath.Join(folder, ClimatologyFile(p)), well)
}

func load(path, well string) (*Dataset, error) {
	d, err := ReadNetCDF(path)
	if err != nil {
		return nil, err
	}
	if well == "" {
		return d, nil
	}
	return d.Well(well)
}
