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

package enkfutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/enkfprep"
	"github.com/spatialmodel/enkfprep/grca"
	"github.com/spatialmodel/enkfprep/hgs"
	"github.com/spf13/cast"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// logger receives the progress messages of all commands.
var logger = logrus.StandardLogger()

// setLogger configures logger according to the LogLevel and quiet
// configuration variables.
func setLogger(cfg *viper.Viper) error {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
	if cfg.GetBool("quiet") {
		logger.Out = io.Discard
		return nil
	}
	logger.Out = os.Stderr
	lvl, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("enkfutil: LogLevel: %v: %w", err, enkfprep.ErrValue)
	}
	logger.SetLevel(lvl)
	return nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// outputDir expands the environment variables in the OutputDir
// configuration variable and makes sure it is set.
func outputDir(cfg *viper.Viper) (string, error) {
	dir := os.ExpandEnv(cfg.GetString("OutputDir"))
	if dir == "" {
		return "", fmt.Errorf("enkfutil: you need to specify an output folder (the OutputDir variable): %w", enkfprep.ErrMissingConfig)
	}
	return dir, nil
}

// IniConfig unmarshals a viper configuration for the initial condition
// files. The realizations are read with the HGS binary reader.
func IniConfig(cfg *viper.Viper) (*enkfprep.IniConfig, error) {
	dir, err := outputDir(cfg)
	if err != nil {
		return nil, err
	}
	c := &enkfprep.IniConfig{
		Dir:          dir,
		Prefix:       os.ExpandEnv(cfg.GetString("IC.Prefix")),
		InputDirs:    expandStringSlice(cfg.GetStringSlice("IC.InputDirs")),
		IndexPattern: cfg.GetString("IC.IndexPattern"),
		Open:         hgs.Opener,
		Log:          logger,
	}
	if c.Prefix == "" {
		return nil, fmt.Errorf("enkfutil: you need to specify the HGS problem prefix (the IC.Prefix variable): %w", enkfprep.ErrMissingConfig)
	}
	return c, nil
}

// BdyConfig unmarshals a viper configuration for the flux boundary
// condition files.
func BdyConfig(cfg *viper.Viper) (*enkfprep.BdyConfig, error) {
	dir, err := outputDir(cfg)
	if err != nil {
		return nil, err
	}
	files, err := enkfprep.ParseNamedPaths(expandStringSlice(cfg.GetStringSlice("BC.Files")))
	if err != nil {
		return nil, fmt.Errorf("enkfutil: BC.Files: %w", err)
	}
	mode, err := enkfprep.ParseBoundaryMode(cfg.GetString("BC.Mode"))
	if err != nil {
		return nil, fmt.Errorf("enkfutil: BC.Mode: %w", err)
	}
	c := &enkfprep.BdyConfig{
		Dir:           dir,
		Files:         files,
		Filename:      os.ExpandEnv(cfg.GetString("BC.Filename")),
		Mode:          mode,
		NReal:         cfg.GetInt("BC.NReal"),
		DefaultFactor: cfg.GetFloat64("BC.DefaultScaleFactor"),
		Log:           logger,
	}
	if mode == enkfprep.Stochastic {
		sf, err := getStringMapFloat64("BC.ScaleFactors", cfg)
		if err != nil {
			return nil, fmt.Errorf("enkfutil: parsing config variable BC.ScaleFactors: %w", err)
		}
		if c.ScaleFactors, err = matchNames(sf, files.Names()); err != nil {
			return nil, fmt.Errorf("enkfutil: BC.ScaleFactors: %w", err)
		}
		if seed := cfg.GetInt("BC.Seed"); seed != 0 {
			c.Src = rand.NewSource(uint64(seed))
		}
	}
	return c, nil
}

// matchNames returns m with its keys replaced by the matching entry in
// names. Keys are matched without regard to case because configuration
// file keys are not case sensitive.
func matchNames(m map[string]float64, names []string) (map[string]float64, error) {
	o := make(map[string]float64, len(m))
	for k, v := range m {
		found := false
		for _, n := range names {
			if strings.EqualFold(k, n) {
				o[n] = v
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%q is not a boundary variable: %w", k, enkfprep.ErrValue)
		}
	}
	return o, nil
}

// getStringMapFloat64 returns a map[string]float64 from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func getStringMapFloat64(varName string, cfg *viper.Viper) (map[string]float64, error) {
	var m map[string]interface{}
	switch i := cfg.Get(varName).(type) {
	case nil:
		return map[string]float64{}, nil
	case map[string]float64:
		return i, nil
	case map[string]string:
		m = make(map[string]interface{}, len(i))
		for k, v := range i {
			m[k] = v
		}
	case map[string]interface{}:
		m = i
	case string:
		if strings.TrimSpace(i) == "" {
			return map[string]float64{}, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(i))
		if err := d.Decode(&m); err != nil {
			return nil, fmt.Errorf("%v: %w", err, enkfprep.ErrValue)
		}
	default:
		return nil, fmt.Errorf("invalid type %T: %w", i, enkfprep.ErrType)
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %v: %w", k, err, enkfprep.ErrValue)
		}
		o[k] = f
	}
	return o, nil
}

// obsWell is an entry in the Obs.Wells configuration list.
type obsWell struct {
	Name  string
	Node  int
	Error *float64

	// File is a Kisters CSV export holding the well data.
	File string

	// GRCA is the name of a well in the GRCA archive holding the well data.
	GRCA string
}

// ObsConfig unmarshals a viper configuration for the observation file and
// loads the data of the observation wells.
func ObsConfig(cfg *viper.Viper) (*enkfprep.ObsConfig, error) {
	dir, err := outputDir(cfg)
	if err != nil {
		return nil, err
	}
	c := &enkfprep.ObsConfig{
		Dir:      dir,
		Filename: os.ExpandEnv(cfg.GetString("Obs.Filename")),
		Log:      logger,
	}
	if s := strings.TrimSpace(cfg.GetString("Obs.StdErr")); s != "" {
		e, err := cast.ToFloat64E(s)
		if err != nil || e < 0 {
			return nil, fmt.Errorf("enkfutil: Obs.StdErr: invalid observation error %q: %w", s, enkfprep.ErrValue)
		}
		c.StdErr = &e
	}
	if s := strings.TrimSpace(cfg.GetString("Obs.Missing")); s != "" {
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, fmt.Errorf("enkfutil: Obs.Missing: %v: %w", err, enkfprep.ErrValue)
		}
		c.Missing = &v
	}

	opts, err := kisterOptions(cfg)
	if err != nil {
		return nil, err
	}
	ntime := len(opts.Resample.Range(opts.Start, opts.End))
	openLoop := cfg.GetBool("Obs.OpenLoop")
	if openLoop && c.Missing == nil {
		return nil, fmt.Errorf("enkfutil: open loop observations need a missing value (the Obs.Missing variable): %w", enkfprep.ErrMissingConfig)
	}

	var wells []obsWell
	if err := cfg.UnmarshalKey("Obs.Wells", &wells); err != nil {
		return nil, fmt.Errorf("enkfutil: parsing config variable Obs.Wells: %v: %w", err, enkfprep.ErrType)
	}
	if len(wells) == 0 {
		return nil, fmt.Errorf("enkfutil: no observation wells specified (the Obs.Wells variable): %w", enkfprep.ErrMissingConfig)
	}
	for _, w := range wells {
		o := enkfprep.ObsWell{Name: w.Name, Node: w.Node, Error: w.Error}
		if openLoop {
			o.Data = make([]float64, ntime)
			for i := range o.Data {
				o.Data[i] = *c.Missing
			}
		} else {
			s, err := loadObsWell(cfg, w, opts)
			if err != nil {
				return nil, err
			}
			o.Data = s.Values
		}
		logger.WithFields(logrus.Fields{
			"well": w.Name,
			"node": w.Node,
		}).Debug("loaded observation well")
		c.Wells = append(c.Wells, o)
	}
	return c, nil
}

// kisterOptions returns the options for sampling the observation well
// data onto the observation period.
func kisterOptions(cfg *viper.Viper) (enkfprep.KisterOptions, error) {
	o := enkfprep.KisterOptions{
		Header: cfg.GetInt("Obs.Header"),
		Pad:    true,
	}
	var err error
	start, end := cfg.GetString("Obs.Start"), cfg.GetString("Obs.End")
	if start == "" || end == "" {
		return o, fmt.Errorf("enkfutil: you need to specify the observation period (the Obs.Start and Obs.End variables): %w", enkfprep.ErrMissingConfig)
	}
	if o.Start, err = enkfprep.ParseTime(start); err != nil {
		return o, fmt.Errorf("enkfutil: Obs.Start: %v: %w", err, enkfprep.ErrValue)
	}
	if o.End, err = enkfprep.ParseTime(end); err != nil {
		return o, fmt.Errorf("enkfutil: Obs.End: %v: %w", err, enkfprep.ErrValue)
	}
	if o.End.Before(o.Start) {
		return o, fmt.Errorf("enkfutil: Obs.End (%s) is before Obs.Start (%s): %w", end, start, enkfprep.ErrValue)
	}
	if o.Resample, err = enkfprep.ParseFrequency(cfg.GetString("Obs.Frequency")); err != nil {
		return o, fmt.Errorf("enkfutil: Obs.Frequency: %w", err)
	}
	return o, nil
}

// loadObsWell loads the data of observation well w and samples it onto
// the observation period.
func loadObsWell(cfg *viper.Viper, w obsWell, opts enkfprep.KisterOptions) (*enkfprep.Series, error) {
	switch {
	case w.File != "" && w.GRCA != "":
		return nil, fmt.Errorf("enkfutil: observation well %s: only one of File and GRCA may be specified: %w", w.Name, enkfprep.ErrValue)
	case w.File != "":
		opts.Name = w.Name
		return enkfprep.ReadKister(os.ExpandEnv(w.File), opts)
	case w.GRCA != "":
		s, err := grca.LoadXLS(grca.XLSOptions{
			Well:     w.GRCA,
			Folder:   filepath.Join(os.ExpandEnv(cfg.GetString("GRCA.RootFolder")), grca.DataFolder),
			Sampling: opts.Resample,
		})
		if err != nil {
			return nil, err
		}
		s = s.Slice(opts.Start, opts.End)
		return s.Reindex(opts.Resample.Range(opts.Start, opts.End)), nil
	default:
		return nil, fmt.Errorf("enkfutil: observation well %s has no File or GRCA data source: %w", w.Name, enkfprep.ErrMissingConfig)
	}
}

// grcaPeriod returns the period of the GRCA time series.
func grcaPeriod(cfg *viper.Viper) grca.Period {
	return grca.Period{Start: cfg.GetInt("GRCA.StartYear"), End: cfg.GetInt("GRCA.EndYear")}
}

// ConvertOptions unmarshals a viper configuration for converting the GRCA
// archive. The spreadsheets are read from the data folder and the NetCDF
// files are written to the average folder under GRCA.RootFolder.
func ConvertOptions(cfg *viper.Viper) (*grca.ConvertOptions, error) {
	root := os.ExpandEnv(cfg.GetString("GRCA.RootFolder"))
	if root == "" {
		return nil, fmt.Errorf("enkfutil: you need to specify the GRCA.RootFolder variable: %w", enkfprep.ErrMissingConfig)
	}
	return &grca.ConvertOptions{
		Folder:       filepath.Join(root, grca.DataFolder),
		MetadataFile: os.ExpandEnv(cfg.GetString("GRCA.MetadataFile")),
		OutDir:       filepath.Join(root, grca.AvgFolder),
		Period:       grcaPeriod(cfg),
		Log:          logger,
	}, nil
}

// loadGRCA loads the converted GRCA time series or climatology.
func loadGRCA(cfg *viper.Viper) (*grca.Dataset, error) {
	folder := filepath.Join(os.ExpandEnv(cfg.GetString("GRCA.RootFolder")), grca.AvgFolder)
	well := cfg.GetString("GRCA.Well")
	if cfg.GetBool("GRCA.Climatology") {
		return grca.LoadClimatology(folder, grcaPeriod(cfg), well)
	}
	return grca.LoadTimeSeries(folder, well)
}

// summarize writes a table with the metadata, the number of valid
// months and the mean head of each well in d.
func summarize(w io.Writer, d *grca.Dataset) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "well\tpgmn_well\tscreen\tz [m]\tlon\tlat\tmonths\tmean head [m]")
	for i, name := range d.Wells {
		var valid []float64
		for _, v := range d.Head.RawRowView(i) {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
		mean := math.NaN()
		if len(valid) > 0 {
			mean = stat.Mean(valid, nil)
		}
		m := d.Meta[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.4f\t%.4f\t%d/%d\t%.2f\n",
			name, m.Well, m.Screen, m.Z, m.Lon, m.Lat, len(valid), len(d.Time), mean)
	}
	return tw.Flush()
}
