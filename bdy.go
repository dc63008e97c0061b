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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultBdyFile is the default name of the boundary condition file.
	DefaultBdyFile = "flux_bc.dat"

	// DefaultScaleFactor is the default half-width of the multiplicative
	// perturbation applied to stochastic boundary conditions.
	DefaultScaleFactor = 0.1
)

// BoundaryMode specifies whether all ensemble members receive the same
// boundary conditions.
type BoundaryMode int

const (
	// Deterministic boundary conditions are identical for all realizations
	// and are written to a single file.
	Deterministic BoundaryMode = iota

	// Stochastic boundary conditions are perturbed independently for each
	// realization and written to one file per timestep.
	Stochastic
)

// ParseBoundaryMode parses a boundary mode name (case insensitive).
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deterministic":
		return Deterministic, nil
	case "stochastic":
		return Stochastic, nil
	default:
		return Deterministic, fmt.Errorf("enkfprep: boundary mode %q is not one of 'deterministic' or 'stochastic': %w", s, ErrValue)
	}
}

func (m BoundaryMode) String() string {
	switch m {
	case Deterministic:
		return "deterministic"
	case Stochastic:
		return "stochastic"
	default:
		return fmt.Sprintf("BoundaryMode(%d)", int(m))
	}
}

// BdyConfig holds the information needed to write EnKF flux boundary
// condition files.
type BdyConfig struct {
	// Dir is the folder the boundary condition files are written to.
	Dir string

	// Files are the boundary variables and the HGS/Grok .inc files holding
	// their time series, as two columns: time and value.
	Files NamedPaths

	// Filename is the name of the output file, or the trunk of the output
	// file names in stochastic mode. The default is DefaultBdyFile.
	Filename string

	Mode BoundaryMode

	// NReal is the number of realizations (stochastic mode only).
	NReal int

	// ScaleFactors are the perturbation half-widths of the boundary
	// variables, by name (stochastic mode only).
	ScaleFactors map[string]float64

	// DefaultFactor is used for variables without an entry in ScaleFactors.
	// If it is zero, every variable needs an explicit scale factor.
	DefaultFactor float64

	// Src is the source of random numbers for the perturbations. If it is
	// nil, a time-seeded source is used.
	Src rand.Source

	// Log receives progress messages. It may be nil.
	Log logrus.FieldLogger
}

// WriteEnKFBdy reads the boundary flux time series and writes them as
// EnKF boundary condition files. In deterministic mode a single file is
// written; in stochastic mode one file per timestep is written, holding one
// independently perturbed row of values per realization. It returns the
// paths of the files that were written.
func WriteEnKFBdy(c BdyConfig) ([]string, error) {
	log := Feedback(c.Log)
	if err := checkDir(c.Dir); err != nil {
		return nil, err
	}
	if err := c.Files.check(); err != nil {
		return nil, err
	}
	filename := c.Filename
	if filename == "" {
		filename = DefaultBdyFile
	}
	path := filepath.Join(c.Dir, filename)

	data, err := readBoundaryData(c.Files)
	if err != nil {
		return nil, err
	}
	ntime, nbdy := data.Dims()

	header := make([]string, 0, nbdy+1)
	header = append(header, strconv.Itoa(nbdy))
	header = append(header, c.Files.Names()...)
	log.Infof("Number of flux boundary conditions: %d", nbdy)
	for _, h := range header[1:] {
		log.Info(h)
	}
	log.Infof("Number of time steps: %d", ntime)

	switch c.Mode {
	case Deterministic:
		log.Info("writing 'deterministic' boundary conditions to single file")
		// All ensemble members get the same input.
		if err := writeBdyFile(path, header, data); err != nil {
			return nil, err
		}
		log.WithField("file", path).Info("wrote flux boundary condition data")
		return []string{path}, nil

	case Stochastic:
		log.Info("writing 'stochastic' boundary conditions, one file per timestep")
		if c.NReal <= 0 {
			return nil, fmt.Errorf("enkfprep: number of realizations must be positive for stochastic boundary conditions, but is %d: %w", c.NReal, ErrValue)
		}
		dists, err := c.perturbations()
		if err != nil {
			return nil, err
		}
		filelist := make([]string, 0, ntime)
		rnd := mat.NewDense(c.NReal, nbdy, nil)
		for i := 0; i < ntime; i++ {
			fp := fmt.Sprintf("%s.%05d", path, i+1)
			for j := 0; j < c.NReal; j++ {
				for k, d := range dists {
					rnd.Set(j, k, data.At(i, k)*d.Rand())
				}
			}
			if err := writeBdyFile(fp, header, rnd); err != nil {
				return filelist, err
			}
			log.Debug(fp)
			filelist = append(filelist, fp)
		}
		log.WithField("files", len(filelist)).Info("wrote stochastic flux boundary condition data")
		return filelist, nil

	default:
		return nil, fmt.Errorf("enkfprep: invalid boundary mode %v: %w", c.Mode, ErrValue)
	}
}

// perturbations returns the distribution of the multiplicative factor
// for each boundary variable, in order.
func (c BdyConfig) perturbations() ([]distuv.Uniform, error) {
	src := c.Src
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	o := make([]distuv.Uniform, len(c.Files))
	for i, name := range c.Files.Names() {
		s, ok := c.ScaleFactors[name]
		if !ok {
			if c.DefaultFactor == 0 {
				return nil, fmt.Errorf("enkfprep: no scale factor for boundary variable %q and no default: %w", name, ErrMissingConfig)
			}
			s = c.DefaultFactor
		}
		if s < 0 {
			return nil, fmt.Errorf("enkfprep: scale factor for boundary variable %q is negative (%g): %w", name, s, ErrValue)
		}
		o[i] = distuv.Uniform{Min: 1 - s, Max: 1 + s, Src: src}
	}
	return o, nil
}

// readBoundaryData reads the value column of each boundary file into
// a timestep × variable matrix.
func readBoundaryData(files NamedPaths) (*mat.Dense, error) {
	cols := make([][]float64, len(files))
	for i, f := range files {
		v, err := readBoundaryFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("enkfprep: boundary variable %q: %w", f.Name, err)
		}
		if i > 0 && len(v) != len(cols[0]) {
			return nil, fmt.Errorf("enkfprep: boundary variable %q has %d timesteps but %q has %d: %w",
				f.Name, len(v), files[0].Name, len(cols[0]), ErrShape)
		}
		cols[i] = v
	}
	return stackColumns(len(cols[0]), cols), nil
}

// readBoundaryFile reads a whitespace delimited table with two numeric
// columns, time and value, and returns the values. Blank lines and text
// following a '#' are ignored.
func readBoundaryFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%v: %w", err, ErrMissingPath)
		}
		return nil, err
	}
	defer f.Close()

	var o []float64
	s := bufio.NewScanner(f)
	line := 0
	for s.Scan() {
		line++
		txt := s.Text()
		if i := strings.Index(txt, "#"); i >= 0 {
			txt = txt[:i]
		}
		fields := strings.Fields(txt)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s line %d: expected 2 columns but found %d: %w", path, line, len(fields), ErrShape)
		}
		var row [2]float64
		for i, fld := range fields {
			if row[i], err = strconv.ParseFloat(fld, 64); err != nil {
				return nil, fmt.Errorf("%s line %d: column %d is not numeric: %v: %w", path, line, i+1, err, ErrShape)
			}
		}
		o = append(o, row[1])
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("%s contains no data: %w", path, ErrShape)
	}
	return o, nil
}

// writeBdyFile writes the header lines followed by the rows of data.
func writeBdyFile(path string, header []string, data *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("enkfprep: creating boundary condition file: %v", err)
	}
	w := bufio.NewWriter(f)
	for _, h := range header {
		w.WriteString(h)
		w.WriteString("\n")
	}
	r, _ := data.Dims()
	for i := 0; i < r; i++ {
		w.WriteString(joinFloats(data.RawRowView(i), bdyFmt, bdyWidth, bdySep))
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("enkfprep: writing boundary condition file: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("enkfprep: closing boundary condition file: %v", err)
	}
	return nil
}
