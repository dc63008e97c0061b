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
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Names of the initial condition files read by the EnKF solver.
const (
	PMIniFile  = "inihead.dat" // porous medium (subsurface) head
	OLFIniFile = "headolf.dat" // overland flow (surface water) head
)

// DefaultIndexPattern matches the four-digit output index that HGS
// appends to its output file names.
const DefaultIndexPattern = "????"

// FieldReader reads node coordinates and nodal variables from the binary
// output of one model realization.
type FieldReader interface {
	// ReadCoordinatesPM returns the coordinates of the porous medium nodes.
	ReadCoordinatesPM() ([]r3.Vec, error)

	// ReadCoordinatesOLF returns the coordinates of the overland flow nodes,
	// which are a subset of the porous medium nodes pm.
	ReadCoordinatesOLF(pm []r3.Vec) ([]r3.Vec, error)

	// ReadVar reads the named nodal variable, which is expected to have
	// n values.
	ReadVar(name string, n int) ([]float64, error)
}

// A ReaderOpener opens the output of the realization with the given
// output index, where prefix is the model output prefix (the problem
// prefix followed by "o") and dir is the folder holding the output.
type ReaderOpener func(prefix, dir string, index int) (FieldReader, error)

// IniConfig holds the information needed to assemble ensemble initial
// conditions.
type IniConfig struct {
	// Dir is the folder the initial condition files are written to.
	Dir string

	// Prefix is the HGS problem prefix.
	Prefix string

	// InputDirs are the folders holding the head output of the realizations.
	InputDirs []string

	// IndexPattern is a glob pattern matching the output index at the end of
	// the head file names. The default is DefaultIndexPattern.
	IndexPattern string

	// Open opens the output of a single realization.
	Open ReaderOpener

	// Log receives progress messages. It may be nil.
	Log logrus.FieldLogger
}

// WriteEnKFIni reads the porous medium and overland flow heads of every
// realization found in the input folders and writes them as EnKF initial
// condition files, with nodes as rows and realizations as columns.
// It returns the paths of the PM and OLF files.
func WriteEnKFIni(c IniConfig) (pmFile, olfFile string, err error) {
	log := Feedback(c.Log)
	if err := checkDir(c.Dir); err != nil {
		return "", "", err
	}
	if c.Open == nil {
		return "", "", fmt.Errorf("enkfprep: no binary reader specified for initial conditions: %w", ErrMissingConfig)
	}
	if len(c.InputDirs) == 0 {
		return "", "", fmt.Errorf("enkfprep: no input folders specified for initial conditions: %w", ErrMissingConfig)
	}
	pattern := c.IndexPattern
	if pattern == "" {
		pattern = DefaultIndexPattern
	}
	prefixo := c.Prefix + "o"

	var pmData, olfData [][]float64
	npm, nolf := -1, -1
	for _, folder := range c.InputDirs {
		globPath := filepath.Join(folder, prefixo+".head_pm."+pattern)
		files, err := filepath.Glob(globPath)
		if err != nil {
			return "", "", fmt.Errorf("enkfprep: index pattern %q: %v: %w", pattern, err, ErrValue)
		}
		if len(files) == 0 {
			return "", "", fmt.Errorf("enkfprep: no initial condition files match %q: %w", globPath, ErrMissingPath)
		}
		for _, icFile := range files {
			idx, err := realizationIndex(icFile, len(pattern))
			if err != nil {
				return "", "", err
			}
			r, err := c.Open(prefixo, filepath.Dir(icFile), idx)
			if err != nil {
				return "", "", fmt.Errorf("enkfprep: opening %s: %w", icFile, err)
			}

			coordsPM, err := r.ReadCoordinatesPM()
			if err != nil {
				return "", "", fmt.Errorf("enkfprep: reading PM coordinates for %s: %w", icFile, err)
			}
			if npm, err = checkNodeCount(npm, len(coordsPM)); err != nil {
				return "", "", err
			}
			head, err := r.ReadVar("head_pm", npm)
			if err != nil {
				return "", "", fmt.Errorf("enkfprep: reading PM head from %s: %w", icFile, err)
			}
			if len(head) != npm {
				return "", "", fmt.Errorf("enkfprep: %s has %d PM head values but %d nodes: %w", icFile, len(head), npm, ErrShape)
			}
			pmData = append(pmData, head)

			coordsOLF, err := r.ReadCoordinatesOLF(coordsPM)
			if err != nil {
				return "", "", fmt.Errorf("enkfprep: reading OLF coordinates for %s: %w", icFile, err)
			}
			if nolf, err = checkNodeCount(nolf, len(coordsOLF)); err != nil {
				return "", "", err
			}
			head, err = r.ReadVar("head_olf", nolf)
			if err != nil {
				return "", "", fmt.Errorf("enkfprep: reading OLF head from %s: %w", icFile, err)
			}
			if len(head) != nolf {
				return "", "", fmt.Errorf("enkfprep: %s has %d OLF head values but %d nodes: %w", icFile, len(head), nolf, ErrShape)
			}
			olfData = append(olfData, head)
		}
	}
	if npm == 0 || nolf == 0 {
		return "", "", fmt.Errorf("enkfprep: initial condition files contain no nodes (PM: %d, OLF: %d): %w", npm, nolf, ErrShape)
	}

	// In the EnKF IC files the rows are nodes and the columns are realizations.
	pm := stackColumns(npm, pmData)
	log.Infof("Number of PM nodes: %d", npm)
	olf := stackColumns(nolf, olfData)
	log.Infof("Number of OLF nodes: %d", nolf)
	_, nrealPM := pm.Dims()
	_, nrealOLF := olf.Dims()
	if nrealPM != nrealOLF {
		return "", "", fmt.Errorf("enkfprep: number of PM realizations (%d) does not match OLF (%d): %w", nrealPM, nrealOLF, ErrShape)
	}
	log.Infof("Number of realizations: %d", nrealPM)

	pmFile = filepath.Join(c.Dir, PMIniFile)
	if err := writeIniFile(pmFile, pm); err != nil {
		return "", "", err
	}
	log.WithField("file", pmFile).Info("wrote PM IC data")
	olfFile = filepath.Join(c.Dir, OLFIniFile)
	if err := writeIniFile(olfFile, olf); err != nil {
		return "", "", err
	}
	log.WithField("file", olfFile).Info("wrote OLF IC data")
	return pmFile, olfFile, nil
}

// realizationIndex parses the trailing n characters of the file name.
func realizationIndex(file string, n int) (int, error) {
	if len(file) < n {
		return 0, fmt.Errorf("enkfprep: file name %q is shorter than the index pattern: %w", file, ErrValue)
	}
	idx, err := strconv.Atoi(file[len(file)-n:])
	if err != nil {
		return 0, fmt.Errorf("enkfprep: no numeric output index at the end of %q: %w", file, ErrValue)
	}
	return idx, nil
}

// checkNodeCount returns n if this is the first realization (want < 0),
// and otherwise makes sure n matches want.
func checkNodeCount(want, n int) (int, error) {
	if want < 0 {
		return n, nil
	}
	if want != n {
		return want, fmt.Errorf("enkfprep: total number of nodes does not match in input files: %d != %d: %w", want, n, ErrShape)
	}
	return want, nil
}

// stackColumns returns a matrix with one column per element of cols.
func stackColumns(rows int, cols [][]float64) *mat.Dense {
	m := mat.NewDense(rows, len(cols), nil)
	for j, col := range cols {
		m.SetCol(j, col)
	}
	return m
}

// writeIniFile writes m with a leading column of 1-based node numbers,
// transforming the heads to log10.
func writeIniFile(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("enkfprep: creating initial condition file: %v", err)
	}
	w := bufio.NewWriter(f)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		fmt.Fprintf(w, nodeFmt, float64(i+1))
		for j := 0; j < c; j++ {
			w.WriteString(" ")
			w.WriteString(formatFloat(iniFmt, 0, math.Log10(m.At(i, j))))
		}
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("enkfprep: writing initial condition file: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("enkfprep: closing initial condition file: %v", err)
	}
	return nil
}
