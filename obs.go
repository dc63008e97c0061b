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
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// DefaultObsFile is the default name of the observation file.
const DefaultObsFile = "obs_head.dat"

// ObsWell is an observation well, or one screen of a well, attached to
// a model node.
type ObsWell struct {
	// Name identifies the well in log messages; it is not written to the
	// observation file.
	Name string

	// Node is the model node the observations are assimilated at.
	Node int

	// Error is the observation error of this well. If it is nil the default
	// observation error is used.
	Error *float64

	// Data is the observation time series, already sampled onto the common
	// time axis of all wells.
	Data []float64
}

// ObsConfig holds the information needed to write an EnKF observation
// file.
type ObsConfig struct {
	// Dir is the folder the observation file is written to.
	Dir string

	Wells []ObsWell

	// Filename is the name of the output file. The default is DefaultObsFile.
	Filename string

	// StdErr is the observation error used for wells that do not specify
	// their own. If it is nil every well must specify an error.
	StdErr *float64

	// Missing, if not nil, replaces missing (NaN) observations and pads
	// series that are shorter than the longest one. Otherwise NaN is used.
	Missing *float64

	// Log receives progress messages. It may be nil.
	Log logrus.FieldLogger
}

// WriteEnKFObs writes an EnKF observation file with the node number and
// observation error of every well, followed by the observation time series
// with time steps as rows and wells as columns. It returns the path of the
// file.
func WriteEnKFObs(c ObsConfig) (string, error) {
	log := Feedback(c.Log)
	if err := checkDir(c.Dir); err != nil {
		return "", err
	}
	nobs := len(c.Wells)
	if nobs == 0 {
		return "", fmt.Errorf("enkfprep: no observation wells specified: %w", ErrValue)
	}
	filename := c.Filename
	if filename == "" {
		filename = DefaultObsFile
	}
	path := filepath.Join(c.Dir, filename)

	var header strings.Builder
	ntime := 0
	log.Infof("Number of observation wells: %d", nobs)
	for i, obs := range c.Wells {
		var e float64
		switch {
		case obs.Error != nil:
			e = *obs.Error
		case c.StdErr != nil:
			e = *c.StdErr
		default:
			return "", fmt.Errorf("enkfprep: no observation error for well %d (%s, node %d) and no default: %w",
				i+1, obs.Name, obs.Node, ErrMissingConfig)
		}
		if len(obs.Data) == 0 {
			return "", fmt.Errorf("enkfprep: observation well %d (%s, node %d) has no data: %w",
				i+1, obs.Name, obs.Node, ErrShape)
		}
		fmt.Fprintf(&header, "%5d"+obsSep+"%8d"+obsSep+errFmt+"\n", i+1, obs.Node, e)
		if len(obs.Data) > ntime {
			ntime = len(obs.Data)
		}
	}
	log.Info(header.String())

	data := stackObservations(c.Wells, ntime, c.Missing)
	log.Infof("Number of time steps: %d", ntime)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("enkfprep: creating observation file: %v", err)
	}
	w := bufio.NewWriter(f)
	w.WriteString(header.String())
	for i := 0; i < ntime; i++ {
		w.WriteString(joinFloats(data.RawRowView(i), obsFmt, 0, obsSep))
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("enkfprep: writing observation file: %v", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("enkfprep: closing observation file: %v", err)
	}
	log.WithField("file", path).Info("wrote observation well data")
	return path, nil
}

// stackObservations returns a time × well matrix of the well data,
// padding short series at the end and replacing missing values with
// missing, if it is not nil.
func stackObservations(wells []ObsWell, ntime int, missing *float64) *mat.Dense {
	fill := math.NaN()
	if missing != nil {
		fill = *missing
	}
	m := mat.NewDense(ntime, len(wells), nil)
	for j, obs := range wells {
		for i := 0; i < ntime; i++ {
			v := fill
			if i < len(obs.Data) && !math.IsNaN(obs.Data[i]) {
				v = obs.Data[i]
			}
			m.Set(i, j, v)
		}
	}
	return m
}
