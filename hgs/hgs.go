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

// Package hgs reads the binary output of the HydroGeoSphere (HGS)
// integrated surface/subsurface flow model.
package hgs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/enkfprep"
	"gonum.org/v1/gonum/spatial/r3"
)

// titleLen is the length of the title record that precedes the values
// in nodal variable files.
const titleLen = 80

// IO reads the output of one HGS realization. It implements
// enkfprep.FieldReader.
type IO struct {
	// Prefix is the output prefix (the problem prefix followed by "o").
	Prefix string

	// Dir is the folder holding the output files.
	Dir string

	// Index is the output index appended to nodal variable file names.
	Index int
}

// Open returns a reader for the output with the given prefix and output
// index in dir.
func Open(prefix, dir string, index int) (*IO, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("hgs: %v: %w", err, enkfprep.ErrMissingPath)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("hgs: %s is not a directory: %w", dir, enkfprep.ErrMissingPath)
	}
	return &IO{Prefix: prefix, Dir: dir, Index: index}, nil
}

// Opener is an enkfprep.ReaderOpener that opens HGS output.
func Opener(prefix, dir string, index int) (enkfprep.FieldReader, error) {
	return Open(prefix, dir, index)
}

// CoordinatesFile returns the path of the coordinates file of the named
// domain ("pm" or "olf").
func (h *IO) CoordinatesFile(domain string) string {
	return filepath.Join(h.Dir, h.Prefix+".coordinates_"+domain)
}

// VarFile returns the path of the file holding the named nodal variable.
func (h *IO) VarFile(name string) string {
	return filepath.Join(h.Dir, fmt.Sprintf("%s.%s.%04d", h.Prefix, name, h.Index))
}

// readFile reads all records in path.
func readFile(path string) ([][]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("hgs: %v: %w", err, enkfprep.ErrMissingPath)
		}
		return nil, fmt.Errorf("hgs: %v", err)
	}
	r := bytes.NewReader(b)
	var recs [][]byte
	for r.Len() > 0 {
		rec, err := readRecord(r)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("hgs: %s: truncated record: %w", path, enkfprep.ErrShape)
			}
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// readCount reads the node count record and the data record of a
// coordinates file.
func readCount(path string) (int, []byte, error) {
	recs, err := readFile(path)
	if err != nil {
		return 0, nil, err
	}
	if len(recs) < 2 {
		return 0, nil, fmt.Errorf("hgs: %s has %d records, expected 2: %w", path, len(recs), enkfprep.ErrShape)
	}
	n, err := int32s(recs[0])
	if err != nil || len(n) != 1 || n[0] < 0 {
		return 0, nil, fmt.Errorf("hgs: %s: invalid node count record: %w", path, enkfprep.ErrShape)
	}
	return int(n[0]), recs[1], nil
}

// ReadCoordinatesPM returns the coordinates of the porous medium nodes.
func (h *IO) ReadCoordinatesPM() ([]r3.Vec, error) {
	path := h.CoordinatesFile("pm")
	nn, rec, err := readCount(path)
	if err != nil {
		return nil, err
	}
	xyz, err := float64s(rec, 3*nn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o := make([]r3.Vec, nn)
	for i := range o {
		o[i] = r3.Vec{X: xyz[3*i], Y: xyz[3*i+1], Z: xyz[3*i+2]}
	}
	return o, nil
}

// ReadCoordinatesOLF returns the coordinates of the overland flow nodes,
// which are stored as 1-based indices into the porous medium nodes pm.
func (h *IO) ReadCoordinatesOLF(pm []r3.Vec) ([]r3.Vec, error) {
	path := h.CoordinatesFile("olf")
	nn, rec, err := readCount(path)
	if err != nil {
		return nil, err
	}
	ids, err := int32s(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(ids) != nn {
		return nil, fmt.Errorf("hgs: %s has %d node ids but a count of %d: %w", path, len(ids), nn, enkfprep.ErrShape)
	}
	o := make([]r3.Vec, nn)
	for i, id := range ids {
		if id < 1 || int(id) > len(pm) {
			return nil, fmt.Errorf("hgs: %s: node id %d is outside of 1..%d: %w", path, id, len(pm), enkfprep.ErrShape)
		}
		o[i] = pm[id-1]
	}
	return o, nil
}

// ReadVar reads the n values of the named nodal variable.
func (h *IO) ReadVar(name string, n int) ([]float64, error) {
	path := h.VarFile(name)
	recs, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if len(recs) < 2 {
		return nil, fmt.Errorf("hgs: %s has %d records, expected 2: %w", path, len(recs), enkfprep.ErrShape)
	}
	v, err := float64s(recs[1], n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Title returns the title record of the named nodal variable, which
// holds the simulation time of the output.
func (h *IO) Title(name string) (string, error) {
	recs, err := readFile(h.VarFile(name))
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("hgs: %s is empty: %w", h.VarFile(name), enkfprep.ErrShape)
	}
	return strings.TrimSpace(string(recs[0])), nil
}

// title returns s as a fixed-length title record.
func title(s string) []byte {
	b := bytes.Repeat([]byte{' '}, titleLen)
	copy(b, s)
	return b
}

// WriteCoordinatesPM writes the porous medium node coordinates.
func (h *IO) WriteCoordinatesPM(coords []r3.Vec) error {
	xyz := make([]float64, 0, 3*len(coords))
	for _, c := range coords {
		xyz = append(xyz, c.X, c.Y, c.Z)
	}
	return writeFile(h.CoordinatesFile("pm"), int32(len(coords)), xyz)
}

// WriteCoordinatesOLF writes the overland flow nodes as 1-based indices
// into the porous medium nodes.
func (h *IO) WriteCoordinatesOLF(ids []int32) error {
	return writeFile(h.CoordinatesFile("olf"), int32(len(ids)), ids)
}

// WriteVar writes the values of the named nodal variable, with the
// simulation time t as the title.
func (h *IO) WriteVar(name string, t float64, v []float64) error {
	return writeFile(h.VarFile(name), title(fmt.Sprintf("SOLUTION TIME: %g", t)), v)
}

// writeFile writes each of recs as a record to path.
func writeFile(path string, recs ...interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hgs: %v", err)
	}
	for _, r := range recs {
		if err := WriteRecord(f, r); err != nil {
			f.Close()
			return fmt.Errorf("hgs: writing %s: %w", path, err)
		}
	}
	return f.Close()
}
