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

package hgs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spatialmodel/enkfprep"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRecord(t *testing.T) {
	var b bytes.Buffer
	want := []float64{1.5, -2, 3e10}
	if err := WriteRecord(&b, want); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 8*len(want)+8 {
		t.Errorf("record length: have %d, want %d", b.Len(), 8*len(want)+8)
	}
	rec, err := readRecord(&b)
	if err != nil {
		t.Fatal(err)
	}
	have, err := float64s(rec, len(want))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestRecordFloat32(t *testing.T) {
	var b bytes.Buffer
	if err := WriteRecord(&b, []float32{0.5, 2}); err != nil {
		t.Fatal(err)
	}
	rec, err := readRecord(&b)
	if err != nil {
		t.Fatal(err)
	}
	have, err := float64s(rec, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0.5, 2}; !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if _, err := float64s(rec, 3); !errors.Is(err, enkfprep.ErrShape) {
		t.Errorf("wrong length: have error %v, want shape error", err)
	}
}

func TestRecordMarkers(t *testing.T) {
	var b bytes.Buffer
	if err := WriteRecord(&b, []int32{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	raw := b.Bytes()
	raw[len(raw)-4] = 99
	if _, err := readRecord(bytes.NewReader(raw)); err == nil {
		t.Error("expected an error for mismatched record markers")
	}
}

func TestWriteRecordType(t *testing.T) {
	if err := WriteRecord(&bytes.Buffer{}, []string{"a"}); !errors.Is(err, enkfprep.ErrType) {
		t.Errorf("have error %v, want type error", err)
	}
}

// writeRealization writes the output of a small model with 4 porous
// medium nodes, 2 of which are overland flow nodes.
func writeRealization(t *testing.T, dir string, index int) *IO {
	h, err := Open("testo", dir, index)
	if err != nil {
		t.Fatal(err)
	}
	pm := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}}
	if err := h.WriteCoordinatesPM(pm); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteCoordinatesOLF([]int32{3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteVar("head_pm", 86400, []float64{10, 20, 30, 40}); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteVar("head_olf", 86400, []float64{30, 40}); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestIO(t *testing.T) {
	dir := t.TempDir()
	writeRealization(t, dir, 2)

	var r enkfprep.FieldReader
	r, err := Opener("testo", dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	pm, err := r.ReadCoordinatesPM()
	if err != nil {
		t.Fatal(err)
	}
	if len(pm) != 4 || pm[3] != (r3.Vec{X: 1, Y: 0, Z: 1}) {
		t.Errorf("PM coordinates: %v", pm)
	}
	olf, err := r.ReadCoordinatesOLF(pm)
	if err != nil {
		t.Fatal(err)
	}
	if want := []r3.Vec{pm[2], pm[3]}; !reflect.DeepEqual(olf, want) {
		t.Errorf("OLF coordinates: have %v, want %v", olf, want)
	}
	head, err := r.ReadVar("head_pm", len(pm))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{10, 20, 30, 40}; !reflect.DeepEqual(head, want) {
		t.Errorf("head: have %v, want %v", head, want)
	}
	if _, err := r.ReadVar("head_olf", 3); !errors.Is(err, enkfprep.ErrShape) {
		t.Errorf("have error %v, want shape error", err)
	}
	title, err := r.(*IO).Title("head_pm")
	if err != nil {
		t.Fatal(err)
	}
	if title != "SOLUTION TIME: 86400" {
		t.Errorf("title: %q", title)
	}
}

func TestIOErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open("testo", filepath.Join(dir, "missing"), 1); !errors.Is(err, enkfprep.ErrMissingPath) {
		t.Errorf("missing folder: have error %v, want missing path", err)
	}
	h := writeRealization(t, dir, 1)
	if _, err := h.ReadVar("conc", 4); !errors.Is(err, enkfprep.ErrMissingPath) {
		t.Errorf("missing variable: have error %v, want missing path", err)
	}
	if _, err := h.ReadCoordinatesOLF(make([]r3.Vec, 3)); !errors.Is(err, enkfprep.ErrShape) {
		t.Errorf("node id out of range: have error %v, want shape error", err)
	}
	if err := os.WriteFile(h.CoordinatesFile("pm"), []byte{4, 0, 0, 0, 1}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ReadCoordinatesPM(); err == nil {
		t.Error("expected an error for a truncated file")
	}
}
