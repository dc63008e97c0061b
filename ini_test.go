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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// fakeField is a realization with npm porous medium nodes, of which the
// first nolf are overland flow nodes. Head at node i is (index+1)*10^(i%3).
type fakeField struct {
	npm, nolf, index int
}

func (f fakeField) ReadCoordinatesPM() ([]r3.Vec, error) {
	o := make([]r3.Vec, f.npm)
	for i := range o {
		o[i] = r3.Vec{X: float64(i)}
	}
	return o, nil
}

func (f fakeField) ReadCoordinatesOLF(pm []r3.Vec) ([]r3.Vec, error) {
	return pm[:f.nolf], nil
}

func (f fakeField) ReadVar(name string, n int) ([]float64, error) {
	o := make([]float64, n)
	for i := range o {
		o[i] = float64(f.index+1) * math.Pow(10, float64(i%3))
	}
	return o, nil
}

// fakeOpener opens fake realizations; nodes returns the node counts of
// each realization index.
func fakeOpener(nodes func(index int) (npm, nolf int)) ReaderOpener {
	return func(prefix, dir string, index int) (FieldReader, error) {
		if !strings.HasSuffix(prefix, "o") {
			return nil, fmt.Errorf("invalid prefix %q", prefix)
		}
		npm, nolf := nodes(index)
		return fakeField{npm: npm, nolf: nolf, index: index}, nil
	}
}

// touchHeads creates empty head files for the given realization indices.
func touchHeads(t *testing.T, dir, prefix string, indices ...int) {
	for _, i := range indices {
		p := filepath.Join(dir, fmt.Sprintf("%so.head_pm.%04d", prefix, i))
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWriteEnKFIni(t *testing.T) {
	out := t.TempDir()
	in1, in2 := t.TempDir(), t.TempDir()
	touchHeads(t, in1, "test", 1, 2)
	touchHeads(t, in2, "test", 3)
	pmFile, olfFile, err := WriteEnKFIni(IniConfig{
		Dir:       out,
		Prefix:    "test",
		InputDirs: []string{in1, in2},
		Open:      fakeOpener(func(int) (int, int) { return 5, 2 }),
	})
	if err != nil {
		t.Fatal(err)
	}
	if pmFile != filepath.Join(out, PMIniFile) || olfFile != filepath.Join(out, OLFIniFile) {
		t.Errorf("files: %s, %s", pmFile, olfFile)
	}
	for _, test := range []struct {
		file  string
		nodes int
	}{{pmFile, 5}, {olfFile, 2}} {
		lines := readLines(t, test.file)
		if len(lines) != test.nodes {
			t.Fatalf("%s has %d lines, want %d", test.file, len(lines), test.nodes)
		}
		for i, l := range lines {
			if len(l) < 18 {
				t.Fatalf("short line %q", l)
			}
			if node := strings.TrimSpace(l[:18]); node != strconv.Itoa(i+1) {
				t.Errorf("%s line %d: node %q", test.file, i, node)
			}
			vals := strings.Split(l[18:], " ")[1:]
			if len(vals) != 3 {
				t.Fatalf("%s line %d: %d realizations, want 3", test.file, i, len(vals))
			}
			for j, vs := range vals {
				v, err := strconv.ParseFloat(vs, 64)
				if err != nil {
					t.Fatal(err)
				}
				// Realization j has output index j+1.
				want := math.Log10(float64(j+2)) + float64(i%3)
				if math.Abs(v-want) > 1e-12 {
					t.Errorf("%s node %d realization %d: have %g, want %g", test.file, i+1, j, v, want)
				}
			}
		}
	}
	if l := readLines(t, pmFile)[0]; l != fmt.Sprintf("%18d %.18f %.18f %.18f", 1,
		math.Log10(2), math.Log10(3), math.Log10(4)) {
		t.Errorf("first line: %q", l)
	}
}

func TestWriteEnKFIniErrors(t *testing.T) {
	in := t.TempDir()
	touchHeads(t, in, "test", 1, 2)
	open := fakeOpener(func(int) (int, int) { return 5, 2 })
	tests := []struct {
		name string
		c    IniConfig
		err  error
	}{
		{
			name: "missing output",
			c:    IniConfig{Dir: filepath.Join(in, "out"), Prefix: "test", InputDirs: []string{in}, Open: open},
			err:  ErrMissingPath,
		},
		{
			name: "no match",
			c:    IniConfig{Dir: t.TempDir(), Prefix: "other", InputDirs: []string{in}, Open: open},
			err:  ErrMissingPath,
		},
		{
			name: "no reader",
			c:    IniConfig{Dir: t.TempDir(), Prefix: "test", InputDirs: []string{in}},
			err:  ErrMissingConfig,
		},
		{
			name: "node mismatch",
			c: IniConfig{Dir: t.TempDir(), Prefix: "test", InputDirs: []string{in},
				Open: fakeOpener(func(i int) (int, int) { return 4 + i, 2 })},
			err: ErrShape,
		},
		{
			name: "olf node mismatch",
			c: IniConfig{Dir: t.TempDir(), Prefix: "test", InputDirs: []string{in},
				Open: fakeOpener(func(i int) (int, int) { return 5, i })},
			err: ErrShape,
		},
		{
			name: "no nodes",
			c: IniConfig{Dir: t.TempDir(), Prefix: "test", InputDirs: []string{in},
				Open: fakeOpener(func(i int) (int, int) { return 0, 0 })},
			err: ErrShape,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := WriteEnKFIni(test.c)
			if !errors.Is(err, test.err) {
				t.Errorf("have error %v, want %v", err, test.err)
			}
		})
	}
}

func TestRealizationIndex(t *testing.T) {
	if i, err := realizationIndex("/a/testo.head_pm.0012", 4); err != nil || i != 12 {
		t.Errorf("have %d (%v), want 12", i, err)
	}
	if _, err := realizationIndex("/a/testo.head_pm.00a2", 4); !errors.Is(err, ErrValue) {
		t.Errorf("have error %v, want value error", err)
	}
}
