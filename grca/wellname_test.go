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
	"errors"
	"testing"

	"github.com/spatialmodel/enkfprep"
)

func TestParseWellName(t *testing.T) {
	tests := []struct {
		name    string
		id, no  int
		invalid bool
	}{
		{name: "W178", id: 178, no: 1},
		{name: "W347-3.xlsx", id: 347, no: 3},
		{name: "w0000347-3", id: 347, no: 3},
		{name: "W0000178-1", id: 178, no: 1},
		{name: "412", id: 412, no: 1},
		{name: "a.b.c", invalid: true},
		{name: "W12-x", invalid: true},
		{name: "", invalid: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id, no, err := ParseWellName(test.name)
			if test.invalid {
				if !errors.Is(err, enkfprep.ErrValue) {
					t.Errorf("have error %v, want value error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if id != test.id || no != test.no {
				t.Errorf("have (%d, %d), want (%d, %d)", id, no, test.id, test.no)
			}
		})
	}
}

func TestWellFilenames(t *testing.T) {
	if f := XLSFilename(78, 1); f != "W078.xlsx" {
		t.Errorf("XLSFilename: %s", f)
	}
	if f := XLSFilename(347, 3); f != "W347-3.xlsx" {
		t.Errorf("XLSFilename: %s", f)
	}
	if n := PGMNName(347, 3); n != "W0000347-3" {
		t.Errorf("PGMNName: %s", n)
	}
}
