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
	"reflect"
	"testing"
)

func TestParseNamedPaths(t *testing.T) {
	n, err := ParseNamedPaths([]string{"rain = /data/rain.inc", "et=/data/et.inc", "pump=a=b.inc"})
	if err != nil {
		t.Fatal(err)
	}
	want := NamedPaths{
		{Name: "rain", Path: "/data/rain.inc"},
		{Name: "et", Path: "/data/et.inc"},
		{Name: "pump", Path: "a=b.inc"},
	}
	if !reflect.DeepEqual(n, want) {
		t.Errorf("have %v, want %v", n, want)
	}
	if names := n.Names(); !reflect.DeepEqual(names, []string{"rain", "et", "pump"}) {
		t.Errorf("names: %v", names)
	}
	if p, ok := n.Lookup("et"); !ok || p != "/data/et.inc" {
		t.Errorf("lookup: %q, %v", p, ok)
	}
	if _, ok := n.Lookup("snow"); ok {
		t.Error("found missing name")
	}
}

func TestParseNamedPathsErrors(t *testing.T) {
	tests := []struct {
		entries []string
		err     error
	}{
		{entries: []string{"rain"}, err: ErrValue},
		{entries: []string{"=rain.inc"}, err: ErrValue},
		{entries: []string{"rain="}, err: ErrValue},
		{entries: []string{"rain=a.inc", "rain=b.inc"}, err: ErrValue},
		{entries: []string{" =a.inc"}, err: ErrValue},
		{entries: nil, err: ErrMissingConfig},
	}
	for _, test := range tests {
		if _, err := ParseNamedPaths(test.entries); !errors.Is(err, test.err) {
			t.Errorf("%v: have error %v, want %v", test.entries, err, test.err)
		}
	}
}
