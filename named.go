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
	"fmt"
	"strings"
)

// NamedPath associates a boundary variable name with the file holding
// its time series.
type NamedPath struct {
	Name string
	Path string
}

// NamedPaths is an ordered list of named paths. The order is significant:
// it determines the order of the variable names in output file headers.
type NamedPaths []NamedPath

// ParseNamedPaths parses entries of the form "name=path", keeping their order.
// Surrounding whitespace is removed from both halves.
func ParseNamedPaths(entries []string) (NamedPaths, error) {
	o := make(NamedPaths, 0, len(entries))
	for _, e := range entries {
		i := strings.Index(e, "=")
		if i <= 0 || i == len(e)-1 {
			return nil, fmt.Errorf("enkfprep: boundary entry %q is not in the form name=path: %w", e, ErrValue)
		}
		o = append(o, NamedPath{
			Name: strings.TrimSpace(e[:i]),
			Path: strings.TrimSpace(e[i+1:]),
		})
	}
	if err := o.check(); err != nil {
		return nil, err
	}
	return o, nil
}

// Names returns the variable names in order.
func (n NamedPaths) Names() []string {
	o := make([]string, len(n))
	for i, p := range n {
		o[i] = p.Name
	}
	return o
}

// Lookup returns the path associated with name.
func (n NamedPaths) Lookup(name string) (string, bool) {
	for _, p := range n {
		if p.Name == name {
			return p.Path, true
		}
	}
	return "", false
}

// check makes sure there is at least one entry and that names are unique.
func (n NamedPaths) check() error {
	if len(n) == 0 {
		return fmt.Errorf("enkfprep: no boundary variables specified: %w", ErrMissingConfig)
	}
	seen := make(map[string]struct{}, len(n))
	for _, p := range n {
		if p.Name == "" {
			return fmt.Errorf("enkfprep: boundary variable with empty name (path %q): %w", p.Path, ErrValue)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("enkfprep: repeated boundary variable %q: %w", p.Name, ErrValue)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}
