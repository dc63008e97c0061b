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
	"io"

	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.3.0"

// These are the error kinds returned by the functions in this package and
// its sub-packages. Returned errors wrap one of them, so callers can test
// for a kind with errors.Is.
var (
	// ErrMissingPath indicates that a required file or directory does not exist.
	ErrMissingPath = errors.New("missing path")

	// ErrShape indicates that the dimensions of the inputs disagree.
	ErrShape = errors.New("shape mismatch")

	// ErrMissingConfig indicates that a required setting, such as a scale
	// factor or an observation error, could not be resolved.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrType indicates a structured argument of the wrong type.
	ErrType = errors.New("invalid argument type")

	// ErrValue indicates an unsupported or malformed value.
	ErrValue = errors.New("invalid value")
)

// Feedback returns log, or a logger that discards everything if log is nil.
func Feedback(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.Out = io.Discard
	return l
}
