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
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestFeedback(t *testing.T) {
	Feedback(nil).WithField("file", "x").Info("discarded")

	var b bytes.Buffer
	l := logrus.New()
	l.Out = &b
	Feedback(l).Info("kept")
	if !strings.Contains(b.String(), "kept") {
		t.Errorf("log output %q", b.String())
	}
}
