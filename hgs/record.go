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
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/spatialmodel/enkfprep"
)

// byteOrder is the byte order of HGS binary output.
var byteOrder = binary.LittleEndian

// readRecord reads one Fortran sequential unformatted record: the payload
// length as an int32, the payload, and the length again.
func readRecord(r io.Reader) ([]byte, error) {
	var head, tail int32
	if err := binary.Read(r, byteOrder, &head); err != nil {
		return nil, err
	}
	if head < 0 {
		return nil, fmt.Errorf("hgs: negative record length %d", head)
	}
	b := make([]byte, head)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("hgs: reading %d byte record: %v", head, err)
	}
	if err := binary.Read(r, byteOrder, &tail); err != nil {
		return nil, fmt.Errorf("hgs: reading record end marker: %v", err)
	}
	if head != tail {
		return nil, fmt.Errorf("hgs: record markers do not match: %d != %d", head, tail)
	}
	return b, nil
}

// WriteRecord writes data as one Fortran sequential unformatted record.
// data must be a fixed-size value or a slice of fixed-size values,
// as accepted by encoding/binary.
func WriteRecord(w io.Writer, data interface{}) error {
	n := binary.Size(data)
	if n < 0 {
		return fmt.Errorf("hgs: invalid record data type %T: %w", data, enkfprep.ErrType)
	}
	if err := binary.Write(w, byteOrder, int32(n)); err != nil {
		return err
	}
	if err := binary.Write(w, byteOrder, data); err != nil {
		return err
	}
	return binary.Write(w, byteOrder, int32(n))
}

// int32s decodes a record payload as int32 values.
func int32s(b []byte) ([]int32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("hgs: record length %d is not a multiple of 4: %w", len(b), enkfprep.ErrShape)
	}
	o := make([]int32, len(b)/4)
	for i := range o {
		o[i] = int32(byteOrder.Uint32(b[4*i:]))
	}
	return o, nil
}

// float64s decodes a record payload of n values, which may be stored in
// single or double precision.
func float64s(b []byte, n int) ([]float64, error) {
	o := make([]float64, n)
	switch len(b) {
	case 8 * n:
		for i := range o {
			o[i] = math.Float64frombits(byteOrder.Uint64(b[8*i:]))
		}
	case 4 * n:
		for i := range o {
			o[i] = float64(math.Float32frombits(byteOrder.Uint32(b[4*i:])))
		}
	default:
		return nil, fmt.Errorf("hgs: record of %d bytes does not hold %d values: %w", len(b), n, enkfprep.ErrShape)
	}
	return o, nil
}
