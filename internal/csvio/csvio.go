// Package csvio reads point CSV files and reads and writes labeled CSV
// files of the form cid,x1,...,xD.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/TrevorS/dbscan"
)

// ParseError reports a malformed line. Line and Field are 1-based; Field is
// 0 when the problem concerns the whole line.
type ParseError struct {
	Line  int
	Field int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, field %d: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports the error as dbscan.ErrInvalidInput.
func (e *ParseError) Is(target error) bool { return target == dbscan.ErrInvalidInput }

// LabeledRow is one row of a labeled CSV file.
type LabeledRow struct {
	Cid    int
	Coords []float64
}

// ReadPoints reads a point CSV file: no header, one point per line, fields
// separated by commas and trimmed, blank lines skipped. The first line fixes
// the dimension.
func ReadPoints(path string) ([]dbscan.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	defer f.Close()
	points, err := ParsePoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// ParsePoints parses point CSV from r.
func ParsePoints(r io.Reader) ([]dbscan.Point, error) {
	var points []dbscan.Point
	dims := -1
	err := eachRecord(r, func(line int, fields []string) error {
		p := make(dbscan.Point, len(fields))
		for i, s := range fields {
			v, err := parseFloat(s)
			if err != nil {
				return &ParseError{Line: line, Field: i + 1, Err: err}
			}
			p[i] = v
		}
		if dims < 0 {
			dims = len(p)
		} else if len(p) != dims {
			return &ParseError{Line: line, Err: fmt.Errorf("dimension mismatch: expected %d, got %d", dims, len(p))}
		}
		points = append(points, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points found in input", dbscan.ErrInvalidInput)
	}
	return points, nil
}

// ReadLabeled reads a labeled CSV file. Every row needs a cid and at least
// one coordinate, and all rows must agree on the number of coordinates.
func ReadLabeled(path string) ([]LabeledRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	defer f.Close()
	rows, err := ParseLabeled(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ParseLabeled parses labeled CSV from r.
func ParseLabeled(r io.Reader) ([]LabeledRow, error) {
	var rows []LabeledRow
	dims := -1
	err := eachRecord(r, func(line int, fields []string) error {
		if len(fields) < 2 {
			return &ParseError{Line: line, Err: errors.New("expected at least 2 columns (cid,x1,...)")}
		}
		cid, err := strconv.Atoi(fields[0])
		if err != nil {
			return &ParseError{Line: line, Field: 1, Err: fmt.Errorf("invalid cid %q", fields[0])}
		}
		coords := make([]float64, len(fields)-1)
		for i, s := range fields[1:] {
			v, err := parseFloat(s)
			if err != nil {
				return &ParseError{Line: line, Field: i + 2, Err: err}
			}
			coords[i] = v
		}
		if dims < 0 {
			dims = len(coords)
		} else if len(coords) != dims {
			return &ParseError{Line: line, Err: fmt.Errorf("dimension mismatch: expected %d, got %d", dims, len(coords))}
		}
		rows = append(rows, LabeledRow{Cid: cid, Coords: coords})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no samples found in input", dbscan.ErrInvalidInput)
	}
	return rows, nil
}

// WriteLabeled writes one row per point of set, in ref order.
func WriteLabeled(path string, set *dbscan.PointSet, classes dbscan.Classes) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	if err := FormatLabeled(f, set, classes); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	return nil
}

// FormatLabeled writes cid,x1,...,xD rows to w. The cid is -1 for noise and
// for any ref classes does not cover.
func FormatLabeled(w io.Writer, set *dbscan.PointSet, classes dbscan.Classes) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for i := 0; i < set.Len(); i++ {
		ref := dbscan.PointRef(i)
		buf = strconv.AppendInt(buf[:0], int64(classes.Get(ref).Int()), 10)
		for _, v := range set.At(ref) {
			buf = append(buf, ',')
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	return nil
}

// eachRecord calls fn with the 1-based line number and trimmed fields of
// every non-blank record.
func eachRecord(r io.Reader, fn func(line int, fields []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
		}
		line, _ := cr.FieldPos(0)
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if len(record) == 1 && record[0] == "" {
			continue // whitespace-only line
		}
		if err := fn(line, record); err != nil {
			return err
		}
	}
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}
