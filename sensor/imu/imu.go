// Package imu provides the inertial sample type and a CSV dataset reader for
// replay.
package imu

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Sample is one inertial reading: angular velocity (rad/s) and linear
// acceleration (m/s^2) in the body frame.
type Sample struct {
	Gyro  r3.Vector
	Accel r3.Vector
	TS    time.Time
}

// ReadCSV parses an IMU dataset file with rows of the form
// timestamp_ns,gx,gy,gz,ax,ay,az. Lines starting with '#' are skipped.
func ReadCSV(path string) ([]Sample, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.FieldsPerRecord = 7
	reader.TrimLeadingSpace = true

	var samples []Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading imu csv")
		}
		vals := make([]float64, 6)
		tsNanos, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad timestamp %q", record[0])
		}
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad value %q", record[i+1])
			}
			vals[i] = v
		}
		samples = append(samples, Sample{
			Gyro:  r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]},
			Accel: r3.Vector{X: vals[3], Y: vals[4], Z: vals[5]},
			TS:    time.Unix(0, tsNanos),
		})
	}
	return samples, nil
}
