// Package job defines backup job definitions and their JSON record format.
package job

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultTime used as the daily start time if job doesn't set one
const DefaultTime = "00:00"

var reClock = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ErrInvalid returned by Validate for jobs which can't be registered or scheduled
var ErrInvalid = errors.New("invalid job")

// Job describes one named backup task. Source and Destination are opaque to the registry,
// they are consumed by the backup executor once the scheduled unit fires.
type Job struct {
	Name        string
	Source      string
	Destination string
	Time        string // HH:MM, daily start time
	Days        Days
	Flags       Flags
	Enabled     bool
}

// Flags controls backup behavior
type Flags struct {
	Compress         bool
	Incremental      bool
	Recursive        bool
	FollowLinks      bool
	DeleteExtraneous bool
	Compression      Compression
}

// Days is a set of weekdays the job is eligible to run on, indexed by time.Weekday
type Days [7]bool

// NewDays makes Days with given weekdays set
func NewDays(days ...time.Weekday) Days {
	var res Days
	for _, d := range days {
		res[d] = true
	}
	return res
}

// Weekdays returns all set days, Sunday first
func (d Days) Weekdays() []time.Weekday {
	res := []time.Weekday{}
	for i, on := range d {
		if on {
			res = append(res, time.Weekday(i))
		}
	}
	return res
}

// Any returns true if at least one day is set
func (d Days) Any() bool {
	return len(d.Weekdays()) > 0
}

// String returns comma-separated short day names, i.e. "Mon,Wed,Fri"
func (d Days) String() string {
	names := make([]string, 0, 7)
	for _, wd := range d.Weekdays() {
		names = append(names, wd.String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseDays parses comma-separated day names, short ("mon") or full ("monday"), case-insensitive.
// "*" and "all" set all days, empty string sets none.
func ParseDays(s string) (Days, error) {
	var res Days
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "*" || part == "all" {
			return NewDays(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday), nil
		}
		found := false
		for i := range res {
			name := strings.ToLower(time.Weekday(i).String())
			if part == name || part == name[:3] {
				res[i], found = true, true
				break
			}
		}
		if !found {
			return Days{}, fmt.Errorf("%w: unknown day %q", ErrInvalid, part)
		}
	}
	return res, nil
}

// Clock returns hour and minute of the job start time, DefaultTime used for empty Time
func (j Job) Clock() (hour, minute int, err error) {
	t := j.Time
	if t == "" {
		t = DefaultTime
	}
	if !reClock.MatchString(t) {
		return 0, 0, fmt.Errorf("%w: time %q, expected HH:MM", ErrInvalid, t)
	}
	if _, err := fmt.Sscanf(t, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("%w: time %q: %v", ErrInvalid, t, err)
	}
	return hour, minute, nil
}

// Validate checks fields required to register the job
func (j Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}
	if strings.ContainsAny(j.Name, "/\\\x00") {
		return fmt.Errorf("%w: name %q contains path separator", ErrInvalid, j.Name)
	}
	if j.Source == "" {
		return fmt.Errorf("%w: empty source", ErrInvalid)
	}
	if j.Destination == "" {
		return fmt.Errorf("%w: empty destination", ErrInvalid)
	}
	if _, _, err := j.Clock(); err != nil {
		return err
	}
	switch j.Flags.Compression {
	case CompressionNone, CompressionGzip, CompressionZstd:
	default:
		// non-canonical names like "GZIP" or "none" would change on reload
		return fmt.Errorf("%w: unknown compression %q", ErrInvalid, string(j.Flags.Compression))
	}
	return nil
}

// Compression algorithm used by the executor, the zero value is CompressionNone
type Compression string

// enum of supported compressions
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression converts name to Compression, empty string and "none" are CompressionNone
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression %q", s)
}

func (c Compression) String() string {
	if c == CompressionNone {
		return "none"
	}
	return string(c)
}

// MarshalText implements encoding.TextMarshaler
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Compression) UnmarshalText(text []byte) error {
	v, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
