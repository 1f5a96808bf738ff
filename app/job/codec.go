package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedRecord returned by FromJSON for records missing required fields or with wrongly typed values
var ErrMalformedRecord = errors.New("malformed job record")

// flag keys in the "flags" sub-document
const (
	flagCompress         = "compress"
	flagIncremental      = "incremental"
	flagRecursive        = "recursive"
	flagFollowLinks      = "follow_links"
	flagDeleteExtraneous = "delete_extraneous"
	flagCompression      = "compression"
)

// record is the on-disk form of a job
type record struct {
	Name        string          `json:"name"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Time        string          `json:"time,omitempty"`
	Enabled     bool            `json:"enabled"`
	Days        map[string]bool `json:"days"`
	Flags       map[string]any  `json:"flags"`
}

// ToJSON makes json record of the job
func ToJSON(j Job) (json.RawMessage, error) {
	data, err := json.Marshal(toRecord(j))
	if err != nil {
		return nil, fmt.Errorf("can't marshal job %q: %w", j.Name, err)
	}
	return data, nil
}

// Text returns indented json record of the job for display
func Text(j Job) (string, error) {
	data, err := json.MarshalIndent(toRecord(j), "", "  ")
	if err != nil {
		return "", fmt.Errorf("can't marshal job %q: %w", j.Name, err)
	}
	return string(data), nil
}

// FromJSON makes job from json record. Name, source and destination are required,
// all other fields are optional and default to zero values.
func FromJSON(data []byte) (Job, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	res := Job{}
	var err error
	if res.Name, err = requiredString(fields, "name"); err != nil {
		return Job{}, err
	}
	if res.Source, err = requiredString(fields, "source"); err != nil {
		return Job{}, err
	}
	if res.Destination, err = requiredString(fields, "destination"); err != nil {
		return Job{}, err
	}

	if raw, ok := present(fields, "time"); ok {
		if err = json.Unmarshal(raw, &res.Time); err != nil {
			return Job{}, fmt.Errorf("%w: time: %v", ErrMalformedRecord, err)
		}
		if _, _, err = res.Clock(); err != nil {
			return Job{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
	}

	if raw, ok := present(fields, "enabled"); ok {
		if err = json.Unmarshal(raw, &res.Enabled); err != nil {
			return Job{}, fmt.Errorf("%w: enabled: %v", ErrMalformedRecord, err)
		}
	}

	if raw, ok := present(fields, "days"); ok {
		if res.Days, err = DaysFromJSON(raw); err != nil {
			return Job{}, err
		}
	}

	if raw, ok := present(fields, "flags"); ok {
		if res.Flags, err = FlagsFromJSON(raw); err != nil {
			return Job{}, err
		}
	}

	return res, nil
}

// DaysToJSON makes days sub-document with a boolean for each weekday
func DaysToJSON(d Days) map[string]bool {
	res := make(map[string]bool, len(d))
	for i, on := range d {
		res[dayKey(time.Weekday(i))] = on
	}
	return res
}

// DaysFromJSON parses days sub-document. Unknown keys are ignored, missing days are off.
func DaysFromJSON(data []byte) (Days, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return Days{}, fmt.Errorf("%w: days: %v", ErrMalformedRecord, err)
	}
	var res Days
	for i := range res {
		key := dayKey(time.Weekday(i))
		raw, ok := present(fields, key)
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &res[i]); err != nil {
			return Days{}, fmt.Errorf("%w: days.%s: %v", ErrMalformedRecord, key, err)
		}
	}
	return res, nil
}

// FlagsToJSON makes flags sub-document
func FlagsToJSON(f Flags) map[string]any {
	return map[string]any{
		flagCompress:         f.Compress,
		flagIncremental:      f.Incremental,
		flagRecursive:        f.Recursive,
		flagFollowLinks:      f.FollowLinks,
		flagDeleteExtraneous: f.DeleteExtraneous,
		flagCompression:      f.Compression.String(),
	}
}

// FlagsFromJSON parses flags sub-document. Unknown keys are ignored, missing flags are off.
func FlagsFromJSON(data []byte) (Flags, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return Flags{}, fmt.Errorf("%w: flags: %v", ErrMalformedRecord, err)
	}

	res := Flags{}
	bools := []struct {
		key string
		val *bool
	}{
		{flagCompress, &res.Compress},
		{flagIncremental, &res.Incremental},
		{flagRecursive, &res.Recursive},
		{flagFollowLinks, &res.FollowLinks},
		{flagDeleteExtraneous, &res.DeleteExtraneous},
	}
	for _, b := range bools {
		raw, ok := present(fields, b.key)
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, b.val); err != nil {
			return Flags{}, fmt.Errorf("%w: flags.%s: %v", ErrMalformedRecord, b.key, err)
		}
	}

	if raw, ok := present(fields, flagCompression); ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Flags{}, fmt.Errorf("%w: flags.%s: %v", ErrMalformedRecord, flagCompression, err)
		}
		c, err := ParseCompression(s)
		if err != nil {
			return Flags{}, fmt.Errorf("%w: flags.%s: %v", ErrMalformedRecord, flagCompression, err)
		}
		res.Compression = c
	}
	return res, nil
}

func toRecord(j Job) record {
	return record{
		Name:        j.Name,
		Source:      j.Source,
		Destination: j.Destination,
		Time:        j.Time,
		Enabled:     j.Enabled,
		Days:        DaysToJSON(j.Days),
		Flags:       FlagsToJSON(j.Flags),
	}
}

// dayKey returns lowercase weekday name, i.e. "monday"
func dayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// present returns raw value for the key, explicit null treated as missing
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := present(fields, key)
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrMalformedRecord, key)
	}
	var res string
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
	}
	if res == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMalformedRecord, key)
	}
	return res, nil
}
