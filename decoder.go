package main

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformedRecord = errors.New("malformed slowlog record")

// SchemaFor picks the record shape for a probed version. Unknown versions
// are treated as major 0.
func SchemaFor(v *Version) Schema {
	if v != nil && v.Major >= 4 {
		return SchemaExtended
	}
	return SchemaLegacy
}

// DecodeSlowlog converts one raw SLOWLOG GET record into a SlowlogEntry.
// The record must match the selected schema exactly.
func DecodeSlowlog(raw interface{}, schema Schema) (SlowlogEntry, error) {
	fields, ok := raw.([]interface{})
	if !ok {
		return SlowlogEntry{}, fmt.Errorf("%w: expected array, got %T", ErrMalformedRecord, raw)
	}
	if len(fields) != schema.arity() {
		return SlowlogEntry{}, fmt.Errorf("%w: %s schema expects %d fields, got %d",
			ErrMalformedRecord, schema, schema.arity(), len(fields))
	}

	var entry SlowlogEntry
	var err error
	if entry.ID, err = decodeUint(fields[0], "id"); err != nil {
		return SlowlogEntry{}, err
	}
	if entry.Timestamp, err = decodeUint(fields[1], "timestamp"); err != nil {
		return SlowlogEntry{}, err
	}
	micros, err := decodeUint(fields[2], "duration")
	if err != nil {
		return SlowlogEntry{}, err
	}
	entry.Duration = time.Duration(micros) * time.Microsecond
	if entry.Command, err = decodeCommand(fields[3]); err != nil {
		return SlowlogEntry{}, err
	}

	if schema == SchemaExtended {
		if entry.Address, err = decodeString(fields[4], "client address"); err != nil {
			return SlowlogEntry{}, err
		}
		if entry.ClientName, err = decodeString(fields[5], "client name"); err != nil {
			return SlowlogEntry{}, err
		}
	}
	return entry, nil
}

func decodeUint(v interface{}, field string) (uint64, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrMalformedRecord, field, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", ErrMalformedRecord, field, n)
	}
	return uint64(n), nil
}

func decodeString(v interface{}, field string) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrMalformedRecord, field, v)
	}
}

func decodeCommand(v interface{}) ([]string, error) {
	args, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: command must be an array, got %T", ErrMalformedRecord, v)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: command is empty", ErrMalformedRecord)
	}
	cmd := make([]string, 0, len(args))
	for _, a := range args {
		s, err := decodeString(a, "command token")
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, s)
	}
	return cmd, nil
}
