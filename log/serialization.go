package log

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/reglet-dev/operator-host/wireformat"
)

// FromWire converts a guest attribute to a slog.Attr. Values that do not
// parse as their declared type are kept as strings.
func FromWire(wire wireformat.LogAttrWire) slog.Attr {
	switch wire.Type {
	case "int64":
		if v, err := strconv.ParseInt(wire.Value, 10, 64); err == nil {
			return slog.Int64(wire.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(wire.Value, 10, 64); err == nil {
			return slog.Uint64(wire.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(wire.Value); err == nil {
			return slog.Bool(wire.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(wire.Value, 64); err == nil {
			return slog.Float64(wire.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, wire.Value); err == nil {
			return slog.Time(wire.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(wire.Value); err == nil {
			return slog.Duration(wire.Key, v)
		}
	case "json":
		if json.Valid([]byte(wire.Value)) {
			return slog.Any(wire.Key, json.RawMessage(wire.Value))
		}
	}
	return slog.String(wire.Key, wire.Value)
}

// Attrs converts guest attributes into slog key/value arguments.
func Attrs(wires []wireformat.LogAttrWire) []any {
	args := make([]any, 0, len(wires))
	for _, w := range wires {
		args = append(args, FromWire(w))
	}
	return args
}
