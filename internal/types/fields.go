package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Backend record shapes vary across endpoints and deployments. Rather than
// scattering optional lookups, each logical field is resolved from an
// explicit ordered list of candidate keys, tried in priority order.

// PickString returns the first non-empty string value among keys.
func PickString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		case json.Number:
			return s.String()
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

// PickFloat returns the first finite numeric value among keys. Numeric
// strings are accepted since several backends serialize coordinates as
// text.
func PickFloat(rec map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		var f float64
		var err error
		switch n := v.(type) {
		case float64:
			f = n
		case json.Number:
			f, err = n.Float64()
		case string:
			f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
		default:
			continue
		}
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

// PickInt returns the first integer value among keys.
func PickInt(rec map[string]any, keys ...string) (int, bool) {
	f, ok := PickFloat(rec, keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// PickBool returns the first boolean value among keys. Accepts native
// bools plus the "true"/"false"/"Y"/"N" spellings seen in status logs.
func PickBool(rec map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "y", "yes", "open":
				return true, true
			case "false", "n", "no", "closed":
				return false, true
			}
		}
	}
	return false, false
}
