package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrMissingStateKey is returned when an instruction references a required
// state key that is not set.
var ErrMissingStateKey = errors.New("missing state key")

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(\?)?\}`)

// FillInstruction replaces {key} and {key?} with state values. Optional keys
// that are not set become empty.
func FillInstruction(instruction string, state *State) (string, error) {
	var missing error
	out := placeholderRe.ReplaceAllStringFunc(instruction, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		key, optional := sub[1], sub[2] == "?"
		v, ok := state.Get(key)
		if !ok {
			if !optional && missing == nil {
				missing = fmt.Errorf("%w: %s", ErrMissingStateKey, key)
			}
			return ""
		}
		return formatValue(v)
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case int, int64, float64, bool:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
