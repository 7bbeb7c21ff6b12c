package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Answer is an answer value in string form. Values typed as numbers in JSON
// or YAML are canonicalised on decode, so 2 and 2.0 both become "2". Strings
// are kept as written apart from surrounding whitespace, so "007" and "7"
// stay distinct.
type Answer string

// NormalizeAnswer returns a string answer with surrounding whitespace removed.
func NormalizeAnswer(raw string) Answer {
	return Answer(strings.TrimSpace(raw))
}

// canonicalNumber renders a decoded number literal. Integers keep every
// digit; anything else goes through float64.
func canonicalNumber(raw string) Answer {
	trimmed := strings.TrimSpace(raw)
	if n, ok := new(big.Int).SetString(trimmed, 10); ok {
		return Answer(n.String())
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Answer(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return Answer(trimmed)
}

func (a Answer) String() string {
	return string(a)
}

// Matches reports whether both answers are equal once trimmed.
func (a Answer) Matches(other Answer) bool {
	return NormalizeAnswer(string(a)) == NormalizeAnswer(string(other))
}

// UnmarshalJSON accepts a JSON string or number.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = NormalizeAnswer(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("answer must be a string or number: %w", err)
	}
	*a = canonicalNumber(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar node. Only nodes resolved as !!int or
// !!float are canonicalised.
func (a *Answer) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("answer must be a scalar, got yaml kind %d", value.Kind)
	}
	switch value.ShortTag() {
	case "!!int":
		var n int64
		if err := value.Decode(&n); err == nil {
			*a = Answer(strconv.FormatInt(n, 10))
			return nil
		}
		*a = canonicalNumber(value.Value)
	case "!!float":
		*a = canonicalNumber(value.Value)
	default:
		*a = NormalizeAnswer(value.Value)
	}
	return nil
}
