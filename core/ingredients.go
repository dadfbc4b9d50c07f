package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Ingredient is a single name/quantity pair.
type Ingredient struct {
	Name     string
	Quantity string
}

// Ingredients is an ordered name -> quantity mapping.
// It encodes as a JSON object and keeps the source key order on decode.
type Ingredients []Ingredient

// Get returns the quantity for name.
func (in Ingredients) Get(name string) (string, bool) {
	for _, i := range in {
		if i.Name == name {
			return i.Quantity, true
		}
	}
	return "", false
}

// Map returns the ingredients as an unordered map.
func (in Ingredients) Map() map[string]string {
	m := make(map[string]string, len(in))
	for _, i := range in {
		m[i.Name] = i.Quantity
	}
	return m
}

// MarshalJSON encodes the ingredients as an object in insertion order.
func (in Ingredients) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, i := range in {
		if idx > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(i.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(i.Quantity)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order. Scalar values are
// taken as their literal text. A repeated name keeps its first position and
// its last value.
func (in *Ingredients) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("ingredients: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*in = nil
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("ingredients: expected object, got %s", res.Type)
	}
	out := Ingredients{}
	seen := make(map[string]int)
	var bad error
	res.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			name := key.String()
			if idx, ok := seen[name]; ok {
				out[idx].Quantity = value.String()
				return true
			}
			seen[name] = len(out)
			out = append(out, Ingredient{Name: name, Quantity: value.String()})
			return true
		default:
			bad = fmt.Errorf("ingredients: value for %q is not a scalar", key.String())
			return false
		}
	})
	if bad != nil {
		return bad
	}
	*in = out
	return nil
}
