// Package reqparse turns gin request data into validated query inputs:
// eager-load names, where conditions and update payloads.
package reqparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mickamy/ormrest/internal/httperr"
	"github.com/mickamy/ormrest/scope"
)

// IncludeKey is the query parameter naming associations to eager-load.
const IncludeKey = "include"

// Columns is implemented by entities that can vouch for a column name.
type Columns interface {
	HasColumn(column string) bool
}

// Includes is implemented by entities with named eager loads.
type Includes interface {
	HasInclude(name string) bool
}

// Include returns the eager-load names from ?include=a,b (repeatable), in
// request order without duplicates.
func Include(c *gin.Context, allowed Includes) ([]string, error) {
	var (
		names []string
		seen  = make(map[string]bool)
		ve    httperr.ValidationError
	)
	for _, v := range c.QueryArray(IncludeKey) {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if !allowed.HasInclude(name) {
				ve.Add(IncludeKey, "unknown include %q", name)
				continue
			}
			names = append(names, name)
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return names, nil
}

// Where returns one equality condition per query parameter other than
// include. Keys must be columns of the entity. Values are read as JSON when
// they parse (numbers, booleans, null, arrays) and as plain strings
// otherwise; a repeated key or a JSON array matches any of its values.
//
// A string that would parse as JSON must be sent JSON-quoted to match
// verbatim:
//
//	?title=true      // title = true
//	?title="true"    // title = 'true'
//	?price="1.50"    // price = '1.50', not 1.5
func Where(c *gin.Context, columns Columns) (scope.Scopes, error) {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		if k != IncludeKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var (
		ss scope.Scopes
		ve httperr.ValidationError
	)
	for _, col := range keys {
		field := "where." + col
		if !columns.HasColumn(col) {
			ve.Add(field, "unknown column")
			continue
		}

		var values []any
		for _, raw := range query[col] {
			v, err := decodeValue(raw)
			if err != nil {
				ve.Add(field, "%v", err)
				continue
			}
			if list, ok := v.([]any); ok {
				values = append(values, list...)
			} else {
				values = append(values, v)
			}
		}
		if len(values) == 1 {
			ss = ss.Append(scope.Eq(col, values[0]))
		} else {
			ss = ss.Append(scope.In(col, values))
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return ss, nil
}

func decodeValue(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw, nil
	}
	switch x := v.(type) {
	case map[string]any:
		return nil, errors.New("objects are not comparable")
	case []any:
		for i, e := range x {
			switch e := e.(type) {
			case map[string]any, []any:
				return nil, errors.New("nested values are not comparable")
			case json.Number:
				x[i] = number(e)
			}
		}
		return x, nil
	case json.Number:
		return number(x), nil
	default:
		return x, nil
	}
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Payload is a validated JSON object from a request body.
type Payload struct {
	raw  []byte
	keys []string
}

// Keys returns the payload keys, sorted.
func (p Payload) Keys() []string { return p.keys }

// Apply decodes the payload onto v, overwriting only the fields it names.
func (p Payload) Apply(v any) error {
	if err := json.Unmarshal(p.raw, v); err != nil {
		return httperr.Validation("body", "%v", err)
	}
	return nil
}

// ReadPayload reads a JSON object whose keys are all columns accepted by
// writable. Null values are rejected; they would leave the field untouched
// when applied.
func ReadPayload(c *gin.Context, writable Columns) (Payload, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return Payload{}, fmt.Errorf("read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Payload{}, httperr.Validation("body", "a JSON object is required")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Payload{}, httperr.Validation("body", "must be a JSON object: %v", err)
	}
	if len(fields) == 0 {
		return Payload{}, httperr.Validation("body", "no fields to update")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var ve httperr.ValidationError
	for _, k := range keys {
		switch {
		case !writable.HasColumn(k):
			ve.Add("body."+k, "not a writable column")
		case string(bytes.TrimSpace(fields[k])) == "null":
			ve.Add("body."+k, "null is not allowed")
		}
	}
	if err := ve.OrNil(); err != nil {
		return Payload{}, err
	}
	return Payload{raw: raw, keys: keys}, nil
}

// ID parses the named path parameter as a positive integer id.
func ID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, httperr.Validation(param, "must be a positive integer")
	}
	return id, nil
}
