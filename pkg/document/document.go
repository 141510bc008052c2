// Package document parses JSON documents into a tree that keeps object
// members in source order.
//
// encoding/json decodes objects into map[string]any, which loses member
// order. Code extraction reports codes in first-seen order, so documents are
// decoded into *Object values instead. Everything else maps to the usual
// JSON types: []any, string, json.Number, bool and nil.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrInvalidJSON is returned when a document is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Object is a JSON object that remembers member order.
type Object struct {
	keys    []string
	members map[string]any
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{members: make(map[string]any)}
}

// Set stores a member. A key that already exists keeps its position.
func (o *Object) Set(key string, value any) *Object {
	if _, ok := o.members[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.members[key] = value
	return o
}

// Get returns the member stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.members[key]
	return v, ok
}

// Keys returns member names in document order. The slice must not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Map returns a shallow copy of the members as a plain map.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, o.Len())
	for _, k := range o.Keys() {
		m[k] = o.members[k]
	}
	return m
}

// Parse decodes a JSON document.
func Parse(data []byte) (any, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: document is not well-formed", ErrInvalidJSON)
	}

	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	return parseValue(value, dataType)
}

func parseValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		return parseObject(value)
	case jsonparser.Array:
		return parseArray(value)
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number:
		return json.Number(string(value)), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unexpected value %q", ErrInvalidJSON, value)
	}
}

func parseObject(data []byte) (*Object, error) {
	obj := NewObject()

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		// ObjectEach hands over keys already unescaped.
		name := string(key)

		member, err := parseValue(value, dataType)
		if err != nil {
			return err
		}

		obj.Set(name, member)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	return obj, nil
}

func parseArray(data []byte) ([]any, error) {
	items := make([]any, 0)

	var itemErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil {
			itemErr = err
			return
		}

		item, err := parseValue(value, dataType)
		if err != nil {
			itemErr = err
			return
		}
		items = append(items, item)
	})
	if err == nil {
		err = itemErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	return items, nil
}
