// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import "starnetd/internal/errs"

// JSONTag is the leading byte of a TaggedJSON node (spec.md §3).
type JSONTag byte

const (
	JSONNull JSONTag = iota + 1
	JSONDouble
	JSONBool
	JSONInt
	JSONString
	JSONArray
	JSONObject
)

// TaggedJSON is the protocol's self-describing recursive value tree.
type TaggedJSON struct {
	Tag    JSONTag
	Double float64
	Bool   bool
	Int    int64
	Str    string
	Array  []*TaggedJSON
	Object *OrderedMap
}

func JSONNullValue() *TaggedJSON              { return &TaggedJSON{Tag: JSONNull} }
func JSONDoubleValue(v float64) *TaggedJSON   { return &TaggedJSON{Tag: JSONDouble, Double: v} }
func JSONBoolValue(v bool) *TaggedJSON        { return &TaggedJSON{Tag: JSONBool, Bool: v} }
func JSONIntValue(v int64) *TaggedJSON        { return &TaggedJSON{Tag: JSONInt, Int: v} }
func JSONStringValue(v string) *TaggedJSON    { return &TaggedJSON{Tag: JSONString, Str: v} }
func JSONArrayValue(v []*TaggedJSON) *TaggedJSON {
	return &TaggedJSON{Tag: JSONArray, Array: v}
}
func JSONObjectValue(v *OrderedMap) *TaggedJSON { return &TaggedJSON{Tag: JSONObject, Object: v} }

func (v *TaggedJSON) Copy() *TaggedJSON {
	if v == nil {
		return nil
	}
	cp := *v
	if v.Array != nil {
		cp.Array = make([]*TaggedJSON, len(v.Array))
		for i, e := range v.Array {
			cp.Array[i] = e.Copy()
		}
	}
	if v.Object != nil {
		cp.Object = v.Object.Copy()
	}
	return &cp
}

func (v *TaggedJSON) Equal(other *TaggedJSON) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Tag != other.Tag {
		return false
	}
	switch v.Tag {
	case JSONNull:
		return true
	case JSONDouble:
		return v.Double == other.Double
	case JSONBool:
		return v.Bool == other.Bool
	case JSONInt:
		return v.Int == other.Int
	case JSONString:
		return v.Str == other.Str
	case JSONArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	case JSONObject:
		return v.Object.Equal(other.Object)
	}
	return false
}

// DecodeTaggedJSON decodes one TaggedJSON node. An unrecognized tag byte is
// a protocol decode error (spec.md §4.2, "unknown tags fail").
func DecodeTaggedJSON(r *Reader) (*TaggedJSON, error) {
	tb, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch JSONTag(tb) {
	case JSONNull:
		return JSONNullValue(), nil
	case JSONDouble:
		d, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		return JSONDoubleValue(d), nil
	case JSONBool:
		b, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		return JSONBoolValue(b), nil
	case JSONInt:
		n, err := r.ReadSVLQ()
		if err != nil {
			return nil, err
		}
		return JSONIntValue(n), nil
	case JSONString:
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return JSONStringValue(s), nil
	case JSONArray:
		n, err := r.ReadVLQ()
		if err != nil {
			return nil, err
		}
		arr := make([]*TaggedJSON, 0, n)
		for i := uint64(0); i < n; i++ {
			elem, err := DecodeTaggedJSON(r)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return JSONArrayValue(arr), nil
	case JSONObject:
		n, err := r.ReadVLQ()
		if err != nil {
			return nil, err
		}
		obj := NewOrderedMap()
		for i := uint64(0); i < n; i++ {
			key, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			val, err := DecodeTaggedJSON(r)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		return JSONObjectValue(obj), nil
	default:
		return nil, errs.ErrUnknownTag
	}
}

// EncodeTaggedJSON is the inverse of DecodeTaggedJSON.
func EncodeTaggedJSON(w *Writer, v *TaggedJSON) {
	if v == nil {
		w.WriteByte(byte(JSONNull))
		return
	}
	w.WriteByte(byte(v.Tag))
	switch v.Tag {
	case JSONNull:
	case JSONDouble:
		w.WriteF64(v.Double)
	case JSONBool:
		w.WriteBool(v.Bool)
	case JSONInt:
		w.WriteSVLQ(v.Int)
	case JSONString:
		w.WriteString(v.Str)
	case JSONArray:
		w.WriteVLQ(uint64(len(v.Array)))
		for _, e := range v.Array {
			EncodeTaggedJSON(w, e)
		}
	case JSONObject:
		w.WriteVLQ(uint64(v.Object.Len()))
		for _, k := range v.Object.Keys() {
			w.WriteString(k)
			val, _ := v.Object.Get(k)
			EncodeTaggedJSON(w, val)
		}
	}
}
