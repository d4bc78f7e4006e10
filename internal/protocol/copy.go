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

import "reflect"

// DeepCopyValue returns an independently mutable copy of a decoded message
// value. The parse cache hands the same decoded value to every session that
// reads the same raw frame bytes; without a copy, one hook editing a nested
// pointer, slice, or map field (PlayerWarpMsg.Action, WorldStartMsg's
// DungeonIDGravity, a GiveItemMsg's TaggedJSON Params, ...) would corrupt
// every other session's view of it. *TaggedJSON and *OrderedMap carry their
// own Copy methods since their recursive shape needs bespoke handling;
// everything else is copied by walking the value with reflection.
func DeepCopyValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		switch p := v.Interface().(type) {
		case *TaggedJSON:
			return reflect.ValueOf(p.Copy())
		case *OrderedMap:
			return reflect.ValueOf(p.Copy())
		}
		cp := reflect.New(v.Elem().Type())
		cp.Elem().Set(deepCopy(v.Elem()))
		return cp
	case reflect.Struct:
		cp := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !cp.Field(i).CanSet() {
				continue
			}
			cp.Field(i).Set(deepCopy(v.Field(i)))
		}
		return cp
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Array:
		cp := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(deepCopy(iter.Key()), deepCopy(iter.Value()))
		}
		return cp
	default:
		return v
	}
}
