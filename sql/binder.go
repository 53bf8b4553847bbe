/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sql

import "reflect"

// bindWithResultMap maps rows to v using resultMap. If resultMap is nil, a
// default mapper is picked based on the kind of v: MultiRowsResultMap for a
// slice, SingleRowResultMap otherwise.
func bindWithResultMap(rows Rows, v any, resultMap ResultMap) error {
	if v == nil {
		return ErrNilDestination
	}
	if rows == nil {
		return ErrNilRows
	}
	if rowScanner, ok := v.(RowScanner); ok {
		return rowScanner.ScanRows(rows)
	}
	rv := reflect.ValueOf(v)

	if rv.Kind() != reflect.Ptr {
		return ErrPointerRequired
	}

	if resultMap == nil {
		if kd := reflect.Indirect(rv).Kind(); kd == reflect.Slice {
			resultMap = MultiRowsResultMap{}
		} else {
			resultMap = SingleRowResultMap{}
		}
	}
	return resultMap.MapTo(rv, rows)
}

// BindWithResultMap binds rows to a value of type T using the given ResultMap.
// T can be a struct, a pointer to a struct, a slice of either, or any type
// implementing RowScanner. rows is not closed by this function.
func BindWithResultMap[T any](rows Rows, resultMap ResultMap) (result T, err error) {
	var ptr any = &result

	if _type := reflect.TypeOf(result); _type != nil && _type.Kind() == reflect.Ptr {
		result = reflect.New(_type.Elem()).Interface().(T)
		ptr = result
	}
	err = bindWithResultMap(rows, ptr, resultMap)
	return
}

// Bind binds rows to a value of type T using the default mapping strategy.
func Bind[T any](rows Rows) (result T, err error) {
	return BindWithResultMap[T](rows, nil)
}

// List converts rows into a slice of T. If there are no rows, it returns an
// empty slice (unless JUICE_RESULT_MAP_PRESERVE_NIL_SLICE is set).
func List[T any](rows Rows) (result []T, err error) {
	var multiRowsResultMap MultiRowsResultMap

	element := reflect.TypeOf((*T)(nil)).Elem()

	if element.Kind() != reflect.Ptr {
		multiRowsResultMap.New = func() reflect.Value { return reflect.ValueOf(new(T)) }
	}

	err = bindWithResultMap(rows, &result, multiRowsResultMap)
	return
}

// List2 converts rows into a slice of pointers to T.
func List2[T any](rows Rows) ([]*T, error) {
	items, err := List[T](rows)
	if err != nil {
		return nil, err
	}
	result := make([]*T, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}
