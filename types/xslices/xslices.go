/*
 *	Copyright 2024 TensorIR Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package xslices provides generic slice helpers used throughout the project,
// complementing the standard library slices package.
package xslices

import (
	"golang.org/x/exp/constraints"
)

// Iota returns a slice of the given size with incremental values, starting
// with start: {start, start+1, ..., start+size-1}.
func Iota[T constraints.Integer | constraints.Float](start T, size int) []T {
	result := make([]T, size)
	value := start
	for ii := range result {
		result[ii] = value
		value += 1
	}
	return result
}

// SliceWithValue returns a slice of the given size filled with the given value.
func SliceWithValue[T any](size int, value T) []T {
	result := make([]T, size)
	for ii := range result {
		result[ii] = value
	}
	return result
}

// Map applies fn to each element of in, returning the new slice.
func Map[In, Out any](in []In, fn func(In) Out) []Out {
	out := make([]Out, len(in))
	for ii, value := range in {
		out[ii] = fn(value)
	}
	return out
}

// At returns the element at the given index, where negative indices count from
// the end of the slice: At(s, -1) is the last element.
func At[T any](slice []T, index int) T {
	if index < 0 {
		index += len(slice)
	}
	return slice[index]
}

// Last returns the last element of the slice.
func Last[T any](slice []T) T {
	return slice[len(slice)-1]
}

// Pop removes and returns the last element of the slice.
func Pop[T any](slice []T) (T, []T) {
	value := slice[len(slice)-1]
	return value, slice[:len(slice)-1]
}
