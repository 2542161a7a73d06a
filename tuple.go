// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch

// Tuple is an ordered group of method inputs or results. Elements are
// *Tensor or nested Tuple values.
type Tuple []any

// Get returns element index, or nil when index is out of range.
func (t Tuple) Get(index int) any {
	if index >= 0 && index < len(t) {
		return t[index]
	}
	return nil
}
