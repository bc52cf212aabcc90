// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package slab_test

// raceEnabled is true when the race detector is active. Concurrency
// tests use it to cut iteration counts, since the race detector's
// instrumentation makes the full counts too slow to be a useful test.
const raceEnabled = true
