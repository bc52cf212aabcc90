// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hazard implements Michael's hazard-pointer scheme (M. Michael,
// "Safe Memory Reclamation for Dynamic Lock-Free Objects Using Atomic
// Reads and Writes", PODC 2002 / IEEE TPDS 2004) for safe reclamation of
// descriptor memory shared across goroutines without a garbage-collected
// runtime's help.
//
// A Domain owns a bounded set of Records, one per concurrent accessor.
// Before dereferencing a pointer that another goroutine might concurrently
// retire, a caller publishes it in its Record via Protect; Retire defers
// reclamation of a pointer until no Record anywhere in the domain still
// protects it.
package hazard
