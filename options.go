// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

// Option configures a SizeClass at construction time, following the
// same functional-options shape as the package's buffer-pool lineage
// (SetNonblock, SetPageSize).
type Option func(*scConfig)

type scConfig struct {
	sbSize          int
	provider        Provider
	recycleCapacity int
}

func defaultSCConfig() scConfig {
	return scConfig{
		sbSize:          DefaultSuperBlockSize,
		recycleCapacity: 16,
	}
}

// WithSuperBlockSize overrides the default super-block size. sz must be
// a power of two no smaller than SuperBlockHeaderSize plus one slot.
func WithSuperBlockSize(sz int) Option {
	return func(c *scConfig) { c.sbSize = sz }
}

// WithMemoryProvider overrides the default Go-heap-backed Provider, e.g.
// with an MmapProvider.
func WithMemoryProvider(p Provider) Option {
	return func(c *scConfig) { c.provider = p }
}

// WithRecycleCapacity bounds how many retired super-blocks the default
// Provider's recycle cache holds before falling back to the OS/GC path.
// Has no effect when combined with WithMemoryProvider, since the caller
// owns that Provider's configuration directly.
func WithRecycleCapacity(n int) Option {
	return func(c *scConfig) { c.recycleCapacity = n }
}
