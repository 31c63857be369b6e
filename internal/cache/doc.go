// Package cache provides a small generic LRU cache.
//
// The harness uses it to keep decoded corpus assets in memory while the
// planned runs that reference them execute. A single asset typically appears
// in K+1 sweep runs and in several composite runs, so decoding once per batch
// removes most codec work.
//
//	c := cache.New[string, *geofuzz.Asset](64)
//	c.Set(path, asset)
//	asset, ok := c.Get(path)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
