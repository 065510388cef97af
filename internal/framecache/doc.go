// Package framecache keeps encoded frames in memory for the preview server.
//
// Cache is an LRU bounded by the total byte size of its entries rather
// than their count, since a frame of long text can be many times larger
// than one of a short word.
//
//	c := framecache.New(64 << 20)
//	png, hit, err := c.GetOrRender(key, func() ([]byte, error) {
//	    return renderPNG(req)
//	})
//
// Concurrent misses for the same key share one render.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package framecache
