package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Clear removes every key
	Clear()

	// Size returns the current number of items in the cache
	Size() int
}

// Nop is a Cache that never stores anything. It stands in when caching is disabled.
type Nop[T any] struct{}

func (Nop[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}
func (Nop[T]) Set(string, T) {}
func (Nop[T]) Delete(string) {}
func (Nop[T]) Clear() {}
func (Nop[T]) Size() int { return 0 }

var _ Cache[int] = Nop[int]{}
var _ Cache[int] = (*LRUCache[int])(nil)
