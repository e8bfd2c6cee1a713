package cache

// Cache is keyed by server-issued entity ids.
type Cache interface {
	Get(key int64) (interface{}, bool)
	Add(key int64, value interface{})
	Keys() []int64
	Delete(key int64)
}
