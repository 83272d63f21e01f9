package cache

// Cache holds encoded records by id. Implementations must be safe for
// concurrent use and must not retain the slices passed to Add.
type Cache interface {
	Get(id string) ([]byte, bool)
	Add(id string, raw []byte)
	Delete(id string)
	Purge()
}
