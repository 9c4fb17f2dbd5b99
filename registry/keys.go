package registry

import "fmt"

// Key prefixes for registry records
const (
	batchPrefix     = "batinf"
	defaultBatchRef = "batdef"
)

// makeBatchKey generates a key for a batch record by id.
func makeBatchKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", batchPrefix, id))
}

// defaultBatchKey is the key holding the default batch id.
func defaultBatchKey() []byte {
	return []byte(defaultBatchRef)
}
