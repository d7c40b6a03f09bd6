package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// GetIntOrZero returns an integer value from contract storage or zero if
// the key has never been written.
func GetIntOrZero(ctx storage.Context, key interface{}) int {
	data := storage.Get(ctx, key)
	if data != nil {
		return data.(int)
	}

	return 0
}
