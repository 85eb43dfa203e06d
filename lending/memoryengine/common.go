package memoryengine

import (
	"errors"
	"fmt"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func checkVersion(stored uint, given uint) error {
	if stored != given {
		return errors.Join(
			lending.ErrConcurrencyConflict,
			fmt.Errorf("stored version %d, given version %d", stored, given))
	}

	return nil
}
