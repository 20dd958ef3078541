package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when the requested row does not
// exist. Implementations translate their driver's sentinel into this one so
// services never depend on gorm directly.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err represents a missing row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
