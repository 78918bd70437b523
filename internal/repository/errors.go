package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicate indicates a unique constraint rejected the write.
var ErrDuplicate = errors.New("record already exists")

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
