package controllers

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isUniqueViolation detects duplicate-key errors from PostgreSQL and SQLite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
