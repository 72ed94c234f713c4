package pg

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: uniqueViolation}, expected: true},
		{name: "wrapped unique violation", err: errors.Wrap(&pgconn.PgError{Code: uniqueViolation}, "insert order"), expected: true},
		{name: "other pg error", err: &pgconn.PgError{Code: "23503"}},
		{name: "plain error", err: errors.New("database error")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUniqueViolation(tt.err))
		})
	}
}
