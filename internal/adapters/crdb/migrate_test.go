package crdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "cockroachdb://root@localhost:26257/marketplace?sslmode=disable",
		migrationURL("postgresql://root@localhost:26257/marketplace?sslmode=disable"))
	assert.Equal(t, "cockroachdb://root@db:26257/m", migrationURL("postgres://root@db:26257/m"))
	assert.Equal(t, "cockroachdb://already", migrationURL("cockroachdb://already"))
}
