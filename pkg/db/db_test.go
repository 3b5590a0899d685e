package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/pkg/db"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "", "postgres", "postgresql"} {
		d, err := db.Dialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	my, _ := db.Dialector("mysql", "dsn")
	assert.Equal(t, "mysql", my.Name())
	pg, _ := db.Dialector("postgres", "dsn")
	assert.Equal(t, "postgres", pg.Name())

	_, err := db.Dialector("oracle", "dsn")
	assert.Error(t, err)
}
