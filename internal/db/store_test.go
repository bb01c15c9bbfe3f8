package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertStmt(t *testing.T) {
	q := insertStmt("nodes", []string{"node_id", "lat", "lon"}, 2, "lat = VALUES(lat)")
	assert.Equal(t,
		"INSERT INTO nodes (node_id, lat, lon) VALUES (?,?,?),(?,?,?) ON DUPLICATE KEY UPDATE lat = VALUES(lat)",
		q)
}

func TestMetres(t *testing.T) {
	assert.Equal(t, 1, metres(0))
	assert.Equal(t, 1, metres(0.2))
	assert.Equal(t, 12, metres(11.6))
}

func TestName(t *testing.T) {
	assert.Equal(t, "mysql", Store{}.Name())
}
