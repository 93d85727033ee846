package etl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banketl/internal/dbclient"
	"banketl/internal/domain"
	"banketl/internal/etl"
)

type pageStore struct {
	memStore
	page *dbclient.QueryPage
}

func (p *pageStore) Query(context.Context, string) (*dbclient.QueryPage, error) {
	return p.page, nil
}

func TestDefaultQuery(t *testing.T) {
	assert.Equal(t, `SELECT * FROM "Largest_banks"`, etl.DefaultQuery(domain.DatabaseDriverSQLite, "Largest_banks"))
	assert.Equal(t, `SELECT * FROM "Largest_banks"`, etl.DefaultQuery(domain.DatabaseDriverPostgres, "Largest_banks"))
	assert.Equal(t, "SELECT * FROM `Largest_banks`", etl.DefaultQuery(domain.DatabaseDriverMySQL, "Largest_banks"))
	assert.Equal(t, `{"collection": "Largest_banks"}`, etl.DefaultQuery(domain.DatabaseDriverMongoDB, "Largest_banks"))
}

func TestRunQuery_InfersColumnTypes(t *testing.T) {
	store := &pageStore{page: &dbclient.QueryPage{
		Columns: []string{"Name", "MC_USD_Billion", "rank", "note"},
		Rows: [][]any{
			{"Bank A", 100.5, int64(1), nil},
			{"Bank B", nil, int64(2), "x"},
		},
	}}

	tbl, err := etl.RunQuery(context.Background(), store, "SELECT * FROM t")
	require.NoError(t, err)

	assert.Equal(t, []etl.Field{
		{Name: "Name", Type: etl.FieldText},
		{Name: "MC_USD_Billion", Type: etl.FieldNumber},
		{Name: "rank", Type: etl.FieldNumber},
		{Name: "note", Type: etl.FieldText},
	}, tbl.Schema.Fields)
	assert.Equal(t, [][]any{
		{"Bank A", 100.5, 1.0, nil},
		{"Bank B", nil, 2.0, "x"},
	}, tbl.Rows())
}

func TestRunQuery_EmptyResultKeepsColumns(t *testing.T) {
	store := &pageStore{page: &dbclient.QueryPage{Columns: []string{"Name"}}}

	tbl, err := etl.RunQuery(context.Background(), store, "SELECT Name FROM t WHERE 1=0")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name"}, tbl.Columns())
	assert.Zero(t, tbl.Len())
}

func TestRunQuery_WrapsFailure(t *testing.T) {
	store := newMemStore()
	_, err := etl.RunQuery(context.Background(), store, "SELECT * FROM missing")
	assert.ErrorIs(t, err, etl.ErrQuery)
}
