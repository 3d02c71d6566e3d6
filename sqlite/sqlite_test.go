package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-arndt/benchtab/bench"
	"github.com/p-arndt/benchtab/internal/testutil"
)

func TestPrepareRunsSetupAndBindsVars(t *testing.T) {
	rt := New("")
	prog, err := rt.Prepare(context.Background(), bench.Source{
		Stmt:  "INSERT INTO t(v) SELECT :n WHERE :n > 0",
		Setup: "CREATE TABLE t(v INTEGER);",
		Vars:  []bench.Var{{Name: "n", Value: 3}, {Name: "unused", Value: "x"}},
	})
	require.NoError(t, err)
	defer prog.Close()

	require.NoError(t, prog.Run(context.Background()))
	require.NoError(t, prog.Run(context.Background()))

	p := prog.(*program)
	var count, sum int
	require.NoError(t, p.db.QueryRow("SELECT count(*), sum(v) FROM t").Scan(&count, &sum))
	assert.Equal(t, 2, count)
	assert.Equal(t, 6, sum)
}

func TestPrepareErrors(t *testing.T) {
	rt := New(MemoryPath)

	_, err := rt.Prepare(context.Background(), bench.Source{Stmt: "SELECT 1", Setup: "NOT SQL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite setup")

	_, err = rt.Prepare(context.Background(), bench.Source{Stmt: "SELECT * FROM missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite prepare")
}

func TestFileDatabaseIsShared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.db")
	rt := New(path)

	prog, err := rt.Prepare(context.Background(), bench.Source{
		Stmt:  "INSERT INTO runs(id) VALUES (NULL)",
		Setup: "CREATE TABLE IF NOT EXISTS runs(id INTEGER PRIMARY KEY)",
	})
	require.NoError(t, err)
	require.NoError(t, prog.Run(context.Background()))
	require.NoError(t, prog.Close())

	db, err := sql.Open("sqlite", dsnWithPragmas(path))
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM runs").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestBindArgs(t *testing.T) {
	src := bench.Source{
		Stmt: "SELECT @a, $b, :a, :c",
		Vars: []bench.Var{
			{Name: "a", Value: int8(1)},
			{Name: "b", Value: []int{1}},
			{Name: "d", Value: 4},
		},
	}
	args := bindArgs(src)
	require.Len(t, args, 2)
	assert.Equal(t, sql.Named("a", int64(1)), args[0])
	assert.Equal(t, sql.Named("b", "[1]"), args[1])
}

func TestBenchmarkWithSQLiteRuntime(t *testing.T) {
	var out bytes.Buffer
	opts := append(testutil.FastOptions(&out),
		bench.WithRuntime(New("")),
		bench.WithSetup("CREATE TABLE t(v); INSERT INTO t VALUES (1), (2), (3);"),
		bench.WithVar("limit", bench.Range(1, 4, 1)),
		bench.WithMaxLoop(10))
	res, err := bench.Run(context.Background(), "SELECT count(*) FROM t WHERE v < :limit", opts...)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, res.Shape)
	assert.Equal(t, "limit=3", res.Info.MustAt(2))
	assert.Contains(t, out.String(), "limit=1")
}
