package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/cli"
	"crucible/examples/shop"
	"crucible/internal/manifest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := cli.NewRootCommand(shop.NewRegistry, cli.WithDemo(shop.Demo))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "crucible dev\n", out)
}

func TestDDL(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "sqlite",
			args: []string{"ddl"},
			want: []string{`CREATE TABLE IF NOT EXISTS "customer"`, `CREATE TABLE IF NOT EXISTS "orders"`, `"download_url" TEXT`},
		},
		{
			name: "postgres",
			args: []string{"ddl", "--dialect", "postgres"},
			want: []string{`"id" UUID NOT NULL`, `"items" JSONB`, `"email" VARCHAR(320) NOT NULL`},
		},
		{
			name:    "unknown dialect",
			args:    []string{"ddl", "--dialect", "postgre"},
			wantErr: "postgres",
		},
		{
			name:    "unknown coercion",
			args:    []string{"ddl", "--coercions", "safe_numbers"},
			wantErr: "safe_numbers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestDDL_Apply(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shop.db")

	for range 2 {
		out, err := run(t, "ddl", "--apply", "--dsn", dsn)
		require.NoError(t, err)
		assert.Equal(t, "applied 3 table(s) to sqlite\n", out)
	}
}

func TestStubs(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "stubs", "--output-dir", dir, "--package", "shoprecords")
	require.NoError(t, err)
	assert.Equal(t, "wrote 4 file(s) to "+dir+"\n", out)

	data, err := os.ReadFile(filepath.Join(dir, "customer_record.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package shoprecords")
	assert.Contains(t, string(data), "type CustomerRecord struct")
}

func TestManifestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crucible.lock.yaml")

	out, err := run(t, "manifest", "--manifest", path)
	require.NoError(t, err)
	assert.Equal(t, "locked 4 class(es) in "+path+"\n", out)

	out, err = run(t, "check", "--manifest", path)
	require.NoError(t, err)
	assert.Equal(t, "schema matches the manifest\n", out)

	m, err := manifest.LoadFile(path)
	require.NoError(t, err)

	cls, ok := m.Class("Customer")
	require.True(t, ok)
	cls.Table = "client"
	require.NoError(t, manifest.WriteFile(m, path))

	out, err = run(t, "check", "--manifest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 difference(s)")
	assert.Contains(t, out, `table changed from "client" to "customer"`)
}

func TestDemo(t *testing.T) {
	out, err := run(t, "demo", "--dsn", filepath.Join(t.TempDir(), "demo.db"))
	require.NoError(t, err)

	assert.Contains(t, out, "loaded customer Ada Lovelace <ada@example.com>")
	assert.Contains(t, out, ": PAID, 2 item(s), 2700 cents")
}
