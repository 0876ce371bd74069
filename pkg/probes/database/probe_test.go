package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
)

// fakeChecker records the databases it was asked about.
type fakeChecker struct {
	report  HealthReport
	checked []string
}

func (f *fakeChecker) Check(_ context.Context, db Database) HealthReport {
	f.checked = append(f.checked, db.Name)
	return f.report
}

func csvRows(t *testing.T, out string) []string {
	t.Helper()
	require.True(t, strings.HasSuffix(out, "\n"), "csv output must end with a newline")
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestProbe_FunctionListRegisters(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(New(DefaultInventory(), nil)))

	var names []string
	for _, spec := range reg.ListFunctions() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{FuncListServers, FuncListDatabases, FuncHealthCheck}, names)
}

func TestProbe_ListServers(t *testing.T) {
	p := New(DefaultInventory(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		dbType string
		want   []string
	}{
		{
			name:   "all",
			dbType: "all",
			want: []string{
				"Server Name,Database Type,Hostname",
				"sr-dbs01,MySQL,sr-dbs01.core.lennoxconsulting.com.au",
				"sr-dbs02,MongoDB,sr-dbs02.core.lennoxconsulting.com.au",
				"sr-dbs03,PostgreSQL,sr-dbs03.core.lennoxconsulting.com.au",
				"sr-dbs04,MySQL,sr-dbs04.lab.lennoxconsulting.com.au",
				"sr-dbs04,PostgreSQL,sr-dbs04.lab.lennoxconsulting.com.au",
			},
		},
		{
			name:   "mysql only",
			dbType: "mysql",
			want: []string{
				"Server Name,Database Type,Hostname",
				"sr-dbs01,MySQL,sr-dbs01.core.lennoxconsulting.com.au",
				"sr-dbs04,MySQL,sr-dbs04.lab.lennoxconsulting.com.au",
			},
		},
		{
			name:   "case insensitive",
			dbType: "MongoDB",
			want: []string{
				"Server Name,Database Type,Hostname",
				"sr-dbs02,MongoDB,sr-dbs02.core.lennoxconsulting.com.au",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.ListServers(ctx, tt.dbType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, csvRows(t, out))
		})
	}
}

func TestProbe_InvalidType(t *testing.T) {
	p := New(DefaultInventory(), nil)
	ctx := context.Background()

	out, err := p.ListServers(ctx, "oracle")
	require.NoError(t, err)
	assert.Equal(t, "The provided database type oracle is not valid.", out)

	out, err = p.ListDatabases(ctx, "all", "db2")
	require.NoError(t, err)
	assert.Equal(t, "The provided database type db2 is not valid.", out)
}

func TestProbe_ListDatabases(t *testing.T) {
	p := New(DefaultInventory(), nil)
	ctx := context.Background()

	out, err := p.ListDatabases(ctx, "SR-DBS04", "all")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Database Name,Database Type,Database Server",
		"netbox-test,PostgreSQL,sr-dbs04",
		"netbox-dev,PostgreSQL,sr-dbs04",
	}, csvRows(t, out))

	out, err = p.ListDatabases(ctx, "all", "mysql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Database Name,Database Type,Database Server",
		"taiga,MySQL,sr-dbs01",
		"homeassistant,MySQL,sr-dbs01",
		"wordpress,MySQL,sr-dbs01",
	}, csvRows(t, out))

	out, err = p.ListDatabases(ctx, "sr-dbs01", "postgresql")
	require.NoError(t, err)
	assert.Equal(t, []string{"Database Name,Database Type,Database Server"}, csvRows(t, out))
}

func TestProbe_FunctionCallThroughRegistryDefaults(t *testing.T) {
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(New(DefaultInventory(), nil)))

	// db_type omitted: the registry fills the "all" default.
	out := reg.Call(context.Background(), FuncListServers, map[string]any{})
	assert.Len(t, csvRows(t, out), 6)

	out = reg.Call(context.Background(), FuncListServers, map[string]any{"db_type": 42.0})
	assert.Contains(t, out, `argument "db_type" must be a string`)

	out = reg.Call(context.Background(), FuncHealthCheck, map[string]any{})
	assert.Equal(t, `missing required argument "db_name" for function database_health_check`, out)
}

func TestProbe_HealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("known database uses checker", func(t *testing.T) {
		checker := &fakeChecker{report: HealthReport{Status: StatusHealthy}}
		p := New(DefaultInventory(), checker)

		out, err := p.HealthCheck(ctx, "Taiga")
		require.NoError(t, err)
		assert.Equal(t, "Database taiga (MySQL on sr-dbs01): Healthy", out)
		assert.Equal(t, []string{"taiga"}, checker.checked)
	})

	t.Run("failure detail", func(t *testing.T) {
		checker := &fakeChecker{report: HealthReport{Status: StatusFailed, Detail: "ping: connection refused"}}
		p := New(DefaultInventory(), checker)

		out, err := p.HealthCheck(ctx, "wordpress")
		require.NoError(t, err)
		assert.Equal(t, "Database wordpress (MySQL on sr-dbs01): Failed - ping: connection refused", out)
	})

	t.Run("no checker", func(t *testing.T) {
		p := New(DefaultInventory(), nil)

		out, err := p.HealthCheck(ctx, "netbox")
		require.NoError(t, err)
		assert.Equal(t, "Database netbox (PostgreSQL on sr-dbs03): Unknown - no health checker configured", out)
	})

	t.Run("unknown database", func(t *testing.T) {
		checker := &fakeChecker{}
		p := New(DefaultInventory(), checker)

		out, err := p.HealthCheck(ctx, "payroll")
		require.NoError(t, err)
		assert.Equal(t, "Database payroll was not found in the inventory.", out)
		assert.Empty(t, checker.checked)
	})
}

func TestMySQLChecker_Unknown(t *testing.T) {
	checker := NewMySQLChecker(map[string]string{"SR-DBS01": "not a dsn"})
	ctx := context.Background()

	report := checker.Check(ctx, Database{Name: "netbox", Type: "PostgreSQL", Server: "sr-dbs03"})
	assert.Equal(t, StatusUnknown, report.Status)
	assert.Contains(t, report.Detail, "PostgreSQL")

	report = checker.Check(ctx, Database{Name: "taiga", Type: "MySQL", Server: "sr-dbs09"})
	assert.Equal(t, StatusUnknown, report.Status)
	assert.Contains(t, report.Detail, "sr-dbs09")

	report = checker.Check(ctx, Database{Name: "taiga", Type: "MySQL", Server: "sr-dbs01"})
	assert.Equal(t, StatusUnknown, report.Status)
	assert.Contains(t, report.Detail, "invalid connection")
}

func TestMySQLChecker_UnreachableServer(t *testing.T) {
	checker := NewMySQLChecker(map[string]string{"sr-dbs01": "probe:secret@tcp(127.0.0.1:1)/"})

	report := checker.Check(context.Background(), Database{Name: "taiga", Type: "MySQL", Server: "sr-dbs01"})
	assert.Equal(t, StatusFailed, report.Status)
	assert.NotEmpty(t, report.Detail)
}

func TestMySQLChecker_DatabaseDSN(t *testing.T) {
	checker := NewMySQLChecker(nil)

	dsn, err := checker.databaseDSN("probe:secret@tcp(db.example:3306)/", "taiga")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "probe:secret@tcp(db.example:3306)/taiga?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestSQLiteInventory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inventory.db")

	inv, err := OpenSQLiteInventory(ctx, path)
	require.NoError(t, err)
	defer inv.Close()

	servers, err := inv.Servers(ctx)
	require.NoError(t, err)
	assert.Empty(t, servers)

	require.NoError(t, inv.Seed(ctx, DefaultServers(), DefaultDatabases()))
	// Seeding twice keeps the existing rows.
	require.NoError(t, inv.Seed(ctx, DefaultServers(), DefaultDatabases()))

	servers, err = inv.Servers(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultServers(), servers)

	databases, err := inv.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabases(), databases)
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("built-in inventory", func(t *testing.T) {
		p, err := FromConfig(ctx, config.DatabaseProbeConfig{})
		require.NoError(t, err)
		defer p.Close()

		out, err := p.ListServers(ctx, "postgresql")
		require.NoError(t, err)
		assert.Len(t, csvRows(t, out), 3)
	})

	t.Run("seeded sqlite inventory", func(t *testing.T) {
		p, err := FromConfig(ctx, config.DatabaseProbeConfig{
			InventoryPath: filepath.Join(t.TempDir(), "inventory.db"),
			SeedInventory: true,
		})
		require.NoError(t, err)
		defer p.Close()

		out, err := p.ListDatabases(ctx, "sr-dbs01", "all")
		require.NoError(t, err)
		assert.Len(t, csvRows(t, out), 4)
	})

	t.Run("unopenable inventory", func(t *testing.T) {
		_, err := FromConfig(ctx, config.DatabaseProbeConfig{
			InventoryPath: filepath.Join(t.TempDir(), "missing", "inventory.db"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrConfiguration)
	})
}
