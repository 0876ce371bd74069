// Package database is the probe for database servers and databases in the
// environment: inventory listings and health checks.
package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

// Function names exposed in the catalog.
const (
	FuncListServers   = "database_list_servers"
	FuncListDatabases = "database_list_databases"
	FuncHealthCheck   = "database_health_check"
)

const typeDescription = `Database type to filter on: "mysql", "postgresql", "mongodb" or "all".`

// Probe implements tools.Probe over an Inventory and a HealthChecker.
type Probe struct {
	inventory Inventory
	checker   HealthChecker
	closers   []func() error
}

// New creates the probe. A nil checker reports every database as Unknown.
func New(inventory Inventory, checker HealthChecker) *Probe {
	return &Probe{inventory: inventory, checker: checker}
}

// FromConfig builds the probe described by cfg: the built-in inventory, or
// a SQLite inventory when inventory_path is set, plus a MySQL checker for
// the configured connections.
func FromConfig(ctx context.Context, cfg config.DatabaseProbeConfig) (*Probe, error) {
	checker := NewMySQLChecker(cfg.Connections)

	if cfg.InventoryPath == "" {
		return New(DefaultInventory(), checker), nil
	}

	inv, err := OpenSQLiteInventory(ctx, cfg.InventoryPath)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "probes.database.inventory_path", Message: "cannot open inventory", Err: err}
	}
	if cfg.SeedInventory {
		if err := inv.Seed(ctx, DefaultServers(), DefaultDatabases()); err != nil {
			inv.Close()
			return nil, &config.ConfigurationError{Field: "probes.database.seed_inventory", Message: "cannot seed inventory", Err: err}
		}
	}

	p := New(inv, checker)
	p.closers = append(p.closers, inv.Close)
	return p, nil
}

// Name implements tools.Probe.
func (p *Probe) Name() string { return "database" }

// FunctionList implements tools.Probe.
func (p *Probe) FunctionList() []tools.FunctionSpec {
	return []tools.FunctionSpec{
		{
			Name: FuncListServers,
			Description: "Use this function when you need a list of database server names. " +
				"If a database type is provided only servers running that type are returned. " +
				`The result is CSV data with the columns "Server Name", "Database Type", "Hostname".`,
			Parameters: tools.JSONSchema{
				"type": "object",
				"properties": map[string]any{
					"db_type": map[string]any{
						"type":        "string",
						"description": typeDescription,
						"default":     TypeAll,
					},
				},
				"required": []string{},
			},
		},
		{
			Name: FuncListDatabases,
			Description: "Use this function when you need a list of databases. " +
				"If db_server is provided only databases on that server are returned; " +
				"if db_type is provided only databases of that type are returned. " +
				`The result is CSV data with the columns "Database Name", "Database Type", "Database Server".`,
			Parameters: tools.JSONSchema{
				"type": "object",
				"properties": map[string]any{
					"db_server": map[string]any{
						"type":        "string",
						"description": `Database server name, or "all".`,
						"default":     TypeAll,
					},
					"db_type": map[string]any{
						"type":        "string",
						"description": typeDescription,
						"default":     TypeAll,
					},
				},
				"required": []string{},
			},
		},
		{
			Name: FuncHealthCheck,
			Description: "Use this function when you need the operational health of a database. " +
				"The name of a known database must be provided.",
			Parameters: tools.JSONSchema{
				"type": "object",
				"properties": map[string]any{
					"db_name": map[string]any{
						"type":        "string",
						"description": "Name of the database to assess.",
					},
				},
				"required": []string{"db_name"},
			},
		},
	}
}

// FunctionCall implements tools.Probe.
func (p *Probe) FunctionCall(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case FuncListServers:
		dbType, err := stringArg(args, "db_type")
		if err != nil {
			return "", err
		}
		return p.ListServers(ctx, dbType)

	case FuncListDatabases:
		server, err := stringArg(args, "db_server")
		if err != nil {
			return "", err
		}
		dbType, err := stringArg(args, "db_type")
		if err != nil {
			return "", err
		}
		return p.ListDatabases(ctx, server, dbType)

	case FuncHealthCheck:
		dbName, err := stringArg(args, "db_name")
		if err != nil {
			return "", err
		}
		return p.HealthCheck(ctx, dbName)

	default:
		return tools.UnknownFunctionResult(name), nil
	}
}

// ListServers returns the servers of dbType as CSV.
func (p *Probe) ListServers(ctx context.Context, dbType string) (string, error) {
	filter, ok := normalizeType(dbType)
	if !ok {
		return invalidType(dbType), nil
	}

	servers, err := p.inventory.Servers(ctx)
	if err != nil {
		return "", fmt.Errorf("inventory: %w", err)
	}

	rows := [][]string{{"Server Name", "Database Type", "Hostname"}}
	for _, srv := range servers {
		if matches(filter, srv.Type) {
			rows = append(rows, []string{srv.Name, srv.Type, srv.Hostname})
		}
	}

	utils.Debug("Listed database servers", "db_type", filter, "count", len(rows)-1)
	return writeCSV(rows)
}

// ListDatabases returns the databases on server of dbType as CSV.
func (p *Probe) ListDatabases(ctx context.Context, server, dbType string) (string, error) {
	filter, ok := normalizeType(dbType)
	if !ok {
		return invalidType(dbType), nil
	}
	server = strings.TrimSpace(server)

	databases, err := p.inventory.Databases(ctx)
	if err != nil {
		return "", fmt.Errorf("inventory: %w", err)
	}

	rows := [][]string{{"Database Name", "Database Type", "Database Server"}}
	for _, d := range databases {
		if matches(filter, d.Type) && matches(server, d.Server) {
			rows = append(rows, []string{d.Name, d.Type, d.Server})
		}
	}

	utils.Debug("Listed databases", "db_server", server, "db_type", filter, "count", len(rows)-1)
	return writeCSV(rows)
}

// HealthCheck assesses one database by name.
func (p *Probe) HealthCheck(ctx context.Context, dbName string) (string, error) {
	dbName = strings.TrimSpace(dbName)

	databases, err := p.inventory.Databases(ctx)
	if err != nil {
		return "", fmt.Errorf("inventory: %w", err)
	}

	for _, d := range databases {
		if !strings.EqualFold(d.Name, dbName) {
			continue
		}

		report := HealthReport{Status: StatusUnknown, Detail: "no health checker configured"}
		if p.checker != nil {
			report = p.checker.Check(ctx, d)
		}
		return formatReport(d, report), nil
	}

	return fmt.Sprintf("Database %s was not found in the inventory.", dbName), nil
}

// Close releases inventory resources opened by FromConfig.
func (p *Probe) Close() error {
	var firstErr error
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}

func formatReport(d Database, report HealthReport) string {
	line := fmt.Sprintf("Database %s (%s on %s): %s", d.Name, d.Type, d.Server, report.Status)
	if report.Detail != "" {
		line += " - " + report.Detail
	}
	return line
}

func invalidType(dbType string) string {
	return fmt.Sprintf("The provided database type %s is not valid.", dbType)
}

func writeCSV(rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return sb.String(), nil
}

// stringArg reads an optional string argument. Absent and nil values are "".
func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, raw)
	}
	return s, nil
}

var _ tools.Probe = (*Probe)(nil)
