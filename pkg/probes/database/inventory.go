package database

import (
	"context"
	"strings"
)

// Known database types. Values are lowercase; display names come from the inventory.
const (
	TypeMySQL      = "mysql"
	TypePostgreSQL = "postgresql"
	TypeMongoDB    = "mongodb"

	// TypeAll disables type filtering.
	TypeAll = "all"
)

var knownTypes = []string{TypeMySQL, TypePostgreSQL, TypeMongoDB}

// Server is one database server instance. A host running two engines
// appears once per engine.
type Server struct {
	Name     string
	Type     string // display name, e.g. "MySQL"
	Hostname string
}

// Database is one logical database hosted on a server.
type Database struct {
	Name   string
	Type   string
	Server string
}

// Inventory is the source of server and database records.
type Inventory interface {
	Servers(ctx context.Context) ([]Server, error)
	Databases(ctx context.Context) ([]Database, error)
}

// StaticInventory serves a fixed, in-memory inventory.
type StaticInventory struct {
	servers   []Server
	databases []Database
}

// NewStaticInventory copies the given records.
func NewStaticInventory(servers []Server, databases []Database) *StaticInventory {
	return &StaticInventory{
		servers:   append([]Server(nil), servers...),
		databases: append([]Database(nil), databases...),
	}
}

// DefaultInventory is the built-in lab inventory.
func DefaultInventory() *StaticInventory {
	return NewStaticInventory(DefaultServers(), DefaultDatabases())
}

// DefaultServers returns the built-in server records.
func DefaultServers() []Server {
	return []Server{
		{Name: "sr-dbs01", Type: "MySQL", Hostname: "sr-dbs01.core.lennoxconsulting.com.au"},
		{Name: "sr-dbs02", Type: "MongoDB", Hostname: "sr-dbs02.core.lennoxconsulting.com.au"},
		{Name: "sr-dbs03", Type: "PostgreSQL", Hostname: "sr-dbs03.core.lennoxconsulting.com.au"},
		{Name: "sr-dbs04", Type: "MySQL", Hostname: "sr-dbs04.lab.lennoxconsulting.com.au"},
		{Name: "sr-dbs04", Type: "PostgreSQL", Hostname: "sr-dbs04.lab.lennoxconsulting.com.au"},
	}
}

// DefaultDatabases returns the built-in database records.
func DefaultDatabases() []Database {
	return []Database{
		{Name: "netbox", Type: "PostgreSQL", Server: "sr-dbs03"},
		{Name: "netbox-test", Type: "PostgreSQL", Server: "sr-dbs04"},
		{Name: "netbox-dev", Type: "PostgreSQL", Server: "sr-dbs04"},
		{Name: "taiga", Type: "MySQL", Server: "sr-dbs01"},
		{Name: "homeassistant", Type: "MySQL", Server: "sr-dbs01"},
		{Name: "wordpress", Type: "MySQL", Server: "sr-dbs01"},
	}
}

func (s *StaticInventory) Servers(context.Context) ([]Server, error) {
	return append([]Server(nil), s.servers...), nil
}

func (s *StaticInventory) Databases(context.Context) ([]Database, error) {
	return append([]Database(nil), s.databases...), nil
}

// normalizeType lowercases a db_type argument and reports whether it is
// accepted. An empty value means "all".
func normalizeType(raw string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" || t == TypeAll {
		return TypeAll, true
	}
	for _, known := range knownTypes {
		if t == known {
			return t, true
		}
	}
	return t, false
}

// matches compares a filter value with a record value, ignoring case.
// TypeAll (and empty) matches everything.
func matches(filter, value string) bool {
	return filter == "" || filter == TypeAll || strings.EqualFold(filter, value)
}

var (
	_ Inventory = (*StaticInventory)(nil)
	_ Inventory = (*SQLiteInventory)(nil)
)
