package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

// Status is the outcome of a health assessment.
type Status string

const (
	StatusHealthy Status = "Healthy"
	StatusFailed  Status = "Failed"
	StatusUnknown Status = "Unknown"
)

// HealthReport is the assessment of one database.
type HealthReport struct {
	Status Status
	Detail string
}

// HealthChecker assesses the operational health of a database.
type HealthChecker interface {
	Check(ctx context.Context, db Database) HealthReport
}

// DefaultPingTimeout bounds a single MySQL health probe.
const DefaultPingTimeout = 5 * time.Second

// MySQLChecker pings MySQL databases through the connection configured for
// their server. Other engines, and servers without a connection, report
// StatusUnknown.
type MySQLChecker struct {
	connections map[string]string
	timeout     time.Duration
}

// NewMySQLChecker creates a checker. connections maps server name to DSN
// ("user:pass@tcp(host:3306)/"); the database name is filled per check.
func NewMySQLChecker(connections map[string]string) *MySQLChecker {
	conns := make(map[string]string, len(connections))
	for server, dsn := range connections {
		conns[strings.ToLower(server)] = dsn
	}
	return &MySQLChecker{
		connections: conns,
		timeout:     DefaultPingTimeout,
	}
}

// Check opens a short-lived connection to db and pings it.
func (c *MySQLChecker) Check(ctx context.Context, db Database) HealthReport {
	if !strings.EqualFold(db.Type, TypeMySQL) {
		return HealthReport{Status: StatusUnknown, Detail: fmt.Sprintf("no health check available for %s", db.Type)}
	}

	dsn, ok := c.connections[strings.ToLower(db.Server)]
	if !ok {
		return HealthReport{Status: StatusUnknown, Detail: fmt.Sprintf("no connection configured for server %s", db.Server)}
	}

	dsn, err := c.databaseDSN(dsn, db.Name)
	if err != nil {
		return HealthReport{Status: StatusUnknown, Detail: fmt.Sprintf("invalid connection for server %s: %v", db.Server, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	if err := ping(ctx, dsn); err != nil {
		utils.Warn("MySQL health check failed",
			"database", db.Name,
			"server", db.Server,
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return HealthReport{Status: StatusFailed, Detail: err.Error()}
	}

	utils.Debug("MySQL health check passed",
		"database", db.Name,
		"server", db.Server,
		"duration_ms", time.Since(startTime).Milliseconds())
	return HealthReport{Status: StatusHealthy}
}

// databaseDSN points the server DSN at one database.
func (c *MySQLChecker) databaseDSN(serverDSN, dbName string) (string, error) {
	cfg, err := gomysql.ParseDSN(serverDSN)
	if err != nil {
		return "", err
	}
	cfg.DBName = dbName
	cfg.ParseTime = true
	if cfg.Timeout == 0 {
		cfg.Timeout = c.timeout
	}
	return cfg.FormatDSN(), nil
}

func ping(ctx context.Context, dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("connection pool: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

var _ HealthChecker = (*MySQLChecker)(nil)
