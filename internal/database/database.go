// Package database opens the PostgreSQL connection behind the gorm store,
// starting an embedded server for zero-config local runs.
package database

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/friendstransport/fleetgo/internal/config"
	"github.com/friendstransport/fleetgo/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
	embeddedPassword = "postgres"
)

// DB wraps gorm.DB and the embedded server it may own
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// IsEmbedded reports whether cfg selects the embedded server: localhost and no password
func IsEmbedded(cfg config.DatabaseConfig) bool {
	return cfg.Host == "localhost" && cfg.Password == ""
}

// cleanupStalePostmaster stops a server left behind by a crashed run and removes its pid file
func cleanupStalePostmaster(dataPath string) {
	pidFile := filepath.Join(dataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Printf("⚠️  Could not parse PID from postmaster.pid: %v", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil || process.Signal(syscall.Signal(0)) != nil {
		log.Printf("🧹 Removing stale postmaster.pid (PID %d not running)", pid)
		os.Remove(pidFile)
		return
	}

	log.Printf("⚠️  Found orphaned PostgreSQL process (PID %d), stopping it...", pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		log.Printf("⚠️  Could not send SIGTERM to PID %d: %v", pid, err)
	}
	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if process.Signal(syscall.Signal(0)) != nil {
			log.Printf("✅ Orphaned PostgreSQL process stopped")
			os.Remove(pidFile)
			return
		}
	}

	log.Printf("⚠️  Process did not stop gracefully, sending SIGKILL...")
	process.Kill()
	time.Sleep(500 * time.Millisecond)
	os.Remove(pidFile)
}

func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// StartEmbedded starts an embedded PostgreSQL server under dataPath on port and
// returns cfg rewritten to point at it.
func StartEmbedded(cfg config.DatabaseConfig, dataPath string, port int) (*embeddedpostgres.EmbeddedPostgres, config.DatabaseConfig, error) {
	cleanupStalePostmaster(dataPath)

	if isPortInUse(port) {
		log.Printf("⚠️  Port %d still in use, waiting for release...", port)
		for i := 0; i < 6 && isPortInUse(port); i++ {
			time.Sleep(500 * time.Millisecond)
		}
		if isPortInUse(port) {
			return nil, cfg, fmt.Errorf("port %d is still in use by another process", port)
		}
	}

	server := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(dataPath).
		RuntimePath(filepath.Join(dataPath, "runtime")).
		Port(uint32(port)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword))

	if err := server.Start(); err != nil {
		return nil, cfg, fmt.Errorf("failed to start embedded database: %w", err)
	}

	cfg.Host = "localhost"
	cfg.Port = strconv.Itoa(port)
	cfg.Password = embeddedPassword
	log.Printf("✅ Embedded PostgreSQL process started on port %d", port)
	return server, cfg, nil
}

// Connect opens the configured database, starting the embedded server first when cfg asks for it
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var server *embeddedpostgres.EmbeddedPostgres

	if IsEmbedded(cfg) {
		log.Println("📦 Mode: [Embedded PostgreSQL] - Initializing internal database...")
		var err error
		server, cfg, err = StartEmbedded(cfg, embeddedDataPath, embeddedPort)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("🌐 Mode: [External PostgreSQL] - Connecting to %s:%s\n", cfg.Host, cfg.Port)
	}

	db, err := Open(cfg)
	if err != nil {
		if server != nil {
			_ = server.Stop()
		}
		return nil, err
	}

	log.Println("✅ Database connection established")
	return &DB{DB: db, embedded: server}, nil
}

// Open connects gorm to an already running server
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database,
	)

	logLevel := logger.Warn
	if cfg.Silent {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// Migrate creates or updates every table of the consignment schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Println("✅ Schema migrated")
	return nil
}

// Close shuts down the connection and the embedded server, if any
func (db *DB) Close() error {
	if db.embedded != nil {
		log.Println("🛑 Stopping Embedded PostgreSQL process...")
		defer func() { _ = db.embedded.Stop() }()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
