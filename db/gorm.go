package db

import (
	"fmt"
	"net"
	"path/filepath"
	"time"

	"P3DrumMachine/config"
	"P3DrumMachine/logger"
	"P3DrumMachine/model"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// IndexFileName is the SQLite index created inside the base directory.
const IndexFileName = "index.db"

// SQLitePath is where the SQLite summary index lives for baseDir.
func SQLitePath(baseDir string) string {
	return filepath.Join(baseDir, IndexFileName)
}

// MySQLDSN builds the DSN for the MySQL summary index.
func MySQLDSN(cfg *config.Config) string {
	c := gomysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// OpenGorm connects the summary index database selected by cfg.IndexBackend
// (sqlite or mysql) and migrates its schema.
func OpenGorm(cfg *config.Config, baseDir string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.IndexBackend {
	case config.IndexSQLite:
		dialector = sqlite.Open(SQLitePath(baseDir))
	case config.IndexMySQL:
		dialector = mysql.Open(MySQLDSN(cfg))
	default:
		return nil, fmt.Errorf("index backend %q is not a SQL backend", cfg.IndexBackend)
	}
	return open(dialector, cfg.IndexBackend)
}

// OpenSQLite opens (creating if needed) a SQLite index at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	return open(sqlite.Open(path), config.IndexSQLite)
}

func open(dialector gorm.Dialector, backend string) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		// 禁用外键约束
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if backend == config.IndexSQLite {
		// one writer at a time keeps SQLite from reporting SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := AutoMigrateModels(gdb, &model.SessionSummary{}); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Debug("summary index database ready", logger.String("backend", backend))
	return gdb, nil
}

// CloseGormDB 关闭 GORM 数据库连接
func CloseGormDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrateModels 自动迁移指定的模型
func AutoMigrateModels(gdb *gorm.DB, models ...interface{}) error {
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	return nil
}
