package gormdb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Repository implements every persistence port of the domain on top of gorm.
type Repository struct {
	db *gorm.DB
}

var (
	_ domain.CostCenterRepository = (*Repository)(nil)
	_ domain.UserRepository       = (*Repository)(nil)
	_ domain.AuthorityRepository  = (*Repository)(nil)
	_ domain.AuditRepository      = (*Repository)(nil)
)

// Open connects to sqlite (pure Go driver) or postgres. A nil log discards
// gorm's own logging.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	cfg := &gorm.Config{TranslateError: true, Logger: logger.Discard}
	if log != nil {
		cfg.Logger = logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}
	return gorm.Open(dialector, cfg)
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func (m *CostCenterModel) BeforeCreate(*gorm.DB) error {
	if m.ExternalID == uuid.Nil {
		m.ExternalID = uuid.New()
	}
	return nil
}

func (m *UserModel) BeforeCreate(*gorm.DB) error {
	if m.ExternalID == uuid.Nil {
		m.ExternalID = uuid.New()
	}
	return nil
}

func (m *AuthorityModel) BeforeCreate(*gorm.DB) error {
	if m.ExternalID == uuid.Nil {
		m.ExternalID = uuid.New()
	}
	return nil
}
