package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"chkin-backend/logger"
	"chkin-backend/models"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

// ResolveMySQLDSN builds the DSN from MYSQL_URL, DATABASE_URL or the DB_*
// variables, in that order, and checks it parses.
func ResolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	var dsn string
	switch {
	case strings.HasPrefix(raw, "mysql://"):
		var err error
		if dsn, err = mysqlDSNFromURL(raw); err != nil {
			return "", err
		}
	case raw != "":
		dsn = raw
	default:
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			envOrDefault("DB_USER", "root"),
			envOrDefault("DB_PASS", ""),
			envOrDefault("DB_HOST", "127.0.0.1"),
			envOrDefault("DB_PORT", "3306"),
			envOrDefault("DB_NAME", "chkin"),
		)
	}

	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("mysql dsn missing database name")
	}
	if !cfg.ParseTime {
		return "", fmt.Errorf("mysql dsn must set parseTime=true")
	}
	return dsn, nil
}

func ConnectDatabase(settings *Settings, log *logger.Logger) error {
	dsn, err := ResolveMySQLDSN()
	if err != nil {
		return err
	}

	gormLog := gormlogger.New(
		log.WithComponent("gorm"),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:  gormLog,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return err
	}

	// parent -> child order
	if err := db.AutoMigrate(
		&models.Provider{},
		&models.User{},
		&models.Form{},
		&models.FormField{},
		&models.Submission{},
		&models.ConsentLog{},
		&models.VaultItem{},
	); err != nil {
		return err
	}

	DB = db
	SeedDatabase(db, settings, log)
	return nil
}

// SeedDatabase makes sure there is an admin account to approve providers with.
func SeedDatabase(db *gorm.DB, settings *Settings, log *logger.Logger) {
	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		log.WithError(err).Warn("failed to count admins")
		return
	}
	if adminCount > 0 {
		return
	}
	if settings.AdminPassword == "" {
		log.Warn("no admin account exists and ADMIN_PASSWORD is not set; skipping admin seed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(settings.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Warn("failed to hash default admin password")
		return
	}
	admin := models.User{
		FullName: "Administrator",
		Email:    strings.ToLower(settings.AdminEmail),
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.WithError(err).Warn("failed to create default admin")
		return
	}
	log.WithField("email", admin.Email).Info("Default admin seeded")
}
