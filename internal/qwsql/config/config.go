package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/nsqlite/quickwebsql/internal/engine/sqliteengine"
	qlog "github.com/nsqlite/quickwebsql/internal/log"
	"github.com/nsqlite/quickwebsql/internal/version"
)

// Config represents the configuration for qwsql.
type Config struct {
	Name                 string `arg:"positional" help:"Name of the database to open, or a http(s)://host:port?authToken=value connection string with --driver nsqlite" default:"main.db"`
	DataDirectory        string `arg:"--data-directory,env:QWSQL_DATA_DIRECTORY" help:"Directory for database files" default:"./data"`
	Driver               string `arg:"--driver,env:QWSQL_DRIVER" help:"Database driver (sqlite3, nsqlite)" default:"sqlite3"`
	InMemory             bool   `arg:"--in-memory,env:QWSQL_IN_MEMORY" help:"Keep every database in memory, data is lost on exit" default:"false"`
	DisableOptimizations bool   `arg:"--disable-optimizations,env:QWSQL_DISABLE_OPTIMIZATIONS" help:"Disable performance optimizations at startup for the underlying SQLite database, allowing manual tuning" default:"false"`
	LogLevel             string `arg:"--log-level,env:QWSQL_LOG_LEVEL" help:"Minimum level of the logs written to stderr (debug, info, warn, error)" default:"warn"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.ClientVersion())
}

// MustParse parses and validates the configuration from the command
// line arguments. It returns a Config struct or exits the program
// with an error.
func MustParse(args []string) Config {
	cfg := Config{}

	parser, err := arg.NewParser(
		arg.Config{},
		&cfg,
	)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	return cfg
}

// Validate checks every field of the configuration.
func (c Config) Validate() error {
	if err := validateDriver(c.Driver); err != nil {
		return err
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		return err
	}
	if err := validateName(c.Driver, c.Name); err != nil {
		return err
	}
	return nil
}

// EngineDriver returns the validated driver as an engine driver.
func (c Config) EngineDriver() sqliteengine.Driver {
	driver := sqliteengine.Drivers.Parse(c.Driver)
	if driver == nil {
		return sqliteengine.DriverSQLite3
	}
	return *driver
}

// validateDriver validates if driver is a supported database driver.
func validateDriver(driver string) error {
	if sqliteengine.Drivers.Parse(driver) != nil {
		return nil
	}

	return fmt.Errorf(
		"invalid driver, valid values are: %s",
		strings.Join(sqliteengine.Drivers.Values(), ", "),
	)
}

// validateLogLevel validates if level is a known log level.
func validateLogLevel(level string) error {
	if _, err := qlog.ParseLevel(level); err != nil {
		return errors.New("invalid log level, valid values are: debug, info, warn, error")
	}
	return nil
}

// validateName validates the database name for the given driver.
func validateName(driver string, name string) error {
	if name == "" {
		return errors.New("database name is required")
	}

	if driver == sqliteengine.DriverNSQLite.Value {
		if !strings.HasPrefix(name, "http://") && !strings.HasPrefix(name, "https://") {
			return errors.New("invalid connection string, must start with http:// or https://")
		}
		return nil
	}

	if strings.ContainsAny(name, `/\?`) || name == "." || name == ".." {
		return errors.New("invalid database name, must be a file name without path separators")
	}
	return nil
}
