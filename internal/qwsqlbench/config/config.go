package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/alexflint/go-arg"
	"github.com/nsqlite/quickwebsql/internal/version"
)

// Config represents the configuration for qwsqlbench.
type Config struct {
	Transactions             int  `arg:"--transactions,env:QWSQLBENCH_TRANSACTIONS" help:"Number of transactions of each benchmark" default:"1000"`
	StatementsPerTransaction int  `arg:"--statements-per-transaction,env:QWSQLBENCH_STATEMENTS_PER_TRANSACTION" help:"Number of statements in each transaction" default:"100"`
	PayloadBytes             int  `arg:"--payload-bytes,env:QWSQLBENCH_PAYLOAD_BYTES" help:"Size of the binary payload inserted by the large benchmark" default:"10000"`
	InMemory                 bool `arg:"--in-memory,env:QWSQLBENCH_IN_MEMORY" help:"Run against an in-memory database instead of a temporary file" default:"false"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.BenchVersion())
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

	if err := validatePositive("transactions", cfg.Transactions); err != nil {
		log.Fatal(err)
	}
	if err := validatePositive("statements per transaction", cfg.StatementsPerTransaction); err != nil {
		log.Fatal(err)
	}
	if err := validatePositive("payload bytes", cfg.PayloadBytes); err != nil {
		log.Fatal(err)
	}

	return cfg
}

// validatePositive validates if value is greater than zero.
func validatePositive(name string, value int) error {
	if value <= 0 {
		return errors.New("invalid " + name + ", must be greater than zero")
	}
	return nil
}
