package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/product"
	logsvc "github.com/trezcool/datagrid/services/logger"
	"github.com/trezcool/datagrid/storage/database"
	sqlxrepos "github.com/trezcool/datagrid/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	if conf.Database.InMemory {
		logger.Fatal("admin commands need a postgres database, unset database.inMemory")
	}

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		svc:    product.NewService(sqlxrepos.NewProductRepository(db)),
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
	code := 0
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		code = 1
	}
	closeDB(db, logger)
	os.Exit(code)
}

func closeDB(db *sql.DB, logger core.Logger) {
	if err := db.Close(); err != nil {
		logger.Error(fmt.Sprintf("closing database: %v", err), err)
	}
}
