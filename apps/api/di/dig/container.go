package dig_container

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/datagrid/apps/api/echo"
	"github.com/trezcool/datagrid/core"
	"github.com/trezcool/datagrid/core/product"
	logsvc "github.com/trezcool/datagrid/services/logger"
	"github.com/trezcool/datagrid/storage/database"
	inmemdb "github.com/trezcool/datagrid/storage/database/inmem"
	sqlxrepos "github.com/trezcool/datagrid/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Closer releases the storage behind the product repository.
type Closer func() error

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newProductRepository opens the configured storage: postgres, created and migrated
// on the fly, or the in-memory database.
func newProductRepository(conf *core.Config, loggerParam DBLoggerParam) (product.Repository, Closer, error) {
	logger := loggerParam.Logger
	if conf.Database.InMemory {
		logger.Info("using in-memory database")
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening in-memory database")
		}
		return inmemdb.NewProductRepository(db), func() error { return nil }, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, nil, errors.Wrap(err, "setting up database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "setting up database")
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "setting up database")
	}
	return sqlxrepos.NewProductRepository(db), db.Close, nil
}

func newServer(conf *core.Config, logger core.Logger, deps echoapi.Deps) *echoapi.Server {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	deps.Conf = conf
	deps.Logger = logger
	return echoapi.NewServer(conf.Server.Host, shutdown, &deps)
}

// serverDeps gathers what the server needs besides its config and logger.
type serverDeps struct {
	dig.In
	Validate   *validator.Validate
	Translator ut.Translator
	ProductSvc *product.Service
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newProductRepository))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(product.NewService))
	must(c.Provide(func(d serverDeps) echoapi.Deps {
		return echoapi.Deps{Validate: d.Validate, Translator: d.Translator, ProductSvc: d.ProductSvc}
	}))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
