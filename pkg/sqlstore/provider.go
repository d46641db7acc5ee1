package sqlstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mindwell-ai/mindwell/pkg/utils"
)

type SqlCommons interface {
	GetTable(...interface{}) string
}

type ConnectConfig interface {
	FormatDSN() string
}

// PoolConfig is optionally implemented by a ConnectConfig to tune the connection pool.
type PoolConfig interface {
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
}

type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
	dbname   string
}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if driver, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return driver
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	return s.replicas[utils.Random(0, len(s.replicas)-1)]
}

type TransactionKey struct{}

func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return next(ctx)
	}

	var tx *sqlx.Tx
	if tx, err = s.GetMaster().BeginTxx(ctx, nil); err != nil {
		return err
	}

	defer func() {
		r := recover()
		if r == nil && err == nil {
			return
		}
		slog.Error("Transaction rollbacked", slog.Any("recover", r), slog.Any("error", err))
		_ = tx.Rollback()
		if r != nil {
			panic(r)
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

// 建立数据库连接
func (s *SqlProvider) initConnection(conf ConnectConfig) (*sqlx.DB, error) {
	engine, err := sqlx.Open("postgres", conf.FormatDSN())
	if err != nil {
		return nil, err
	}

	if pool, ok := conf.(PoolConfig); ok {
		if n := pool.MaxOpenConns(); n > 0 {
			engine.SetMaxOpenConns(n)
		}
		if n := pool.MaxIdleConns(); n > 0 {
			engine.SetMaxIdleConns(n)
		}
		if d := pool.ConnMaxLifetime(); d > 0 {
			engine.SetConnMaxLifetime(d)
		}
	}

	return engine, nil
}

func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	var (
		err      error
		engine   *sqlx.DB
		slaves   []*sqlx.DB
		provider = &SqlProvider{}
	)

	if engine, err = provider.initConnection(m); err != nil {
		panic(err)
	}

	for _, v := range s {
		slave, err := provider.initConnection(v)
		if err != nil {
			panic(err)
		}
		slaves = append(slaves, slave)
	}

	provider.master = engine

	if len(slaves) == 0 {
		slaves = append(slaves, engine)
	}
	provider.replicas = append(provider.replicas, slaves...)

	return provider
}

// NewProvider wraps already opened connections, used by tests that bring their own database.
func NewProvider(master *sqlx.DB, replicas ...*sqlx.DB) *SqlProvider {
	if len(replicas) == 0 {
		replicas = []*sqlx.DB{master}
	}
	return &SqlProvider{
		master:   master,
		replicas: replicas,
	}
}

func (s *SqlProvider) Ping(ctx context.Context) error {
	if err := s.master.PingContext(ctx); err != nil {
		return err
	}
	for _, r := range s.replicas {
		if r == s.master {
			continue
		}
		if err := r.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *SqlProvider) Close() error {
	for _, r := range s.replicas {
		if r != s.master {
			r.Close()
		}
	}
	return s.master.Close()
}

func (s *SqlProvider) GetDBName() (string, error) {
	if s.dbname == "" {
		var dbName string
		if err := s.GetMaster().QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
			return "", err
		}
		s.dbname = dbName
	}

	return s.dbname, nil
}
