package sqlstore

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mindwell-ai/mindwell/app/store"
	"github.com/mindwell-ai/mindwell/pkg/register"
	"github.com/mindwell-ai/mindwell/pkg/sqlstore"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var _ store.Provider = (*Provider)(nil)

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.ChatMessageStore
	store.ChatSummaryStore
	store.UserActivityStore
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	p := NewProvider(sqlstore.MustSetupProvider(m, s...))
	return func() *Provider {
		return p
	}
}

// NewProvider builds every registered store on top of the given connections.
func NewProvider(sp *sqlstore.SqlProvider) *Provider {
	p := &Provider{
		SqlProvider: sp,
		stores:      &Stores{},
	}
	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(p)
	}
	return p
}

// Install 按文件名顺序执行尚未执行过的迁移文件
func (p *Provider) Install() error {
	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := fs.ReadDir(CreateTableFiles, ".")
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		executed, err := p.isFileExecuted(file.Name())
		if err != nil {
			return err
		}
		if executed {
			continue
		}

		raw, err := fs.ReadFile(CreateTableFiles, file.Name())
		if err != nil {
			return err
		}

		// 迁移文件与执行记录在同一个事务中提交
		name := file.Name()
		if err = p.Transaction(context.Background(), func(ctx context.Context) error {
			tx := p.GetTxFromCtx(ctx)
			if err := p.executeSQLFile(tx, string(raw), name); err != nil {
				return err
			}
			return p.markFileExecuted(tx, name)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_SCHEMA_MIGRATIONS.Name() + ` (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetMaster().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_SCHEMA_MIGRATIONS.Name()+" WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(tx *sqlx.Tx, filename string) error {
	_, err := tx.Exec(
		"INSERT INTO "+types.TABLE_SCHEMA_MIGRATIONS.Name()+" (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) executeSQLFile(tx *sqlx.Tx, content, filename string) error {
	slog.Info("execute migration", slog.String("file", filename))
	if _, err := tx.Exec(content); err != nil {
		return fmt.Errorf("migration %s: %w", filename, err)
	}
	return nil
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.SqlProvider.Ping(ctx)
}

func (p *Provider) ChatMessageStore() store.ChatMessageStore {
	return p.stores.ChatMessageStore
}

func (p *Provider) ChatSummaryStore() store.ChatSummaryStore {
	return p.stores.ChatSummaryStore
}

func (p *Provider) UserActivityStore() store.UserActivityStore {
	return p.stores.UserActivityStore
}
