package sqlstore

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// CreateTableFiles 迁移文件，按文件名顺序执行
var CreateTableFiles, _ = fs.Sub(migrationFiles, "migrations")
