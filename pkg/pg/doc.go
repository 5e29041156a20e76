// Package pg provides the PostgreSQL bootstrap used by classtrack: a pgx/v5
// connection pool with startup retries, goose schema migrations, a health
// check closure, and error classification helpers shared by the store
// implementations.
//
// The package keeps a deliberately small surface; stores receive a
// *pgxpool.Pool and write their own SQL.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil { ... }
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil { ... }
package pg
