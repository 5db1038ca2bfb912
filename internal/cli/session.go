package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/syssam/actian/contrib/rediscache"
	"github.com/syssam/actian/dialect"
	"github.com/syssam/actian/dialect/ingres"
	"github.com/syssam/actian/dialect/sql"
	"github.com/syssam/actian/internal/config"
)

// session is one connected command run.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	errOut  io.Writer
	drv     dialect.Driver
	stats   *sql.StatsDriver
	rdb     *redis.Client
	dialect *ingres.Dialect
	insp    *ingres.Inspector
}

// connect opens the driver, loads the capability snapshot and prepares an
// inspector. The returned session must be closed.
func (r *runner) connect(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required (--dsn or IIINSPECT_DSN)")
	}
	s := &session{
		cfg:    cfg,
		logger: newLogger(cmd, cfg),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	drv, err := r.open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	s.drv = drv
	if cfg.Verbose {
		s.drv = sql.NewDebugDriver(s.drv, sql.DebugWithLogger(s.logger))
	}
	if cfg.Stats {
		s.stats = sql.NewStatsDriver(s.drv,
			sql.WithSlowThreshold(cfg.SlowThreshold),
			sql.WithSlowQueryLog(s.logger),
		)
		s.drv = s.stats
	}

	s.dialect = ingres.New(
		ingres.WithNameCase(cfg.Case()),
		ingres.WithLogger(s.logger),
	)
	if err := s.dialect.Initialize(ctx, s.drv); err != nil {
		s.Close()
		return nil, fmt.Errorf("load capabilities: %w", err)
	}

	opts := []ingres.InspectorOption{ingres.WithInspectorLogger(s.logger)}
	if cfg.Redis.Addr != "" {
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		var cacheOpts []rediscache.Option
		if cfg.Redis.Namespace != "" {
			cacheOpts = append(cacheOpts, rediscache.WithNamespace(cfg.Redis.Namespace))
		}
		opts = append(opts,
			ingres.WithCache(rediscache.New(s.rdb, cacheOpts...)),
			ingres.WithConnID(connID(cfg)),
			ingres.WithCacheTTL(cfg.Redis.TTL),
		)
	}
	s.insp = s.dialect.Inspector(s.drv, opts...)
	return s, nil
}

// connID derives a stable cache identity for the data source, so processes
// pointed at the same server share entries without the DSN leaking into
// cache keys.
func connID(cfg *config.Config) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(cfg.Driver+"\x00"+cfg.DSN)).String()
}

// scope returns the reflection context of the command.
func (s *session) scope(ctx context.Context) context.Context {
	if s.cfg.SystemIndexes {
		return ingres.WithSystemIndexes(ctx)
	}
	return ctx
}

// Close releases the connection and prints the statistics, if collected.
func (s *session) Close() error {
	if s.stats != nil {
		fmt.Fprintf(s.errOut, "stats: %s\n", s.stats.QueryStats().Snapshot())
	}
	var errs []error
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	if s.drv != nil {
		errs = append(errs, s.drv.Close())
	}
	return errors.Join(errs...)
}
