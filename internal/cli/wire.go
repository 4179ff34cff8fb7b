package cli

import (
	"context"
	"database/sql"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/application"
	appanalysis "github.com/bryanwahyu/whatif/internal/application/analysis"
	apphistory "github.com/bryanwahyu/whatif/internal/application/history"
	"github.com/bryanwahyu/whatif/internal/application/pipeline"
	"github.com/bryanwahyu/whatif/internal/config"
	"github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/domain/history"
	openaiclient "github.com/bryanwahyu/whatif/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/whatif/internal/infra/db/mysql"
	"github.com/bryanwahyu/whatif/internal/infra/db/postgres"
	"github.com/bryanwahyu/whatif/internal/infra/db/sqlite"
	"github.com/bryanwahyu/whatif/internal/infra/identity"
	minioStore "github.com/bryanwahyu/whatif/internal/infra/storage"
	"github.com/bryanwahyu/whatif/internal/pkg/id"
)

type loader func() (*config.Config, error)

// store is an open database with its repositories.
type store struct {
	DB       *sql.DB
	Repo     analysis.Repository
	Failures analysis.FailureJournal
	Migrate  func(context.Context, *sql.DB) error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		return &store{DB: db, Repo: mysqlp.NewHistoryRepository(db), Failures: mysqlp.NewFailureRepository(db), Migrate: mysqlp.Migrate}, nil
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		return &store{DB: db, Repo: postgres.NewHistoryRepository(db), Failures: postgres.NewFailureRepository(db), Migrate: postgres.Migrate}, nil
	case config.DriverSQLite:
		db, err := sqlite.Connect(ctx, cfg.SQLiteDSN())
		if err != nil {
			return nil, fmt.Errorf("sqlite connect: %w", err)
		}
		return &store{DB: db, Repo: sqlite.NewHistoryRepository(db), Failures: sqlite.NewFailureRepository(db), Migrate: sqlite.Migrate}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// buildService wires every collaborator the config enables. The returned
// store may be nil when the database is unreachable; the service then runs
// without persistence.
func buildService(ctx context.Context, cfg *config.Config) (*appanalysis.Service, *store, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("llm api key is not configured (set OPENAI_API_KEY)")
	}
	gen := openaiclient.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	gen.Temperature = cfg.LLM.Temperature

	svc := &appanalysis.Service{
		Pipeline: pipeline.New(gen),
		Clock:    application.SystemClock{},
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		klog.Warningf("history disabled: %v", err)
	} else {
		if err := st.Migrate(ctx, st.DB); err != nil {
			st.DB.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		svc.Repo = st.Repo
		svc.Failures = st.Failures
	}

	if cfg.Auth.JWTSecret != "" {
		svc.Identity = identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		rc := &history.Reconciler{IDs: id.Source{}, Clock: application.SystemClock{}}
		svc.Sessions = apphistory.NewSessions(svc.Repo, rc, cfg.History.Limit)
		if cfg.History.IdleTTL > 0 {
			svc.Sessions.IdleTTL = cfg.History.IdleTTL
		}
	} else {
		klog.Infof("auth.jwtSecret not set; all runs are unauthenticated")
	}

	if cfg.Minio.Enabled {
		archive, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			klog.Warningf("report archive disabled: %v", err)
		} else {
			svc.Archive = archive
		}
	}
	return svc, st, nil
}
