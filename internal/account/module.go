package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/accountd/internal/account/inbound"
	"github.com/shandysiswandi/accountd/internal/account/outbound/cache"
	"github.com/shandysiswandi/accountd/internal/account/outbound/db"
	"github.com/shandysiswandi/accountd/internal/account/outbound/mq"
	"github.com/shandysiswandi/accountd/internal/account/usecase"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/goroutine"
	"github.com/shandysiswandi/accountd/internal/pkg/hash"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
	"github.com/shandysiswandi/accountd/internal/pkg/messaging"
	"github.com/shandysiswandi/accountd/internal/pkg/router"
	"github.com/shandysiswandi/accountd/internal/pkg/uid"
	"github.com/shandysiswandi/accountd/internal/pkg/validator"
)

const (
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
)

var errUnknownTokenStore = errors.New("account: unknown token store")

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Correlator uid.StringID               `validate:"required"`
	Secret     uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	AccessJWT  jwt.JWT                    `validate:"required"`
	RefreshJWT jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAccount := db.NewDB(dep.DBConn, dep.HMAC, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.UUID, dep.Instrument)

	ucDep := usecase.Dependency{
		RepoUser:      dbAccount,
		RepoToken:     dbAccount,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      dep.Password,
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Correlator:    dep.Correlator,
		Secret:        dep.Secret,
		Clock:         dep.Clock,
		AccessJWT:     dep.AccessJWT,
		RefreshJWT:    dep.RefreshJWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	}

	store := dep.Config.GetString("modules.account.token_store")
	switch store {
	case "", TokenStorePostgres:
		store = TokenStorePostgres
	case TokenStoreRedis:
		ucDep.RepoToken = cache.NewCache(dep.CacheConn, dep.HMAC, dep.Clock, dep.Instrument, cache.Config{
			Grace: dep.Config.GetSecond("modules.account.sweep_grace_seconds"),
		})
	default:
		return errUnknownTokenStore
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	// Redis expires keys natively; only the Postgres store needs sweeping.
	if store == TokenStorePostgres {
		interval := dep.Config.GetSecond("modules.account.sweep_interval_seconds")
		if interval <= 0 {
			interval = time.Minute
		}
		inbound.RegisterSweepJob(dep.Ctx, dep.Goroutine, interval, uc)
	}

	slog.Info("account module initialized", "token_store", store)

	return nil
}
