package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"mailflow/application/commands/bus"
	"mailflow/application/ports"
	querybus "mailflow/application/queries/bus"
	"mailflow/application/services"
	domainconfig "mailflow/domain/config"
	"mailflow/infrastructure/config"
	"mailflow/interfaces/http/rest"
	"mailflow/pkg/auth"
	"mailflow/pkg/errors"
	"mailflow/pkg/observability"
)

// Container holds the wired application.
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	PlanRepo     ports.PlanRepository
	EmailLogRepo ports.EmailLogRepository
	EventBus     ports.EventBus
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	FlowRunner   *services.FlowRunner
	Metrics      observability.MetricsPublisher
	Validator    *auth.JWTValidator
	Generator    *auth.JWTGenerator
	ErrorHandler *errors.ErrorHandler
	Router       *rest.Router
}

// SuperSet is the full provider set.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvidePlanRepository,
	ProvideEmailLogRepository,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideTracer,
	ProvideMailSender,
	ProvideFlowRunner,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideJWTGenerator,
	ProvideErrorHandler,
	ProvidePlanHandler,
	ProvideAuthHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)
