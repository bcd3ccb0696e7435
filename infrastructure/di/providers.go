package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"mailflow/application/commands"
	"mailflow/application/commands/bus"
	commandhandlers "mailflow/application/commands/handlers"
	"mailflow/application/ports"
	"mailflow/application/queries"
	querybus "mailflow/application/queries/bus"
	queryhandlers "mailflow/application/queries/handlers"
	"mailflow/application/services"
	domainconfig "mailflow/domain/config"
	"mailflow/domain/events"
	"mailflow/infrastructure/config"
	"mailflow/infrastructure/mail"
	"mailflow/infrastructure/messaging/eventbridge"
	dynamopersistence "mailflow/infrastructure/persistence/dynamodb"
	"mailflow/infrastructure/persistence/memory"
	"mailflow/interfaces/http/rest"
	"mailflow/interfaces/http/rest/handlers"
	"mailflow/pkg/auth"
	"mailflow/pkg/errors"
	"mailflow/pkg/observability"
)

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideDomainConfig selects the domain limits for the environment.
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig loads the AWS SDK configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideDynamoDBClient creates a DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client.
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client.
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvidePlanRepository selects the plan store. Local runs use the
// in-memory store; everything else goes to DynamoDB.
func ProvidePlanRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.PlanRepository {
	if cfg.UseMemoryStore {
		return memory.NewPlanRepository()
	}
	return dynamopersistence.NewPlanRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEmailLogRepository selects the email log store.
func ProvideEmailLogRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EmailLogRepository {
	if cfg.UseMemoryStore {
		return memory.NewEmailLogRepository()
	}
	return dynamopersistence.NewEmailLogRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventBus selects the event transport. With the queue disabled
// events stay in-process, which also makes local runs self-contained.
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if !cfg.EnableQueue || cfg.UseMemoryStore {
		return memory.NewEventBus()
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideEventPublisher narrows the bus to its publishing side.
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return &eventPublisherAdapter{eventBus: eventBus}
}

type eventPublisherAdapter struct {
	eventBus ports.EventBus
}

func (a *eventPublisherAdapter) Publish(ctx context.Context, event events.DomainEvent) error {
	return a.eventBus.Publish(ctx, event)
}

func (a *eventPublisherAdapter) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	return a.eventBus.PublishBatch(ctx, batch)
}

// ProvideMetrics selects the metrics sink.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) observability.MetricsPublisher {
	if !cfg.EnableMetrics {
		return observability.NewNoopMetrics()
	}
	return observability.NewCloudWatchMetrics(client, "Mailflow/"+cfg.Environment, logger)
}

// ProvideTracer creates the X-Ray tracer, or nil when tracing is off.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("mailflow")
}

// ProvideMailSender creates the mail sender. Delivery is owned by the
// worker consuming send events; this process logs what it would send.
func ProvideMailSender(logger *zap.Logger) ports.MailSender {
	return mail.NewLogSender(logger)
}

// ProvideFlowRunner creates the flow execution service.
func ProvideFlowRunner(
	plans ports.PlanRepository,
	logs ports.EmailLogRepository,
	sender ports.MailSender,
	publisher ports.EventPublisher,
	metrics observability.MetricsPublisher,
	tracer *observability.Tracer,
	logger *zap.Logger,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
) *services.FlowRunner {
	return services.NewFlowRunner(plans, logs, sender, publisher, metrics, tracer, logger, domainCfg, cfg.EnableQueue && !cfg.UseMemoryStore)
}

// ProvideCommandBus creates the command bus with every write handler
// registered.
func ProvideCommandBus(
	plans ports.PlanRepository,
	publisher ports.EventPublisher,
	metrics observability.MetricsPublisher,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.SavePlanCommand{}, commandhandlers.NewSavePlanHandler(plans, publisher, metrics, logger, domainCfg)},
		{commands.PatchPlanCommand{}, commandhandlers.NewPatchPlanHandler(plans, publisher, logger)},
		{commands.DeletePlanCommand{}, commandhandlers.NewDeletePlanHandler(plans, publisher, logger)},
	}
	for _, reg := range registrations {
		if err := commandBus.Register(reg.cmd, reg.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with every read handler
// registered.
func ProvideQueryBus(
	plans ports.PlanRepository,
	logs ports.EmailLogRepository,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetPlanQuery{}, queryhandlers.NewGetPlanHandler(plans)},
		{queries.ListPlansQuery{}, queryhandlers.NewListPlansHandler(plans)},
		{queries.ListEmailLogsQuery{}, queryhandlers.NewListEmailLogsHandler(plans, logs)},
	}
	for _, reg := range registrations {
		if err := queryBus.Register(reg.query, reg.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideJWTValidator creates the token validator.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideJWTGenerator creates the token issuer.
func ProvideJWTGenerator(cfg *config.Config) (*auth.JWTGenerator, error) {
	return auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey:  cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		ExpiryTime: cfg.JWTExpiry,
	})
}

// ProvideErrorHandler creates the HTTP error responder.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvidePlanHandler creates the plan endpoints.
func ProvidePlanHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	runner *services.FlowRunner,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *handlers.PlanHandler {
	return handlers.NewPlanHandler(commandBus, queryBus, runner, errHandler, logger)
}

// ProvideAuthHandler creates the token endpoint.
func ProvideAuthHandler(
	generator *auth.JWTGenerator,
	cfg *config.Config,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *handlers.AuthHandler {
	return handlers.NewAuthHandler(generator, cfg, errHandler, logger)
}

// ProvideRouter creates the REST router.
func ProvideRouter(
	planHandler *handlers.PlanHandler,
	authHandler *handlers.AuthHandler,
	validator *auth.JWTValidator,
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(planHandler, authHandler, validator, cfg, domainCfg, logger)
}
