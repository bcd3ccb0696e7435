package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"mailflow/application/ports"
	"mailflow/domain/flow"
	"mailflow/pkg/errors"
	"mailflow/pkg/utils"
)

type emailLogItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	LogID      string `dynamodbav:"LogID"`
	PlanID     string `dynamodbav:"PlanID"`
	Recipient  string `dynamodbav:"Recipient"`
	Subject    string `dynamodbav:"Subject"`
	Body       string `dynamodbav:"Body"`
	Status     string `dynamodbav:"Status"`
	Error      string `dynamodbav:"Error,omitempty"`
	SendAt     string `dynamodbav:"SendAt"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// EmailLogRepository is the DynamoDB-backed ports.EmailLogRepository.
// Log entries share the owner's partition with their plan, keyed so
// one Query fetches a plan's whole log.
type EmailLogRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEmailLogRepository creates the repository.
func NewEmailLogRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *EmailLogRepository {
	return &EmailLogRepository{client: client, tableName: tableName, logger: logger}
}

var _ ports.EmailLogRepository = (*EmailLogRepository)(nil)

func logSK(planID, logID string) string {
	return logKeyPrefix + planID + "#" + logID
}

// Save persists one log entry.
func (r *EmailLogRepository) Save(ctx context.Context, userID string, log *flow.EmailLog) error {
	item := emailLogItem{
		PK:         planPK(userID),
		SK:         logSK(log.PlanID, log.ID),
		EntityType: entityLog,
		LogID:      log.ID,
		PlanID:     log.PlanID,
		Recipient:  log.Recipient,
		Subject:    log.Subject,
		Body:       log.Body,
		Status:     string(log.Status),
		Error:      log.Error,
		SendAt:     log.SendAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		CreatedAt:  log.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.NewInternalError("failed to marshal log item").WithCause(err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return errors.NewDatabaseError("save email log", err)
	}
	return nil
}

// ListByPlan returns a plan's log entries.
func (r *EmailLogRepository) ListByPlan(ctx context.Context, userID, planID string) ([]*flow.EmailLog, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(planPK(userID))).
		And(expression.Key("SK").BeginsWith(logKeyPrefix + planID + "#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build query expression").WithCause(err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, errors.NewDatabaseError("list email logs", err)
	}

	logs := make([]*flow.EmailLog, 0, len(out.Items))
	for _, item := range out.Items {
		var record emailLogItem
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			r.logger.Warn("Skipping unreadable log item", zap.Error(err))
			continue
		}

		log := &flow.EmailLog{
			ID:        record.LogID,
			PlanID:    record.PlanID,
			Recipient: record.Recipient,
			Subject:   record.Subject,
			Body:      record.Body,
			Status:    flow.EmailLogStatus(record.Status),
			Error:     record.Error,
		}
		if t, err := utils.ParseRFC3339(record.SendAt); err == nil {
			log.SendAt = t
		}
		if t, err := utils.ParseRFC3339(record.CreatedAt); err == nil {
			log.CreatedAt = t
		}
		logs = append(logs, log)
	}
	return logs, nil
}
