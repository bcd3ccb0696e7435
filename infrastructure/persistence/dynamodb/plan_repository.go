package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mailflow/application/ports"
	"mailflow/domain/flow"
	"mailflow/pkg/errors"
	"mailflow/pkg/utils"
)

// Single-table layout:
//
//	PK = USER#<userID>
//	SK = PLAN#<planID>        mail plan
//	SK = LOG#<planID>#<logID> email log entry
//
// The flow document carries a typed-union node payload, so the full
// plan is stored as a JSON document attribute; the flat columns exist
// for queries and projections.
const (
	userKeyPrefix = "USER#"
	planKeyPrefix = "PLAN#"
	logKeyPrefix  = "LOG#"

	entityPlan = "PLAN"
	entityLog  = "EMAIL_LOG"
)

type planItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	PlanID      string `dynamodbav:"PlanID"`
	Name        string `dynamodbav:"Name"`
	Status      string `dynamodbav:"Status"`
	TriggerType string `dynamodbav:"TriggerType"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	Document    string `dynamodbav:"Document"`
}

// PlanRepository is the DynamoDB-backed ports.PlanRepository.
type PlanRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewPlanRepository creates the repository.
func NewPlanRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *PlanRepository {
	return &PlanRepository{client: client, tableName: tableName, logger: logger}
}

var _ ports.PlanRepository = (*PlanRepository)(nil)

func planPK(userID string) string { return userKeyPrefix + userID }
func planSK(planID string) string { return planKeyPrefix + planID }

// Save persists the plan as a JSON document item.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *flow.Plan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return errors.NewInternalError("failed to serialize plan").WithCause(err)
	}

	item := planItem{
		PK:          planPK(userID),
		SK:          planSK(plan.ID),
		EntityType:  entityPlan,
		PlanID:      plan.ID,
		Name:        plan.Name,
		Status:      string(plan.Status),
		TriggerType: string(plan.TriggerType),
		CreatedAt:   plan.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		Document:    string(doc),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.NewInternalError("failed to marshal plan item").WithCause(err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return errors.NewDatabaseError("save plan", err)
	}

	r.logger.Debug("Plan saved",
		zap.String("plan_id", plan.ID),
		zap.String("user_id", userID),
	)
	return nil
}

// GetByID retrieves one plan.
func (r *PlanRepository) GetByID(ctx context.Context, userID, planID string) (*flow.Plan, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: planPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: planSK(planID)},
		},
	})
	if err != nil {
		return nil, errors.NewDatabaseError("get plan", err)
	}
	if result.Item == nil {
		return nil, errors.NewNotFoundError("plan")
	}

	return unmarshalPlanItem(result.Item)
}

// List retrieves all plans for a user, newest first.
func (r *PlanRepository) List(ctx context.Context, userID string) ([]*flow.Plan, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(planPK(userID))).
		And(expression.Key("SK").BeginsWith(planKeyPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build query expression").WithCause(err)
	}

	var plans []*flow.Plan
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, errors.NewDatabaseError("list plans", err)
		}

		for _, item := range out.Items {
			plan, err := unmarshalPlanItem(item)
			if err != nil {
				r.logger.Warn("Skipping unreadable plan item", zap.Error(err))
				continue
			}
			plans = append(plans, plan)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}

// Delete removes a plan.
func (r *PlanRepository) Delete(ctx context.Context, userID, planID string) error {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: planPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: planSK(planID)},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return errors.NewDatabaseError("delete plan", err)
	}
	if out.Attributes == nil {
		return errors.NewNotFoundError("plan")
	}
	return nil
}

func unmarshalPlanItem(item map[string]types.AttributeValue) (*flow.Plan, error) {
	var record planItem
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, errors.NewInternalError("failed to unmarshal plan item").WithCause(err)
	}

	var plan flow.Plan
	if err := json.Unmarshal([]byte(record.Document), &plan); err != nil {
		return nil, errors.NewInternalError(
			fmt.Sprintf("corrupt plan document for %s", record.PlanID)).WithCause(err)
	}

	// The columns are authoritative for fields mutated out-of-band.
	plan.Status = flow.PlanStatus(record.Status)
	if t, err := utils.ParseRFC3339(record.CreatedAt); err == nil {
		plan.CreatedAt = t
	}
	return &plan, nil
}
