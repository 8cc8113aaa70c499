package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"nocturne/internal/domain"
	"nocturne/internal/logger"

	repositoryIface "nocturne/internal/repository/iface"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type treatmentRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewTreatmentRepository creates a new DynamoDB treatment repository.
// Table: treatments, hash key id. GSI: event_type_mills_index (event_type, mills).
func NewTreatmentRepository(client *dynamodb.Client, log logger.Logger) repositoryIface.TreatmentRepository {
	return &treatmentRepository{
		client:    client,
		tableName: "treatments",
		logger:    log.With(logger.String("component", "treatment_repository")),
	}
}

func (r *treatmentRepository) QueryRange(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]*domain.Treatment, error) {
	var items []map[string]types.AttributeValue
	var err error

	if filter.EventType != nil {
		items, err = r.queryByEventType(ctx, filter)
	} else {
		items, err = r.scanAll(ctx, filter)
	}
	if err != nil {
		r.logger.Error("failed to query treatments", logger.Error(err))
		return nil, fmt.Errorf("failed to query treatments: %w", err)
	}

	treatments := make([]*domain.Treatment, 0, len(items))
	for _, item := range items {
		var t domain.Treatment
		if err := attributevalue.UnmarshalMap(item, &t); err != nil {
			r.logger.Warn("failed to unmarshal treatment", logger.Error(err))
			continue
		}
		treatments = append(treatments, &t)
	}

	sort.SliceStable(treatments, func(i, j int) bool {
		if treatments[i].Mills != treatments[j].Mills {
			return treatments[i].Mills > treatments[j].Mills
		}
		return treatments[i].ID < treatments[j].ID
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(treatments) {
			return []*domain.Treatment{}, nil
		}
		treatments = treatments[filter.Skip:]
	}
	if filter.Count > 0 && filter.Count < len(treatments) {
		treatments = treatments[:filter.Count]
	}

	return treatments, nil
}

func (r *treatmentRepository) queryByEventType(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]map[string]types.AttributeValue, error) {
	keyCond := "event_type = :event_type"
	values := map[string]types.AttributeValue{
		":event_type": &types.AttributeValueMemberS{Value: *filter.EventType},
	}

	switch {
	case filter.From != nil && filter.To != nil:
		keyCond += " AND mills BETWEEN :from AND :to"
		values[":from"] = numberAttr(*filter.From)
		values[":to"] = numberAttr(*filter.To)
	case filter.From != nil:
		keyCond += " AND mills >= :from"
		values[":from"] = numberAttr(*filter.From)
	case filter.To != nil:
		keyCond += " AND mills <= :to"
		values[":to"] = numberAttr(*filter.To)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("event_type_mills_index"),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
	}

	var items []map[string]types.AttributeValue
	wanted := 0
	if filter.Count > 0 {
		wanted = filter.Count + filter.Skip
	}

	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil || (wanted > 0 && len(items) >= wanted) {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return items, nil
}

func (r *treatmentRepository) scanAll(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]map[string]types.AttributeValue, error) {
	values := map[string]types.AttributeValue{}
	exprParts := []string{}

	if filter.From != nil {
		exprParts = append(exprParts, "mills >= :from")
		values[":from"] = numberAttr(*filter.From)
	}
	if filter.To != nil {
		exprParts = append(exprParts, "mills <= :to")
		values[":to"] = numberAttr(*filter.To)
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	}
	if len(exprParts) > 0 {
		input.FilterExpression = aws.String(strings.Join(exprParts, " AND "))
		input.ExpressionAttributeValues = values
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return items, nil
}

func (r *treatmentRepository) GetByID(ctx context.Context, id string) (*domain.Treatment, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		r.logger.Error("failed to get treatment", logger.Error(err))
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}

	if len(result.Item) == 0 {
		return nil, nil
	}

	var t domain.Treatment
	if err := attributevalue.UnmarshalMap(result.Item, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal treatment: %w", err)
	}

	return &t, nil
}

func (r *treatmentRepository) Insert(ctx context.Context, treatment *domain.Treatment) error {
	item, err := attributevalue.MarshalMap(treatment)
	if err != nil {
		r.logger.Error("failed to marshal treatment", logger.Error(err))
		return fmt.Errorf("failed to marshal treatment: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.Error("failed to insert treatment", logger.Error(err))
		return fmt.Errorf("failed to insert treatment: %w", err)
	}

	return nil
}

func (r *treatmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		r.logger.Error("failed to delete treatment", logger.String("id", id), logger.Error(err))
		return false, fmt.Errorf("failed to delete treatment: %w", err)
	}

	return len(result.Attributes) > 0, nil
}
