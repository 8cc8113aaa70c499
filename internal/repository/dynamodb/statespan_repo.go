package dynamodb

import (
	"context"
	"errors"
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

type stateSpanRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewStateSpanRepository creates a new DynamoDB state-span repository.
// Table: state_spans, hash key id.
// GSIs: category_start_index (category, start_mills), category_original_id_index
// (category, original_id) — the natural-identity lookup used by upsert.
func NewStateSpanRepository(client *dynamodb.Client, log logger.Logger) repositoryIface.StateSpanRepository {
	return &stateSpanRepository{
		client:    client,
		tableName: "state_spans",
		logger:    log.With(logger.String("component", "statespan_repository")),
	}
}

func (r *stateSpanRepository) QueryRange(ctx context.Context, filter repositoryIface.SpanFilter) ([]*domain.StateSpan, error) {
	var items []map[string]types.AttributeValue
	var err error

	if filter.Category != nil {
		items, err = r.queryByCategory(ctx, filter)
	} else {
		items, err = r.scanAll(ctx, filter)
	}
	if err != nil {
		r.logger.Error("failed to query spans", logger.Error(err))
		return nil, fmt.Errorf("failed to query spans: %w", err)
	}

	spans := make([]*domain.StateSpan, 0, len(items))
	for _, item := range items {
		var span domain.StateSpan
		if err := attributevalue.UnmarshalMap(item, &span); err != nil {
			r.logger.Warn("failed to unmarshal span", logger.Error(err))
			continue
		}
		spans = append(spans, &span)
	}

	// Scan results are unordered; the query path is already start-descending
	// per index, but a stable re-sort keeps both paths identical.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartMills != spans[j].StartMills {
			return spans[i].StartMills > spans[j].StartMills
		}
		return spans[i].ID < spans[j].ID
	})

	return paginate(spans, filter.Skip, filter.Count), nil
}

func (r *stateSpanRepository) queryByCategory(ctx context.Context, filter repositoryIface.SpanFilter) ([]map[string]types.AttributeValue, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{
		":category": &types.AttributeValueMemberS{Value: string(*filter.Category)},
	}

	keyCond := "category = :category" + rangeKeyCondition(filter, values)
	filterExpr := buildSpanFilterExpression(filter, names, values)

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("category_start_index"),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false), // most-recent-start-first
	}
	if filterExpr != "" {
		input.FilterExpression = aws.String(filterExpr)
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	var items []map[string]types.AttributeValue
	wanted := fetchBudget(filter)

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

func (r *stateSpanRepository) scanAll(ctx context.Context, filter repositoryIface.SpanFilter) ([]map[string]types.AttributeValue, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	exprParts := []string{}
	if filter.From != nil && !filter.ActiveOnly {
		exprParts = append(exprParts, "start_mills >= :from")
		values[":from"] = numberAttr(*filter.From)
	}
	if filter.To != nil {
		exprParts = append(exprParts, "start_mills <= :to")
		values[":to"] = numberAttr(*filter.To)
	}
	if extra := buildSpanFilterExpression(filter, names, values); extra != "" {
		exprParts = append(exprParts, extra)
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	}
	if len(exprParts) > 0 {
		input.FilterExpression = aws.String(strings.Join(exprParts, " AND "))
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
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

// rangeKeyCondition appends the window bounds that can ride the
// category_start_index range key. Active queries never bound start_mills
// below: a span can start before From and still overlap the window, so From
// moves to the end_mills predicate in buildSpanFilterExpression.
func rangeKeyCondition(filter repositoryIface.SpanFilter, values map[string]types.AttributeValue) string {
	from := filter.From
	if filter.ActiveOnly {
		from = nil
	}

	switch {
	case from != nil && filter.To != nil:
		values[":from"] = numberAttr(*from)
		values[":to"] = numberAttr(*filter.To)
		return " AND start_mills BETWEEN :from AND :to"
	case from != nil:
		values[":from"] = numberAttr(*from)
		return " AND start_mills >= :from"
	case filter.To != nil:
		values[":to"] = numberAttr(*filter.To)
		return " AND start_mills <= :to"
	}
	return ""
}

// buildSpanFilterExpression appends the non-key predicates (state, source,
// active) shared by the query and scan paths
func buildSpanFilterExpression(filter repositoryIface.SpanFilter, names map[string]string, values map[string]types.AttributeValue) string {
	parts := []string{}

	if filter.State != nil {
		names["#state"] = "state"
		parts = append(parts, "#state = :state")
		values[":state"] = &types.AttributeValueMemberS{Value: *filter.State}
	}
	if filter.Source != nil {
		names["#source"] = "source"
		parts = append(parts, "#source = :source")
		values[":source"] = &types.AttributeValueMemberS{Value: *filter.Source}
	}
	if filter.ActiveOnly {
		if filter.From != nil {
			parts = append(parts, "(attribute_not_exists(end_mills) OR end_mills >= :active_from)")
			values[":active_from"] = numberAttr(*filter.From)
		} else {
			parts = append(parts, "attribute_not_exists(end_mills)")
		}
	}

	return strings.Join(parts, " AND ")
}

func (r *stateSpanRepository) GetByID(ctx context.Context, id string) (*domain.StateSpan, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		r.logger.Error("failed to get span", logger.Error(err))
		return nil, fmt.Errorf("failed to get span: %w", err)
	}

	if len(result.Item) == 0 {
		return nil, nil
	}

	var span domain.StateSpan
	if err := attributevalue.UnmarshalMap(result.Item, &span); err != nil {
		return nil, fmt.Errorf("failed to unmarshal span: %w", err)
	}

	return &span, nil
}

func (r *stateSpanRepository) FindByCategoryAndOriginalID(ctx context.Context, category domain.Category, originalID string) (*domain.StateSpan, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("category_original_id_index"),
		KeyConditionExpression: aws.String("category = :category AND original_id = :original_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":category":    &types.AttributeValueMemberS{Value: string(category)},
			":original_id": &types.AttributeValueMemberS{Value: originalID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		r.logger.Error("failed to find span by identity",
			logger.String("category", string(category)),
			logger.String("original_id", originalID),
			logger.Error(err))
		return nil, fmt.Errorf("failed to find span by identity: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	var span domain.StateSpan
	if err := attributevalue.UnmarshalMap(result.Items[0], &span); err != nil {
		return nil, fmt.Errorf("failed to unmarshal span: %w", err)
	}

	return &span, nil
}

func (r *stateSpanRepository) Insert(ctx context.Context, span *domain.StateSpan) error {
	item, err := attributevalue.MarshalMap(span)
	if err != nil {
		r.logger.Error("failed to marshal span", logger.Error(err))
		return fmt.Errorf("failed to marshal span: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var conditionalCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckErr) {
			return fmt.Errorf("%w: id=%s", ErrDuplicateSpan, span.ID)
		}
		r.logger.Error("failed to insert span", logger.Error(err))
		return fmt.Errorf("failed to insert span: %w", err)
	}

	return nil
}

func (r *stateSpanRepository) Replace(ctx context.Context, id string, span *domain.StateSpan) error {
	stored := *span
	stored.ID = id

	item, err := attributevalue.MarshalMap(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal span: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var conditionalCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckErr) {
			return fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		r.logger.Error("failed to replace span", logger.String("id", id), logger.Error(err))
		return fmt.Errorf("failed to replace span: %w", err)
	}

	return nil
}

func (r *stateSpanRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		r.logger.Error("failed to delete span", logger.String("id", id), logger.Error(err))
		return false, fmt.Errorf("failed to delete span: %w", err)
	}

	return len(result.Attributes) > 0, nil
}

func numberAttr(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", v)}
}

// fetchBudget is how many raw items a paged fetch needs before slicing;
// 0 means unbounded
func fetchBudget(filter repositoryIface.SpanFilter) int {
	if filter.Count <= 0 {
		return 0
	}
	return filter.Count + filter.Skip
}

func paginate[T any](items []T, skip, count int) []T {
	if skip > 0 {
		if skip >= len(items) {
			return []T{}
		}
		items = items[skip:]
	}
	if count > 0 && count < len(items) {
		items = items[:count]
	}
	return items
}
