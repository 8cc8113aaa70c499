package dynamodb

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"nocturne/internal/domain"
	"nocturne/internal/logger"

	repositoryIface "nocturne/internal/repository/iface"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeKeyCondition(t *testing.T) {
	from := int64(5_000)
	to := int64(9_000)

	t.Run("plain window rides the index key", func(t *testing.T) {
		values := map[string]types.AttributeValue{}
		cond := rangeKeyCondition(repositoryIface.SpanFilter{From: &from, To: &to}, values)
		assert.Equal(t, " AND start_mills BETWEEN :from AND :to", cond)
		assert.Contains(t, values, ":from")
		assert.Contains(t, values, ":to")
	})

	t.Run("active window never bounds start", func(t *testing.T) {
		values := map[string]types.AttributeValue{}
		cond := rangeKeyCondition(repositoryIface.SpanFilter{ActiveOnly: true, From: &from}, values)
		assert.Empty(t, cond, "a span can start before the window and still overlap it")
		assert.NotContains(t, values, ":from")
	})

	t.Run("active window keeps the upper start bound", func(t *testing.T) {
		values := map[string]types.AttributeValue{}
		cond := rangeKeyCondition(repositoryIface.SpanFilter{ActiveOnly: true, From: &from, To: &to}, values)
		assert.Equal(t, " AND start_mills <= :to", cond)
	})
}

func TestBuildSpanFilterExpressionActiveWindow(t *testing.T) {
	from := int64(5_000)

	t.Run("active with from keeps open and still-overlapping spans", func(t *testing.T) {
		values := map[string]types.AttributeValue{}
		expr := buildSpanFilterExpression(repositoryIface.SpanFilter{ActiveOnly: true, From: &from}, map[string]string{}, values)
		assert.Equal(t, "(attribute_not_exists(end_mills) OR end_mills >= :active_from)", expr)
		assert.Contains(t, values, ":active_from")
	})

	t.Run("active without from keeps only open spans", func(t *testing.T) {
		expr := buildSpanFilterExpression(repositoryIface.SpanFilter{ActiveOnly: true}, map[string]string{}, map[string]types.AttributeValue{})
		assert.Equal(t, "attribute_not_exists(end_mills)", expr)
	})
}

type failingHTTPClient struct{}

func (failingHTTPClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("transport closed")
}

// newOfflineClient builds a client whose every request fails at the transport,
// for exercising write paths without a table
func newOfflineClient() *dynamodb.Client {
	return dynamodb.NewFromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: aws.AnonymousCredentials{},
		HTTPClient:  failingHTTPClient{},
	}, func(o *dynamodb.Options) {
		o.Retryer = aws.NopRetryer{}
	})
}

func TestReplaceLeavesCallerUntouched(t *testing.T) {
	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	repo := NewStateSpanRepository(newOfflineClient(), log)

	span := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 1_000, "test")
	callerID := span.ID

	err = repo.Replace(context.Background(), "stored-id", span)
	require.Error(t, err)
	assert.Equal(t, callerID, span.ID, "the stored id must not leak back into the argument")
}
