package emergent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/emergent-company/emergent/apps/server-go/pkg/sdk/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
)

func testClient(maxRetries int) *Client {
	return &Client{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		limiter: newLimiter(0),
		retry:   retryPolicy{maxRetries: maxRetries, initial: time.Millisecond, max: time.Minute},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TokenFrom(ctx))
	assert.Equal(t, "emt_abc", TokenFrom(WithToken(ctx, "emt_abc")))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(nil))
	assert.True(t, isTransient(errors.New("EOF")))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.True(t, isTransient(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, isTransient(errors.New("400 bad request")))
}

func TestRetryPolicyDelay(t *testing.T) {
	p := newRetryPolicy(Options{MaxRetries: -1, LongOutageIntervalMins: 5, LongOutageThreshold: 20})
	assert.Equal(t, 500*time.Millisecond, p.delay(1))
	assert.Equal(t, time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(4))
	assert.Equal(t, time.Minute, p.delay(19))
	assert.Equal(t, 5*time.Minute, p.delay(20))
	assert.True(t, p.allows(1000))

	p = newRetryPolicy(DefaultOptions())
	assert.True(t, p.allows(5))
	assert.False(t, p.allows(6))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))

	err := classify("get object x", errors.New("object not found"))
	assert.True(t, faults.IsCategory(err, faults.NotFound))

	err = classify("get object x", errors.New("internal error"))
	assert.True(t, faults.IsCategory(err, faults.PropertyServer))
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	c := testClient(3)
	calls := 0
	err := c.withRetry(context.Background(), "list objects", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	c := testClient(1)
	calls := 0
	err := c.withRetry(context.Background(), "list objects", func() error {
		calls++
		return errors.New("EOF")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, faults.IsCategory(err, faults.PropertyServer))
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	c := testClient(5)
	calls := 0
	err := c.withRetry(context.Background(), "get object x", func() error {
		calls++
		return errors.New("404 not found")
	})
	assert.Equal(t, 1, calls)
	assert.True(t, faults.IsCategory(err, faults.NotFound))
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	c := testClient(-1)
	c.retry.initial = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.withRetry(ctx, "list objects", func() error {
		calls++
		cancel()
		return errors.New("EOF")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestToElementPrefersCanonicalID(t *testing.T) {
	key := "Collection::Sales"
	obj := &graph.GraphObject{
		ID:          "v2",
		CanonicalID: "c1",
		Type:        "Collection",
		Key:         &key,
		Labels:      []string{"Folder"},
		Properties:  map[string]any{"name": "Sales"},
	}
	el := toElement(obj)
	assert.Equal(t, "c1", el.GUID)
	assert.Equal(t, "Collection", el.TypeName)
	assert.Equal(t, key, el.QualifiedName)
	assert.True(t, el.HasClassification("Folder"))
	assert.Equal(t, "Sales", el.StringProperty("name"))

	el.Properties["name"] = "changed"
	assert.Equal(t, "Sales", obj.Properties["name"])

	obj.CanonicalID = ""
	obj.Key = nil
	el = toElement(obj)
	assert.Equal(t, "v2", el.GUID)
	assert.Empty(t, el.QualifiedName)
}

func TestToRelationship(t *testing.T) {
	rel := toRelationship(&graph.GraphRelationship{
		ID:    "r1",
		Type:  "CollectionMembership",
		SrcID: "a",
		DstID: "b",
	})
	assert.Equal(t, "r1", rel.GUID)
	assert.Equal(t, "a", rel.End1GUID)
	assert.Equal(t, "b", rel.End2GUID)
	assert.NotNil(t, rel.Properties)
}

func TestLimitFor(t *testing.T) {
	assert.Equal(t, defaultLimit, limitFor(store.Paging{}))
	assert.Equal(t, 30, limitFor(store.Paging{StartFrom: 20, PageSize: 10}))
}
