package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptions_RefCounted(t *testing.T) {
	c, srv := connected(t)

	for range 3 {
		require.NoError(t, c.SetInput(0))
	}
	in, out := c.Subscriptions(0)
	assert.Equal(t, 3, in)
	assert.Zero(t, out)

	for i := 3; i > 0; i-- {
		err := c.SetOutput(0)
		assert.Equal(t, CodeBidirectionalPoint, CodeOf(err), "input count %d", i)
		require.NoError(t, c.UnsetInput(0))
	}

	require.NoError(t, c.SetOutput(0))
	in, out = c.Subscriptions(0)
	assert.Zero(t, in)
	assert.Equal(t, 1, out)

	srvIn, srvOut := srv.Subscriptions(0)
	assert.Zero(t, srvIn)
	assert.Equal(t, 1, srvOut)
}

func TestSubscriptions_BidirectionalRejectedWithoutCall(t *testing.T) {
	tests := []struct {
		name   string
		first  func(*Client, int32) error
		second func(*Client, int32) error
		symbol string
	}{
		{"input then output", (*Client).SetInput, (*Client).SetOutput, "eds_live_set_output"},
		{"output then input", (*Client).SetOutput, (*Client).SetInput, "eds_live_set_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := connected(t)
			require.NoError(t, tt.first(c, 0))
			calls := srv.Calls(tt.symbol)

			err := tt.second(c, 0)
			require.Error(t, err)

			var be *BackendError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, CodeBidirectionalPoint, be.Code)
			assert.False(t, be.Retryable())
			assert.Equal(t, calls, srv.Calls(tt.symbol))
		})
	}
}

func TestSubscriptions_SameRoleIsNotBidirectional(t *testing.T) {
	c, _ := connected(t)

	require.NoError(t, c.SetOutput(0))
	require.NoError(t, c.SetOutput(0))
	require.NoError(t, c.SetInput(1))

	_, out := c.Subscriptions(0)
	assert.Equal(t, 2, out)
}

func TestSubscriptions_UnsetAtZeroIsForwarded(t *testing.T) {
	c, srv := connected(t)

	require.NoError(t, c.UnsetInput(0))
	assert.Equal(t, 1, srv.Calls("eds_live_unset_input"))

	in, out := c.Subscriptions(0)
	assert.Zero(t, in)
	assert.Zero(t, out)

	require.NoError(t, c.SetInput(0))
	in, _ = c.Subscriptions(0)
	assert.Equal(t, 1, in)
}

func TestSubscriptions_BackendFailureLeavesCount(t *testing.T) {
	c, srv := connected(t)
	srv.Fail("eds_live_set_input", int32(CodeInvalidResult))

	assert.Error(t, c.SetInput(0))
	in, _ := c.Subscriptions(0)
	assert.Zero(t, in)

	require.NoError(t, c.SetInput(0))
	srv.Fail("eds_live_unset_input", int32(CodeInvalidResult))
	assert.Error(t, c.UnsetInput(0))
	in, _ = c.Subscriptions(0)
	assert.Equal(t, 1, in)
}

func TestSubscriptions_RequireConnection(t *testing.T) {
	c, _, _ := newClient(t, testVersion)

	assert.ErrorIs(t, c.SetInput(0), ErrUninitializedClient)
	assert.ErrorIs(t, c.UnsetOutput(0), ErrUninitializedClient)
}
