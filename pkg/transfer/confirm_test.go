package transfer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusServer(t *testing.T, responses ...string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getSignatureStatuses", req.Method)

		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responses[n]))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSignatureConfirmerWaitsForCommitment(t *testing.T) {
	srv, calls := statusServer(t,
		`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[null]}}`,
		`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":2},"value":[{"slot":2,"confirmations":0,"err":null,"confirmationStatus":"processed"}]}}`,
		`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":3},"value":[{"slot":2,"confirmations":1,"err":null,"confirmationStatus":"confirmed"}]}}`,
	)

	c := NewSignatureConfirmer(srv.URL, "confirmed", 5*time.Millisecond, time.Second)
	require.NoError(t, c.Confirm(context.Background(), "sig"))
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestSignatureConfirmerChainError(t *testing.T) {
	srv, _ := statusServer(t,
		`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":3},"value":[{"slot":2,"confirmations":null,"err":{"InstructionError":[1,{"Custom":1}]},"confirmationStatus":"finalized"}]}}`,
	)

	c := NewSignatureConfirmer(srv.URL, "finalized", 5*time.Millisecond, time.Second)
	err := c.Confirm(context.Background(), "sig")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.Contains(t, err.Error(), "InstructionError")
}

func TestSignatureConfirmerTimeout(t *testing.T) {
	srv, _ := statusServer(t,
		`{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"node is behind"}}`,
	)

	c := NewSignatureConfirmer(srv.URL, "confirmed", 5*time.Millisecond, 30*time.Millisecond)
	err := c.Confirm(context.Background(), "sig-123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.Contains(t, err.Error(), "sig-123")
	assert.Contains(t, err.Error(), "not confirmed")
}

func TestSignatureConfirmerUnknownCommitmentDefaults(t *testing.T) {
	c := NewSignatureConfirmer("http://localhost", "eventually", time.Second, time.Second)
	assert.Equal(t, defaultCommitment, c.commitment)
	assert.True(t, c.reached("finalized"))
	assert.False(t, c.reached("processed"))
	assert.False(t, c.reached(""))
}
