package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
)

type MockEthClient struct {
	mock.Mock
	headers []*ethtypes.Header
}

func (m *MockEthClient) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(11155111), nil
}

func (m *MockEthClient) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	if number == nil {
		return m.headers[len(m.headers)-1], nil
	}
	return m.headers[number.Uint64()], nil
}

func (m *MockEthClient) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, contract, blockNumber)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEthClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, call, blockNumber)
	return nil, args.Error(0)
}

func (m *MockEthClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	args := m.Called(ctx, call)
	return args.Get(0).(uint64), args.Error(1)
}

// chainOf builds n linked headers starting at genesis.
func chainOf(n int) []*ethtypes.Header {
	headers := make([]*ethtypes.Header, 0, n)
	parent := common.Hash{}
	for i := 0; i < n; i++ {
		h := &ethtypes.Header{Number: big.NewInt(int64(i)), ParentHash: parent, Difficulty: big.NewInt(1)}
		headers = append(headers, h)
		parent = h.Hash()
	}
	return headers
}

func TestEthLedger_Sync_TracksHeadAndParents(t *testing.T) {
	client := &MockEthClient{headers: chainOf(10)}
	ledger, err := NewEthLedger(context.Background(), client, logging.NewNoOpLogger())
	require.NoError(t, err)

	assert.Equal(t, uint64(9), ledger.Height())
	assert.Equal(t, int64(11155111), ledger.ChainID().Int64())

	h, ok := ledger.BlockHash(4)
	require.True(t, ok)
	assert.Equal(t, client.headers[4].Hash(), h)

	client.headers = chainOf(12)
	require.NoError(t, ledger.Sync(context.Background()))
	assert.Equal(t, uint64(11), ledger.Height())
	h, ok = ledger.BlockHash(11)
	require.True(t, ok)
	assert.Equal(t, client.headers[11].Hash(), h)
	_, ok = ledger.BlockHash(12)
	assert.False(t, ok)
}

func TestEthCodeChecker_IsInvokable(t *testing.T) {
	client := &MockEthClient{}
	target := common.HexToAddress("0x01")
	empty := common.HexToAddress("0x02")
	client.On("CodeAt", mock.Anything, target, mock.Anything).Return([]byte{0x60, 0x80}, nil)
	client.On("CodeAt", mock.Anything, empty, mock.Anything).Return([]byte{}, nil)

	checker := NewEthCodeChecker(client)
	ok, err := checker.IsInvokable(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = checker.IsInvokable(context.Background(), empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEthDryRunInvoker_Invoke_RevertIsUnsuccessful(t *testing.T) {
	client := &MockEthClient{}
	client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(0), errors.New("execution reverted")).Once()
	client.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(90_000), nil).Once()
	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	inv, err := NewEthDryRunInvoker(client, common.HexToAddress("0xee"))
	require.NoError(t, err)

	res, err := inv.Invoke(context.Background(), common.HexToAddress("0x01"), 50_000, []byte("x"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, uint64(50_000), res.GasUsed)

	res, err = inv.Invoke(context.Background(), common.HexToAddress("0x01"), 50_000, []byte("x"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, uint64(50_000), res.GasUsed, "gas used is clamped to the limit")
}

func TestEthExecutor_ExecuteAndFollow(t *testing.T) {
	client := &MockEthClient{headers: chainOf(3)}
	ledger, err := NewEthLedger(context.Background(), client, logging.NewNoOpLogger())
	require.NoError(t, err)
	exec := NewEthExecutor(ledger, logging.NewNoOpLogger())

	boom := errors.New("boom")
	assert.ErrorIs(t, exec.Execute(func() error { return boom }), boom)
	assert.NoError(t, exec.Execute(func() error { return nil }))

	assert.Error(t, exec.Follow(context.Background(), "not a schedule"))

	client.headers = chainOf(6)
	exec.syncOnce(context.Background())
	assert.Equal(t, uint64(5), ledger.Height())

	require.NoError(t, exec.Follow(context.Background(), "@every 1h"))
	exec.StopFollowing()
	exec.StopFollowing()
}
