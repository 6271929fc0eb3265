package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/triggerx-registry/internal/registry"
	"github.com/trigg3rX/triggerx-registry/internal/registry/chain"
	"github.com/trigg3rX/triggerx-registry/internal/registry/config"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/coretest"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/report"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/validation"
	"github.com/trigg3rX/triggerx-registry/internal/registry/metrics"
	regerrors "github.com/trigg3rX/triggerx-registry/pkg/core/errors"
	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

var oneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type account struct {
	key  string
	addr common.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: hexutil.Encode(crypto.FromECDSA(key)), addr: crypto.PubkeyToAddress(key.PublicKey)}
}

type apiFixture struct {
	ledger       *chain.Simulated
	token        *chain.SimToken
	committee    *coretest.Committee
	owner        account
	transmitters []account
	reg          *registry.Registry
	hub          *Hub
	srv          *Server
	nonces       map[common.Address]uint64
	epoch        uint32
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.NewNoOpLogger()

	f := &apiFixture{
		ledger:    chain.NewSimulated(coretest.ChainID),
		token:     chain.NewSimToken(),
		committee: coretest.NewCommittee(4, 1),
		owner:     newAccount(t),
		nonces:    make(map[common.Address]uint64),
	}
	for i := 0; i < 4; i++ {
		f.transmitters = append(f.transmitters, newAccount(t))
	}
	f.hub = NewHub([]string{"*"}, logger)
	f.reg = f.newRegistry(t, coretest.Registry)
	f.srv = NewServer(f.reg, metrics.NewCollector(f.ledger), f.hub, Options{Port: "9010", AllowedOrigins: []string{"*"}}, logger)
	f.ledger.Mine(5)
	return f
}

func (f *apiFixture) newRegistry(t *testing.T, addr common.Address) *registry.Registry {
	t.Helper()
	reg, err := registry.New(registry.Deps{
		Address:  addr,
		Owner:    f.owner.addr,
		Ledger:   f.ledger,
		Executor: f.ledger,
		Token:    f.token,
		Invoker:  chain.NewFuncInvoker(80_000),
		Code:     &chain.StaticCodeChecker{},
		Emitter:  f.hub,
		Logger:   logging.NewNoOpLogger(),
	})
	require.NoError(t, err)
	return reg
}

func (f *apiFixture) bootstrap() config.Bootstrap {
	b := config.Bootstrap{F: f.committee.F}
	for _, s := range f.committee.Signers {
		b.Signers = append(b.Signers, s.Hex())
	}
	for i, tr := range f.transmitters {
		b.Transmitters = append(b.Transmitters, tr.addr.Hex())
		b.Payees = append(b.Payees, common.BytesToAddress([]byte{0x90, byte(i + 1)}).Hex())
	}
	b.Onchain = config.OnchainBootstrap{
		PaymentPremiumPPB:    250_000_000,
		CheckGasLimit:        10_000_000,
		StalenessHeights:     90,
		GasCeilingMultiplier: 2,
		MinSpend:             "0",
		MaxPerformGas:        5_000_000,
		MaxCheckDataSize:     1000,
		MaxPerformDataSize:   1000,
		FallbackGasPrice:     "200",
		FallbackLinkNative:   "200000000000",
	}
	b.Offchain = config.OffchainBootstrap{Version: 1, Config: "0x01"}
	return b
}

func (f *apiFixture) post(t *testing.T, path string, from account, payload any) *httptest.ResponseRecorder {
	t.Helper()
	f.nonces[from.addr]++
	env, err := SignEnvelope(from.addr, f.nonces[from.addr], payload, from.key)
	require.NoError(t, err)
	return f.postEnvelope(t, path, env)
}

func (f *apiFixture) postEnvelope(t *testing.T, path string, env *Envelope) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return f.do(httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body)))
}

func (f *apiFixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *apiFixture) do(req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func (f *apiFixture) configure(t *testing.T) {
	t.Helper()
	w := f.post(t, "/config", f.owner, f.bootstrap())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.ledger.Mine(20)
}

func (f *apiFixture) registerFunded(t *testing.T, funds *big.Int) uint64 {
	t.Helper()
	w := f.post(t, "/tasks", f.owner, RegisterTaskPayload{
		Target:      common.BytesToAddress([]byte{0xc0, 0x01}),
		GasLimit:    100_000,
		Admin:       f.owner.addr,
		TriggerType: "condition",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		TaskID uint64 `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	if funds.Sign() > 0 {
		funder := newAccount(t)
		f.token.Mint(funder.addr, funds)
		f.token.Approve(funder.addr, f.reg.Address(), funds)
		w = f.post(t, "/tasks/"+u64(created.TaskID)+"/funds", funder, AmountPayload{Amount: funds.String()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	return created.TaskID
}

func (f *apiFixture) transmitPayload(t *testing.T, ids ...uint64) TransmitPayload {
	t.Helper()
	height := f.ledger.Height()
	hash, ok := f.ledger.BlockHash(height)
	require.True(t, ok)
	trigger, err := validation.EncodeConditionTrigger(types.ConditionTriggerContext{BlockNum: uint32(height), BlockHash: hash})
	require.NoError(t, err)

	r := &types.Report{FastGasWei: big.NewInt(1_000_000_000), LinkNative: big.NewInt(5_000_000_000_000_000)}
	for _, id := range ids {
		r.TaskIDs = append(r.TaskIDs, id)
		r.Triggers = append(r.Triggers, trigger)
		r.PerformDatas = append(r.PerformDatas, []byte{})
	}
	raw, err := report.Encode(r)
	require.NoError(t, err)

	f.epoch++
	rctx := types.ReportContext{ConfigDigest: f.reg.GetConfig().ConfigDigest, Epoch: f.epoch, Round: 1}
	p := TransmitPayload{ConfigDigest: rctx.ConfigDigest, Epoch: rctx.Epoch, Round: rctx.Round, Report: raw}
	for _, sig := range f.committee.Quorum(rctx, raw) {
		p.Signatures = append(p.Signatures, sig.Bytes())
	}
	return p
}

func u64(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestHealth_ReturnsStatusAndTraceID(t *testing.T) {
	f := newAPIFixture(t)

	w := f.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(5), body["height"])
}

func TestTraceMiddleware_KeepsCallerTraceID(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set(TraceIDHeader, "trace-123")

	w := f.do(req)
	assert.Equal(t, "trace-123", w.Header().Get(TraceIDHeader))
}

func TestCORS_AllowedOriginHeaderSet(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.org")

	w := f.do(req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetConfig_AppliesConfigAndPayees(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)

	var cfg types.Config
	decode(t, f.get("/config"), &cfg)
	assert.Equal(t, uint32(1), cfg.ConfigCount)
	assert.Len(t, cfg.Transmitters, 4)

	var info types.TransmitterInfo
	w := f.get("/transmitters/" + f.transmitters[0].addr.Hex())
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &info)
	assert.True(t, info.Active)
	assert.Equal(t, common.BytesToAddress([]byte{0x90, 0x01}), info.Payee)

	w = f.get("/signers/" + f.committee.Signers[2].Hex())
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSetConfig_InvalidDocument_BadRequest(t *testing.T) {
	f := newAPIFixture(t)
	doc := f.bootstrap()
	doc.Onchain.MinSpend = "lots"

	w := f.post(t, "/config", f.owner, doc)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnvelope_Rejections(t *testing.T) {
	f := newAPIFixture(t)
	other := newAccount(t)

	forged, err := SignEnvelope(f.owner.addr, 1, struct{}{}, other.key)
	require.NoError(t, err)

	tampered, err := SignEnvelope(f.owner.addr, 2, AmountPayload{Amount: "1"}, f.owner.key)
	require.NoError(t, err)
	tampered.Payload = json.RawMessage(`{"amount":"2"}`)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
	}{
		{"malformed body", "/pause", []byte("{"), http.StatusBadRequest},
		{"missing signature", "/pause", mustJSON(t, Envelope{Caller: f.owner.addr, Nonce: 1}), http.StatusUnauthorized},
		{"signed by someone else", "/pause", mustJSON(t, forged), http.StatusUnauthorized},
		{"tampered payload", "/tasks/1/funds", mustJSON(t, tampered), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader(tt.body)))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
	assert.False(t, f.reg.GetState().Paused)
}

func TestEnvelope_ReplayedNonce_Conflict(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)

	env, err := SignEnvelope(f.owner.addr, 100, struct{}{}, f.owner.key)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, f.postEnvelope(t, "/pause", env).Code)

	w := f.postEnvelope(t, "/unpause", env)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, f.reg.GetState().Paused)
}

func TestEnvelope_MissingPayload_BadRequest(t *testing.T) {
	f := newAPIFixture(t)
	env, err := SignEnvelope(f.owner.addr, 1, nil, f.owner.key)
	require.NoError(t, err)
	require.NoError(t, env.Verify())

	w := f.postEnvelope(t, "/payees", env)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestTransmit_EndToEnd_PaysTransmitter(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	id := f.registerFunded(t, oneToken)

	w := f.post(t, "/transmit", f.transmitters[0], f.transmitPayload(t, id))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Items []struct {
			TaskID  uint64 `json:"task_id"`
			Outcome string `json:"outcome"`
		} `json:"items"`
	}
	decode(t, w, &result)
	require.Len(t, result.Items, 1)
	assert.Equal(t, id, result.Items[0].TaskID)
	assert.Equal(t, "performed", result.Items[0].Outcome)

	task, err := f.reg.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, -1, task.Balance.Cmp(oneToken))

	info, err := f.reg.GetTransmitterInfo(f.transmitters[0].addr)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Balance.Sign())
}

func TestTransmit_NotATransmitter_Forbidden(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	id := f.registerFunded(t, oneToken)

	w := f.post(t, "/transmit", newAccount(t), f.transmitPayload(t, id))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTransmit_BadSignatureBytes_BadRequest(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	p := f.transmitPayload(t)
	p.Signatures = []hexutil.Bytes{{0x01, 0x02}}

	w := f.post(t, "/transmit", f.transmitters[0], p)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskLifecycle_AdminRoutes(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	id := f.registerFunded(t, oneToken)
	path := "/tasks/" + u64(id)

	require.Equal(t, http.StatusOK, f.post(t, path+"/gas-limit", f.owner, GasLimitPayload{GasLimit: 200_000}).Code)
	require.Equal(t, http.StatusOK, f.post(t, path+"/check-data", f.owner, DataPayload{Data: []byte{0xab}}).Code)
	require.Equal(t, http.StatusOK, f.post(t, path+"/pause", f.owner, struct{}{}).Code)
	assert.Equal(t, http.StatusConflict, f.post(t, path+"/pause", f.owner, struct{}{}).Code)
	require.Equal(t, http.StatusOK, f.post(t, path+"/unpause", f.owner, struct{}{}).Code)

	var task types.Task
	decode(t, f.get(path), &task)
	assert.Equal(t, uint32(200_000), task.ExecuteGasLimit)
	assert.Equal(t, []byte{0xab}, task.CheckData)
	assert.False(t, task.Paused)

	newAdmin := newAccount(t)
	require.Equal(t, http.StatusOK, f.post(t, path+"/admin/transfer", f.owner, ProposalPayload{Proposed: newAdmin.addr}).Code)
	require.Equal(t, http.StatusOK, f.post(t, path+"/admin/accept", newAdmin, struct{}{}).Code)
	decode(t, f.get(path), &task)
	assert.Equal(t, newAdmin.addr, task.Admin)

	w := f.post(t, path+"/cancel", newAdmin, struct{}{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ids struct {
		TaskIDs []uint64 `json:"task_ids"`
	}
	decode(t, f.get("/tasks"), &ids)
	assert.Empty(t, ids.TaskIDs)
}

func TestViews_ListAndQuote(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	first := f.registerFunded(t, new(big.Int))
	second := f.registerFunded(t, new(big.Int))

	var ids struct {
		TaskIDs []uint64 `json:"task_ids"`
	}
	decode(t, f.get("/tasks?trigger_type=condition"), &ids)
	assert.Equal(t, []uint64{first, second}, ids.TaskIDs)
	decode(t, f.get("/tasks?start=1&max=1"), &ids)
	assert.Equal(t, []uint64{second}, ids.TaskIDs)
	decode(t, f.get("/tasks?trigger_type=log"), &ids)
	assert.Empty(t, ids.TaskIDs)

	w := f.get("/max-payment?trigger_type=condition&gas_limit=100000")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var quote struct {
		MaxPayment string `json:"max_payment"`
	}
	decode(t, w, &quote)
	amount, ok := new(big.Int).SetString(quote.MaxPayment, 10)
	require.True(t, ok)
	assert.Equal(t, 1, amount.Sign())

	w = f.get("/tasks/" + u64(first) + "/min-balance")
	require.Equal(t, http.StatusOK, w.Code)

	var st types.State
	decode(t, f.get("/state"), &st)
	assert.Equal(t, 2, st.NumTasks)
	assert.Equal(t, f.owner.addr, st.Owner)
}

func TestErrorStatus_ByKind(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	stranger := newAccount(t)

	tests := []struct {
		name   string
		do     func() *httptest.ResponseRecorder
		status int
	}{
		{"unauthorized pause", func() *httptest.ResponseRecorder { return f.post(t, "/pause", stranger, struct{}{}) }, http.StatusForbidden},
		{"unknown task", func() *httptest.ResponseRecorder { return f.get("/tasks/99") }, http.StatusNotFound},
		{"bad task id", func() *httptest.ResponseRecorder { return f.get("/tasks/abc") }, http.StatusBadRequest},
		{"unknown transmitter", func() *httptest.ResponseRecorder { return f.get("/transmitters/" + stranger.addr.Hex()) }, http.StatusNotFound},
		{"bad address", func() *httptest.ResponseRecorder { return f.get("/transmitters/xyz") }, http.StatusBadRequest},
		{"unknown signer", func() *httptest.ResponseRecorder { return f.get("/signers/" + stranger.addr.Hex()) }, http.StatusNotFound},
		{"unpause when running", func() *httptest.ResponseRecorder { return f.post(t, "/unpause", f.owner, struct{}{}) }, http.StatusConflict},
		{"bad amount", func() *httptest.ResponseRecorder {
			return f.post(t, "/tasks/1/funds", f.owner, AmountPayload{Amount: "-5"})
		}, http.StatusBadRequest},
		{"quote without trigger type", func() *httptest.ResponseRecorder { return f.get("/max-payment") }, http.StatusBadRequest},
		{"unknown peer", func() *httptest.ResponseRecorder {
			return f.post(t, "/migrate", f.owner, MigratePayload{Peer: stranger.addr, TaskIDs: []uint64{1}})
		}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.do()
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestStatusFor_Kinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{regerrors.ErrOnlyCallableByOwner, http.StatusForbidden},
		{regerrors.ErrRegistryPaused, http.StatusConflict},
		{regerrors.ErrConfigDigestMismatch, http.StatusBadRequest},
		{regerrors.ErrInvalidPayee, http.StatusBadRequest},
		{regerrors.ErrInsufficientBalance, http.StatusBadRequest},
		{regerrors.ErrTaskNotFound, http.StatusNotFound},
		{regerrors.ErrTransferFailed, http.StatusBadGateway},
		{regerrors.ErrSubstrateAborted, http.StatusBadGateway},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestOwnerRoutes_PayeeshipAndWithdraw(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	id := f.registerFunded(t, oneToken)
	require.Equal(t, http.StatusOK, f.post(t, "/transmit", f.transmitters[1], f.transmitPayload(t, id)).Code)

	// the configured payee has no key, so hand payeeship to one that does
	tr := f.transmitters[1].addr.Hex()
	payee := newAccount(t)
	require.NoError(t, f.reg.TransferPayeeship(context.Background(), common.BytesToAddress([]byte{0x90, 0x02}), f.transmitters[1].addr, payee.addr))
	require.Equal(t, http.StatusOK, f.post(t, "/transmitters/"+tr+"/payeeship/accept", payee, struct{}{}).Code)

	to := newAccount(t).addr
	w := f.post(t, "/transmitters/"+tr+"/withdraw", payee, RecipientPayload{To: to})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance, err := f.token.BalanceOf(context.Background(), to)
	require.NoError(t, err)
	assert.Equal(t, 1, balance.Sign())

	w = f.post(t, "/owner/recover", f.owner, struct{}{})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.post(t, "/owner/withdraw", f.owner, struct{}{})
	require.Equal(t, http.StatusOK, w.Code)

	next := newAccount(t)
	require.Equal(t, http.StatusOK, f.post(t, "/ownership/transfer", f.owner, ProposalPayload{Proposed: next.addr}).Code)
	require.Equal(t, http.StatusOK, f.post(t, "/ownership/accept", next, struct{}{}).Code)
	assert.Equal(t, next.addr, f.reg.GetState().Owner)
}

func TestMigrate_BetweenServedRegistries(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	id := f.registerFunded(t, oneToken)

	peerAddr := common.HexToAddress("0x00000000000000000000000000000000000000ef")
	peer := f.newRegistry(t, peerAddr)
	f.srv.AddPeer(peer)

	require.Equal(t, http.StatusOK, f.post(t, "/peers/"+peerAddr.Hex()+"/permission", f.owner, PermissionPayload{Permission: uint8(types.PermissionOutgoing)}).Code)
	require.NoError(t, peer.SetPeerPermission(context.Background(), f.owner.addr, f.reg.Address(), types.PermissionIncoming))

	var perm struct {
		Outgoing bool `json:"outgoing"`
	}
	decode(t, f.get("/peers/"+peerAddr.Hex()+"/permission"), &perm)
	assert.True(t, perm.Outgoing)

	w := f.post(t, "/migrate", f.owner, MigratePayload{Peer: peerAddr, TaskIDs: []uint64{id}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err := f.reg.GetTask(id)
	assert.ErrorIs(t, err, regerrors.ErrTaskNotFound)
	moved, err := peer.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Balance.Cmp(oneToken))
}

func TestNonceTracker_StrictlyIncreasing(t *testing.T) {
	n := NewNonceTracker()
	caller := common.HexToAddress("0x01")

	assert.ErrorIs(t, n.Use(caller, 0), ErrStaleNonce)
	require.NoError(t, n.Use(caller, 1))
	require.NoError(t, n.Use(caller, 5))
	assert.ErrorIs(t, n.Use(caller, 5), ErrStaleNonce)
	assert.ErrorIs(t, n.Use(caller, 4), ErrStaleNonce)
	assert.Equal(t, uint64(5), n.Last(caller))
	require.NoError(t, n.Use(common.HexToAddress("0x02"), 1))
}

func TestViews_CheckAndSimulate(t *testing.T) {
	f := newAPIFixture(t)
	f.configure(t)
	funded := f.registerFunded(t, big.NewInt(1_000_000_000_000_000_000))
	empty := f.registerFunded(t, new(big.Int))

	var check types.CheckResult
	decode(t, f.get("/tasks/"+u64(funded)+"/check"), &check)
	assert.True(t, check.Eligible)
	assert.Equal(t, types.CheckFailureNone, check.FailureReason)

	w := f.get("/tasks/" + u64(empty) + "/check")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var raw struct {
		Eligible      bool   `json:"eligible"`
		FailureReason string `json:"failure_reason"`
	}
	decode(t, w, &raw)
	assert.False(t, raw.Eligible)
	assert.Equal(t, "insufficient_balance", raw.FailureReason)

	w = f.get("/tasks/" + u64(funded) + "/check?trigger=zz")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.get("/tasks/" + u64(funded) + "/simulate?perform_data=0xaa")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sim types.SimulateResult
	decode(t, w, &sim)
	assert.True(t, sim.Success)
	assert.Equal(t, funded, sim.TaskID)

	w = f.get("/tasks/99/simulate")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
