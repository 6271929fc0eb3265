package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/triggerx-registry/internal/registry/api"
	"github.com/trigg3rX/triggerx-registry/internal/registry/core/report"
	"github.com/trigg3rX/triggerx-registry/pkg/env"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
	"github.com/trigg3rX/triggerx-registry/pkg/yaml"
)

// ReportFile describes a report to encode. Prices are decimal strings, triggers and
// perform data are 0x hex.
type ReportFile struct {
	FastGasWei   string   `yaml:"fast_gas_wei"`
	LinkNative   string   `yaml:"link_native"`
	TaskIDs      []uint64 `yaml:"task_ids"`
	Triggers     []string `yaml:"triggers"`
	PerformDatas []string `yaml:"perform_datas"`
}

var contextFlags = []cli.Flag{
	&cli.StringFlag{Name: "report", Usage: "Encoded report as 0x hex", Required: true},
	&cli.StringFlag{Name: "config-digest", Usage: "Config digest of the active configuration", Required: true},
	&cli.Uint64Flag{Name: "epoch", Usage: "Report epoch"},
	&cli.Uint64Flag{Name: "round", Usage: "Report round"},
	&cli.StringFlag{Name: "extra-hash", Usage: "Extra hash bound into the signature", Value: common.Hash{}.Hex()},
}

func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:   "keygen",
		Usage:  "Generate a secp256k1 key for a signer, transmitter or API caller",
		Action: keygen,
	}
}

func keygen(c *cli.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	return printJSON(c, map[string]string{
		"address":     crypto.PubkeyToAddress(key.PublicKey).Hex(),
		"private_key": hexutil.Encode(crypto.FromECDSA(key)),
	})
}

func EncodeReportCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode-report",
		Usage: "Encode a report described in a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "Path to the report file (<NAME>.yaml)", Required: true},
		},
		Action: encodeReport,
	}
}

func encodeReport(c *cli.Context) error {
	var file ReportFile
	if err := yaml.LoadYAML(c.String("file"), &file); err != nil {
		return err
	}
	r, err := file.Report()
	if err != nil {
		return err
	}
	raw, err := report.Encode(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, hexutil.Encode(raw))
	return err
}

// Report converts the file into a report.
func (f *ReportFile) Report() (*types.Report, error) {
	gas, ok := types.ParseAmount(f.FastGasWei)
	if !ok {
		return nil, fmt.Errorf("invalid fast_gas_wei: %q", f.FastGasWei)
	}
	link, ok := types.ParseAmount(f.LinkNative)
	if !ok {
		return nil, fmt.Errorf("invalid link_native: %q", f.LinkNative)
	}
	if len(f.Triggers) != len(f.TaskIDs) || len(f.PerformDatas) != len(f.TaskIDs) {
		return nil, fmt.Errorf("task_ids, triggers and perform_datas must have the same length")
	}
	r := &types.Report{
		FastGasWei:   gas,
		LinkNative:   link,
		TaskIDs:      f.TaskIDs,
		Triggers:     make([][]byte, len(f.Triggers)),
		PerformDatas: make([][]byte, len(f.PerformDatas)),
	}
	for i := range f.TaskIDs {
		var err error
		if r.Triggers[i], err = decodeHex(f.Triggers[i]); err != nil {
			return nil, fmt.Errorf("invalid triggers[%d]: %w", i, err)
		}
		if r.PerformDatas[i], err = decodeHex(f.PerformDatas[i]); err != nil {
			return nil, fmt.Errorf("invalid perform_datas[%d]: %w", i, err)
		}
	}
	return r, nil
}

func DigestCommand() *cli.Command {
	return &cli.Command{
		Name:   "digest",
		Usage:  "Print the digest signers sign for a report",
		Flags:  contextFlags,
		Action: digest,
	}
}

func digest(c *cli.Context) error {
	ctx, raw, err := reportInput(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, report.Digest(ctx, raw).Hex())
	return err
}

func SignReportCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign-report",
		Usage: "Sign a report with one or more signer keys",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{Name: "key", Usage: "Signer private key as hex, repeatable", Required: true},
		}, contextFlags...),
		Action: signReport,
	}
}

func signReport(c *cli.Context) error {
	ctx, raw, err := reportInput(c)
	if err != nil {
		return err
	}
	keys := make([]*ecdsa.PrivateKey, 0, len(c.StringSlice("key")))
	for i, k := range c.StringSlice("key") {
		key, err := parseKey(k)
		if err != nil {
			return fmt.Errorf("invalid key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	sigs, err := report.Sign(ctx, raw, keys)
	if err != nil {
		return err
	}
	out := make([]string, len(sigs))
	for i, s := range sigs {
		out[i] = hexutil.Encode(s.Bytes())
	}
	return printJSON(c, map[string]interface{}{
		"digest":     report.Digest(ctx, raw).Hex(),
		"signatures": out,
	})
}

func SignEnvelopeCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign-envelope",
		Usage: "Wrap a JSON payload in a signed API request",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Usage: "Caller private key as hex", Required: true},
			&cli.Uint64Flag{Name: "nonce", Usage: "Caller nonce, strictly increasing per caller", Required: true},
			&cli.StringFlag{Name: "payload", Usage: "Request payload as JSON", Value: "{}"},
		},
		Action: signEnvelope,
	}
}

func signEnvelope(c *cli.Context) error {
	key, err := parseKey(c.String("key"))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	var payload json.RawMessage
	if err := json.Unmarshal([]byte(c.String("payload")), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	envelope, err := api.SignEnvelope(crypto.PubkeyToAddress(key.PublicKey), c.Uint64("nonce"), payload, hexutil.Encode(crypto.FromECDSA(key)))
	if err != nil {
		return err
	}
	return printJSON(c, envelope)
}

func reportInput(c *cli.Context) (types.ReportContext, []byte, error) {
	raw, err := decodeHex(c.String("report"))
	if err != nil {
		return types.ReportContext{}, nil, fmt.Errorf("invalid report: %w", err)
	}
	configDigest, err := parseHash(c.String("config-digest"))
	if err != nil {
		return types.ReportContext{}, nil, fmt.Errorf("invalid config digest: %w", err)
	}
	extra, err := parseHash(c.String("extra-hash"))
	if err != nil {
		return types.ReportContext{}, nil, fmt.Errorf("invalid extra hash: %w", err)
	}
	if c.Uint64("epoch") > math.MaxUint32 || c.Uint64("round") > math.MaxUint8 {
		return types.ReportContext{}, nil, fmt.Errorf("epoch or round out of range")
	}
	return types.ReportContext{
		ConfigDigest: configDigest,
		Epoch:        uint32(c.Uint64("epoch")),
		Round:        uint8(c.Uint64("round")),
		ExtraHash:    extra,
	}, raw, nil
}

func parseKey(s string) (*ecdsa.PrivateKey, error) {
	if !env.IsValidPrivateKey(s) {
		return nil, fmt.Errorf("expected 32 bytes of hex")
	}
	return crypto.HexToECDSA(strings.TrimPrefix(s, "0x"))
}

func decodeHex(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("expected %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
