package psbt

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"stamp-core/internal/event"
	"stamp-core/internal/service"
	"stamp-core/internal/service/mq"
	"stamp-core/pkg/cip33"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/wallet/types"
)

// DefaultDescription marks an issuance whose file lives in CIP33 outputs.
const DefaultDescription = "stamp:"

// MintRequest is everything needed to mint one stamp.
type MintRequest struct {
	SourceAddress string            `json:"source_address"`
	FileHex       string            `json:"file_hex"`
	Asset         string            `json:"asset"`
	Quantity      uint64            `json:"quantity"`
	Divisible     bool              `json:"divisible"`
	Locked        bool              `json:"locked"`
	Description   string            `json:"description"`
	FeeRate       types.SatPerVByte `json:"fee_rate"`
}

// MintResult is the PSBT plus the payload addresses it carries.
type MintResult struct {
	PSBTData         *types.PSBTData `json:"psbt_data"`
	PayloadAddresses []string        `json:"payload_addresses"`
}

type ServiceFee struct {
	Amount  uint64
	Address string
}

type ServiceOption func(*Service)

// WithProducer publishes a PSBTBuiltEvent for every Mint.
func WithProducer(p mq.Producer, topic string) ServiceOption {
	return func(s *Service) {
		s.producer = p
		s.topic = topic
	}
}

// Service runs the mint pipeline: CIP33 encode, base transaction from the
// issuance service, then Builder.Build.
type Service struct {
	builder    *Builder
	issuance   service.IssuanceService
	network    types.Network
	serviceFee ServiceFee
	producer   mq.Producer
	topic      string
}

func NewService(builder *Builder, issuance service.IssuanceService, network types.Network, fee ServiceFee, opts ...ServiceOption) *Service {
	s := &Service{
		builder:    builder,
		issuance:   issuance,
		network:    network,
		serviceFee: fee,
		producer:   mq.NopProducer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint builds the PSBT and hands it off. A failed hand-off is logged, the PSBT
// is still returned.
func (s *Service) Mint(ctx context.Context, req MintRequest) (*MintResult, error) {
	res, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}

	evt := event.PSBTBuiltEvent{
		TxID:              res.PSBTData.UnsignedTransaction.TxID,
		SourceAddress:     req.SourceAddress,
		Asset:             req.Asset,
		PSBT:              res.PSBTData.UnsignedTransaction.PSBT,
		FeeRateSatVb:      float64(req.FeeRate),
		EstimatedSizeVb:   res.PSBTData.EstimatedSizeVb,
		EstimatedMinerFee: res.PSBTData.EstimatedMinerFee,
		TotalDustValue:    res.PSBTData.TotalDustValue,
		PayloadAddresses:  res.PayloadAddresses,
		CreatedAt:         time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(evt)
	if err == nil {
		err = s.producer.Publish(ctx, s.topic, req.SourceAddress, payload)
	}
	if err != nil {
		logger.Error("psbt.built 事件发布失败", zap.String("txid", evt.TxID), zap.Error(err))
	}
	return res, nil
}

// DryRun builds the PSBT without publishing it. The exact fee estimate uses it.
func (s *Service) DryRun(ctx context.Context, req MintRequest) (*types.PSBTData, error) {
	res, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.PSBTData, nil
}

func (s *Service) run(ctx context.Context, req MintRequest) (*MintResult, error) {
	fail := func(stage string, err error) error {
		return &TransactionBuildError{Stage: stage, SourceAddress: req.SourceAddress, FeeRate: req.FeeRate, Err: err}
	}

	if err := req.FeeRate.Validate(); err != nil {
		return nil, fail(StageValidate, err)
	}

	fileHex := strings.TrimPrefix(req.FileHex, "0x")
	addresses, err := cip33.Encode(fileHex, s.network)
	if err != nil {
		return nil, fail(StageEncode, err)
	}

	description := req.Description
	if description == "" {
		description = DefaultDescription
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	baseHex, err := s.issuance.CreateBaseTransaction(ctx, types.IssuanceRequest{
		Source:      req.SourceAddress,
		Asset:       req.Asset,
		Quantity:    quantity,
		Divisible:   req.Divisible,
		Locked:      req.Locked,
		Description: description,
	})
	if err != nil {
		return nil, fail(StageIssuance, fmt.Errorf("asset %s: %w", req.Asset, err))
	}

	data, err := s.builder.Build(ctx, BuildParams{
		PreviousTxHex:     baseHex,
		SourceAddress:     req.SourceAddress,
		FeeRate:           req.FeeRate,
		ServiceFee:        s.serviceFee.Amount,
		ServiceFeeAddress: s.serviceFee.Address,
		PayloadAddresses:  addresses,
		FileSize:          hex.DecodedLen(len(fileHex)),
	})
	if err != nil {
		return nil, err
	}
	return &MintResult{PSBTData: data, PayloadAddresses: addresses}, nil
}
