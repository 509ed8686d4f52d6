package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stamp-core/internal/bootstrap"
	"stamp-core/internal/service/estimator"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/fee"
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/wallet/types"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "估算交易大小与费用",
	Long: `不带 --address 时离线计算 (instant 阶段);
带 --address 时读取配置, 对钱包真实 UTXO 做选币 (smart 阶段)。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		txType, _ := cmd.Flags().GetString("type")
		file, _ := cmd.Flags().GetString("file")
		fileSize, _ := cmd.Flags().GetInt("file-size")
		inputs, _ := cmd.Flags().GetInt("inputs")
		outputs, _ := cmd.Flags().GetInt("outputs")
		rate, _ := cmd.Flags().GetFloat64("fee-rate")
		serviceFee, _ := cmd.Flags().GetUint64("service-fee")
		addr, _ := cmd.Flags().GetString("address")

		if file != "" {
			info, err := os.Stat(file)
			if err != nil {
				return err
			}
			fileSize = int(info.Size())
		}
		in := estimator.Input{
			TxType:        txsize.ParseTxType(txType),
			FileSize:      fileSize,
			OutputCount:   outputs,
			FeeRate:       types.SatPerVByte(rate),
			WalletAddress: addr,
		}

		if addr == "" {
			if err := in.FeeRate.Validate(); err != nil {
				return fmt.Errorf("离线估算需要 --fee-rate: %w", err)
			}
			return printJSON(cmd, offlineEstimate(in, inputs, serviceFee))
		}

		online()
		net, err := network()
		if err != nil {
			return err
		}
		provider, closeProvider, err := bootstrap.UTXOProvider(net)
		if err != nil {
			return err
		}
		defer closeProvider()

		c := cache.NewMemoryCache(0, 0)
		est := bootstrap.Estimator(net, bootstrap.Market(c), provider, c, nil)
		res, err := est.Estimate(context.Background(), "", estimator.PhaseSmart, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

type offlineResult struct {
	VSize      uint32            `json:"vsize"`
	FeeRate    types.SatPerVByte `json:"fee_rate"`
	MinerFee   uint64            `json:"miner_fee"`
	Dust       uint64            `json:"dust"`
	ServiceFee uint64            `json:"service_fee"`
	Total      uint64            `json:"total"`
	Payload    int               `json:"payload_outputs"`
}

func offlineEstimate(in estimator.Input, inputs int, serviceFee uint64) offlineResult {
	outputs := in.OutputCount + 1 // change
	if serviceFee > 0 {
		outputs++
	}
	vsize := txsize.Estimate(txsize.Params{
		InputCount:  inputs,
		OutputCount: outputs,
		TxType:      in.TxType,
		FileSize:    in.FileSize,
		HasWitness:  true,
	})

	r := offlineResult{
		VSize:      vsize,
		FeeRate:    in.FeeRate,
		MinerFee:   fee.MiningFee(vsize, in.FeeRate),
		ServiceFee: serviceFee,
	}
	if in.TxType != txsize.TxTypeSend {
		r.Dust = fee.Dust(in.FileSize)
		r.Payload = txsize.PayloadOutputCount(in.FileSize)
	}
	r.Total = r.MinerFee + r.Dust + r.ServiceFee
	return r
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringP("type", "t", "stamp", "交易类型: send | stamp | src20")
	estimateCmd.Flags().StringP("file", "f", "", "负载文件 (取其大小)")
	estimateCmd.Flags().Int("file-size", 0, "负载字节数")
	estimateCmd.Flags().Int("inputs", 1, "假定输入数量 (离线)")
	estimateCmd.Flags().Int("outputs", 0, "收款输出数量 (不含找零)")
	estimateCmd.Flags().Float64("fee-rate", 0, "费率 sat/vB (在线时 0 表示使用行情)")
	estimateCmd.Flags().Uint64("service-fee", 0, "服务费 sat (离线)")
	estimateCmd.Flags().String("address", "", "钱包地址, 指定时做在线选币估算")
}
