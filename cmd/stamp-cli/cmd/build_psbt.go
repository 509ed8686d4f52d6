package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stamp-core/internal/bootstrap"
	"stamp-core/internal/service/psbt"
	"stamp-core/pkg/wallet/types"
)

// buildPSBTCmd 在线构造铸造交易
var buildPSBTCmd = &cobra.Command{
	Use:   "build-psbt",
	Short: "构造未签名的铸造 PSBT (Online)",
	Long:  `编码文件, 向发行服务请求基础交易, 选币并输出待钱包签名的 PSBT。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		file, _ := cmd.Flags().GetString("file")
		asset, _ := cmd.Flags().GetString("asset")
		quantity, _ := cmd.Flags().GetUint64("quantity")
		divisible, _ := cmd.Flags().GetBool("divisible")
		locked, _ := cmd.Flags().GetBool("locked")
		description, _ := cmd.Flags().GetString("description")
		rate, _ := cmd.Flags().GetFloat64("fee-rate")
		outputFile, _ := cmd.Flags().GetString("output")

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("读取文件失败: %w", err)
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

		res, err := bootstrap.MintService(provider, net).Mint(context.Background(), psbt.MintRequest{
			SourceAddress: source,
			FileHex:       hex.EncodeToString(data),
			Asset:         asset,
			Quantity:      quantity,
			Divisible:     divisible,
			Locked:        locked,
			Description:   description,
			FeeRate:       types.SatPerVByte(rate),
		})
		if err != nil {
			return err
		}

		out, _ := json.MarshalIndent(res, "", "  ")
		if err := os.WriteFile(outputFile, out, 0644); err != nil {
			return fmt.Errorf("保存失败: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ PSBT 已构造!\ntxid: %s\n大小: %d vB, 矿工费: %d sat, 粉尘: %d sat\n文件: %s\n",
			res.PSBTData.UnsignedTransaction.TxID,
			res.PSBTData.EstimatedSizeVb,
			res.PSBTData.EstimatedMinerFee,
			res.PSBTData.TotalDustValue,
			outputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildPSBTCmd)

	buildPSBTCmd.Flags().String("source", "", "铸造方地址 (出资与找零)")
	buildPSBTCmd.Flags().StringP("file", "f", "", "stamp 文件")
	buildPSBTCmd.Flags().String("asset", "", "资产名")
	buildPSBTCmd.Flags().Uint64("quantity", 1, "发行数量")
	buildPSBTCmd.Flags().Bool("divisible", false, "是否可分割")
	buildPSBTCmd.Flags().Bool("locked", true, "是否锁定发行量")
	buildPSBTCmd.Flags().String("description", "", "发行描述 (默认 stamp:)")
	buildPSBTCmd.Flags().Float64("fee-rate", 0, "费率 sat/vB")
	buildPSBTCmd.Flags().StringP("output", "o", "psbt.json", "输出文件")

	buildPSBTCmd.MarkFlagRequired("source")
	buildPSBTCmd.MarkFlagRequired("file")
	buildPSBTCmd.MarkFlagRequired("asset")
	buildPSBTCmd.MarkFlagRequired("fee-rate")
}
