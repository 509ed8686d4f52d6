package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stamp-core/pkg/config"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/wallet/types"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "stamp-cli",
	Short: "Bitcoin Stamps 交易构造命令行工具",
	Long: `离线: CIP33 编码/解码, 交易大小与费用估算。
在线 (读取 config.yaml): 构造铸造 PSBT, 查询费率, 订阅 PSBT 交接事件。`,
}

var networkFlag string

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "mainnet | testnet (默认取配置)")
}

// network resolves --network, falling back to bitcoin.network of the config.
func network() (types.Network, error) {
	if networkFlag != "" {
		return types.ParseNetwork(networkFlag)
	}
	return types.ParseNetwork(config.Global.Bitcoin.Network)
}

// online loads config and a quiet logger for commands that talk to upstreams.
func online() {
	config.Init()
	level := config.Global.App.LogLevel
	if level == "" || level == "debug" {
		level = "warn"
	}
	logger.Init(config.Global.App.Env, level)
}
