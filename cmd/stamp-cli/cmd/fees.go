package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"stamp-core/internal/bootstrap"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/wallet/types"
)

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "查询推荐费率与 BTC 价格 (Online)",
	RunE: func(cmd *cobra.Command, args []string) error {
		online()
		m := bootstrap.Market(cache.NewMemoryCache(0, 0))
		ctx := context.Background()

		out := struct {
			Fee   *types.FeeQuote   `json:"fee"`
			Price *types.PriceQuote `json:"price,omitempty"`
			Error string            `json:"price_error,omitempty"`
		}{}

		q, err := m.FeeQuote(ctx)
		if err != nil {
			return err
		}
		out.Fee = q
		// 价格失败不影响费率输出
		if p, err := m.PriceQuote(ctx); err == nil {
			out.Price = p
		} else {
			out.Error = err.Error()
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(feesCmd)
}
