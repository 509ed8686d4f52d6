package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stamp-core/internal/bootstrap"
	"stamp-core/internal/event"
	"stamp-core/internal/service/mq"
	"stamp-core/pkg/config"
)

// eventsCmd 订阅 psbt.built 交接事件并逐条打印
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "订阅 PSBT 交接事件 (Online)",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		online()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb, err := bootstrap.Redis(ctx)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}
		consumer, err := bootstrap.Consumer(rdb, name)
		if err != nil {
			return err
		}
		defer consumer.Close()

		topic := config.Global.MQ.Topic
		fmt.Fprintf(cmd.OutOrStdout(), "👂 订阅 %s (%s), Ctrl+C 退出\n", topic, config.Global.MQ.Type)

		err = consumer.Subscribe(ctx, topic, func(msg *mq.Message) error {
			var evt event.PSBTBuiltEvent
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				// 格式错误的消息直接确认, 避免反复投递
				fmt.Fprintf(cmd.ErrOrStderr(), "跳过无法解析的消息 %s: %v\n", msg.ID, err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] txid=%s asset=%s source=%s size=%dvB fee=%d dust=%d payload=%d\n",
				msg.ID, evt.TxID, evt.Asset, evt.SourceAddress,
				evt.EstimatedSizeVb, evt.EstimatedMinerFee, evt.TotalDustValue, len(evt.PayloadAddresses))
			return nil
		})
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("name", "stamp-cli", "消费者名称 (Redis Streams)")
}
