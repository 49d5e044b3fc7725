// Package pushctl は通知サービスを操作するコマンドラインツール。
package pushctl

import "github.com/spf13/cobra"

// defaultServer は通知サービスの既定のURL。
const defaultServer = "http://localhost:8086"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pushctl",
		Short:         "Geng Kubur の通知サービスを操作する",
		Long:          "pushctl は通知サービスを運用するための管理用ツール。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newKeysCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newListenCmd())
	return cmd
}

// Execute はルートコマンドを実行する。
func Execute() error {
	return newRootCmd().Execute()
}
