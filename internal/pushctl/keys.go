package pushctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

func newKeysCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "VAPID鍵ペアを生成する",
		Long:  "新しいVAPID鍵ペアを生成し、.envにそのまま貼り付けられる形式で出力する。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := push.GenerateVAPIDKeys(subject)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", keys.PublicKey)
			fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", keys.PrivateKey)
			fmt.Fprintf(out, "VAPID_SUBJECT=%s\n", keys.Subject)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "mailto:admin@gengkubur.com", "プッシュサービスに伝える連絡先 (mailto: または https:)")
	return cmd
}
