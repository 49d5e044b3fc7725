// 通知サービスの管理用コマンドラインツール。
package main

import (
	"fmt"
	"os"

	"github.com/zulramsey7/GengKubur/internal/pushctl"
)

func main() {
	if err := pushctl.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
