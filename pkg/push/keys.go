package push

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// applicationServerKeyLength は非圧縮P-256公開鍵のバイト長。
const applicationServerKeyLength = 65

// EncodeKey は購読の生の鍵素材を保存用の標準base64テキストに変換する。
func EncodeKey(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeKey は保存された鍵テキストを生のバイト列に戻す。
// 標準base64とURLセーフbase64のどちらも、パディングの有無を問わず受け付ける。
func DecodeKey(s string) ([]byte, error) {
	normalized := strings.TrimRight(strings.TrimSpace(s), "=")
	normalized = strings.NewReplacer("-", "+", "_", "/").Replace(normalized)
	raw, err := base64.RawStdEncoding.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("鍵のデコードに失敗: %w", err)
	}
	return raw, nil
}

// DecodeApplicationServerKey はURLセーフbase64のVAPID公開鍵を
// pushManager.subscribeに渡す生のバイト列に変換する。
func DecodeApplicationServerKey(publicKey string) ([]byte, error) {
	raw, err := DecodeKey(publicKey)
	if err != nil {
		return nil, err
	}
	if len(raw) != applicationServerKeyLength || raw[0] != 0x04 {
		return nil, fmt.Errorf("VAPID公開鍵の形式が不正です: %dバイト", len(raw))
	}
	return raw, nil
}
