package push

import (
	"errors"
	"fmt"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// vapidPrivateKeyLength はP-256秘密鍵のバイト長。
const vapidPrivateKeyLength = 32

// ErrVAPIDNotConfigured はVAPID鍵ペアが設定されていないことを表す。
var ErrVAPIDNotConfigured = errors.New("VAPID鍵が設定されていません")

// VAPIDKeys はプロセス全体で共有する送信者の署名用鍵ペア。
// 公開鍵はクライアントにも埋め込まれ、秘密鍵はディスパッチャーだけが保持する。
type VAPIDKeys struct {
	// PublicKey はURLセーフbase64の公開鍵。
	PublicKey string
	// PrivateKey はURLセーフbase64の秘密鍵。
	PrivateKey string
	// Subject は連絡先（mailto: またはURL）。
	Subject string
}

// Validate は鍵ペアが揃っていて形式が正しいか検証する。
func (k VAPIDKeys) Validate() error {
	if k.PublicKey == "" || k.PrivateKey == "" {
		return ErrVAPIDNotConfigured
	}
	if _, err := DecodeApplicationServerKey(k.PublicKey); err != nil {
		return err
	}
	priv, err := DecodeKey(k.PrivateKey)
	if err != nil {
		return fmt.Errorf("VAPID秘密鍵のデコードに失敗: %w", err)
	}
	if len(priv) != vapidPrivateKeyLength {
		return fmt.Errorf("VAPID秘密鍵の形式が不正です: %dバイト", len(priv))
	}
	return nil
}

// SubscriberContact はwebpush-goに渡す連絡先を返す。
// webpush-goは先頭のmailto:を自動で付与するため取り除いておく。
func (k VAPIDKeys) SubscriberContact() string {
	return strings.TrimPrefix(k.Subject, "mailto:")
}

// GenerateVAPIDKeys は新しいVAPID鍵ペアを生成する。
func GenerateVAPIDKeys(subject string) (VAPIDKeys, error) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("VAPID鍵の生成に失敗: %w", err)
	}
	return VAPIDKeys{PublicKey: publicKey, PrivateKey: privateKey, Subject: subject}, nil
}
