package push

import (
	"errors"
	"testing"
)

// TestVAPIDKeys はVAPID鍵ペアの生成と検証を確認する。
func TestVAPIDKeys(t *testing.T) {
	t.Parallel()

	t.Run("生成した鍵ペアは検証を通ること", func(t *testing.T) {
		t.Parallel()

		keys, err := GenerateVAPIDKeys("mailto:admin@gengkubur.com")
		if err != nil {
			t.Fatalf("GenerateVAPIDKeys()でエラーが発生: %v", err)
		}
		if err := keys.Validate(); err != nil {
			t.Errorf("Validate()でエラーが発生: %v", err)
		}
		if keys.Subject != "mailto:admin@gengkubur.com" {
			t.Errorf("Subject: got %s", keys.Subject)
		}
	})

	t.Run("鍵が空ならErrVAPIDNotConfiguredになること", func(t *testing.T) {
		t.Parallel()

		for _, keys := range []VAPIDKeys{{}, {PublicKey: "x"}, {PrivateKey: "x"}} {
			if err := keys.Validate(); !errors.Is(err, ErrVAPIDNotConfigured) {
				t.Errorf("%+v: got %v, want ErrVAPIDNotConfigured", keys, err)
			}
		}
	})

	t.Run("公開鍵と秘密鍵を取り違えるとエラーになること", func(t *testing.T) {
		t.Parallel()

		keys, err := GenerateVAPIDKeys("mailto:admin@gengkubur.com")
		if err != nil {
			t.Fatalf("GenerateVAPIDKeys()でエラーが発生: %v", err)
		}
		swapped := VAPIDKeys{PublicKey: keys.PrivateKey, PrivateKey: keys.PublicKey}
		if err := swapped.Validate(); err == nil {
			t.Error("エラーが返されるべき")
		}
	})

	t.Run("連絡先からmailto:を取り除くこと", func(t *testing.T) {
		t.Parallel()

		cases := map[string]string{
			"mailto:admin@gengkubur.com": "admin@gengkubur.com",
			"https://gengkubur.com":      "https://gengkubur.com",
		}
		for subject, want := range cases {
			if got := (VAPIDKeys{Subject: subject}).SubscriberContact(); got != want {
				t.Errorf("SubscriberContact(%s): got %s, want %s", subject, got, want)
			}
		}
	})
}

// TestSubscribeRequest は購読登録リクエストから購読への変換を確認する。
func TestSubscribeRequest(t *testing.T) {
	t.Parallel()

	req := SubscribeRequest{
		Endpoint: "https://push.example.com/abc",
		Keys:     SubscriptionKeys{P256dh: "cDI1Ng==", Auth: "YXV0aA=="},
		OwnerRef: "user-1",
	}
	want := Subscription{Endpoint: req.Endpoint, P256dh: "cDI1Ng==", Auth: "YXV0aA==", OwnerRef: "user-1"}
	if got := req.Subscription(); got != want {
		t.Errorf("Subscription(): got %+v, want %+v", got, want)
	}
}
