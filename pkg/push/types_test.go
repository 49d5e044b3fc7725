package push

import (
	"errors"
	"testing"
)

// TestSubscriptionValidate は購読レコードの検証を確認する。
func TestSubscriptionValidate(t *testing.T) {
	t.Parallel()

	valid := Subscription{Endpoint: "https://push.example.com/abc", P256dh: "cDI1Ng==", Auth: "YXV0aA=="}

	t.Run("3フィールドが揃っていればエラーにならないこと", func(t *testing.T) {
		t.Parallel()

		if err := valid.Validate(); err != nil {
			t.Errorf("Validate()でエラーが発生: %v", err)
		}
	})

	t.Run("いずれかが空ならErrMalformedSubscriptionになること", func(t *testing.T) {
		t.Parallel()

		cases := []Subscription{
			{P256dh: valid.P256dh, Auth: valid.Auth},
			{Endpoint: valid.Endpoint, Auth: valid.Auth},
			{Endpoint: valid.Endpoint, P256dh: valid.P256dh},
		}
		for i, sub := range cases {
			if err := sub.Validate(); !errors.Is(err, ErrMalformedSubscription) {
				t.Errorf("case %d: got %v, want ErrMalformedSubscription", i, err)
			}
		}
	})
}

// TestPayload はペイロードの検証と既定値を確認する。
func TestPayload(t *testing.T) {
	t.Parallel()

	t.Run("WithDefaultsでアイコンと遷移先が補われること", func(t *testing.T) {
		t.Parallel()

		p := Payload{Title: "Promo", Message: "20% off"}.WithDefaults()
		if p.Icon != DefaultIcon {
			t.Errorf("Icon = %q, want %q", p.Icon, DefaultIcon)
		}
		if p.URL != DefaultURL {
			t.Errorf("URL = %q, want %q", p.URL, DefaultURL)
		}
	})

	t.Run("指定済みの値は上書きされないこと", func(t *testing.T) {
		t.Parallel()

		p := Payload{Title: "t", Message: "m", Icon: "/a.png", URL: "/booking"}.WithDefaults()
		if p.Icon != "/a.png" || p.URL != "/booking" {
			t.Errorf("got %+v", p)
		}
	})

	t.Run("タイトルかメッセージが空ならErrInvalidPayloadになること", func(t *testing.T) {
		t.Parallel()

		if err := (Payload{Message: "m"}).Validate(); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("title空: got %v", err)
		}
		if err := (Payload{Title: "t"}).Validate(); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("message空: got %v", err)
		}
	})
}

// TestVAPIDKeysValidate はVAPID鍵ペアの検証を確認する。
func TestVAPIDKeysValidate(t *testing.T) {
	t.Parallel()

	t.Run("生成した鍵ペアは検証を通ること", func(t *testing.T) {
		t.Parallel()

		keys, err := GenerateVAPIDKeys("mailto:admin@example.com")
		if err != nil {
			t.Fatalf("GenerateVAPIDKeys()でエラーが発生: %v", err)
		}
		if err := keys.Validate(); err != nil {
			t.Errorf("Validate()でエラーが発生: %v", err)
		}
		if got := keys.SubscriberContact(); got != "admin@example.com" {
			t.Errorf("SubscriberContact() = %q, want admin@example.com", got)
		}
	})

	t.Run("未設定ならErrVAPIDNotConfiguredになること", func(t *testing.T) {
		t.Parallel()

		if err := (VAPIDKeys{}).Validate(); !errors.Is(err, ErrVAPIDNotConfigured) {
			t.Errorf("got %v, want ErrVAPIDNotConfigured", err)
		}
	})
}
