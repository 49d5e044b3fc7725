package httpclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testPayload はテスト用のリクエスト/レスポンスペイロード。
type testPayload struct {
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
	// Value はテスト用の値フィールド。
	Value int `json:"value"`
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("既定のタイムアウトが30秒に設定されていること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8086")
		if client.baseURL != "http://localhost:8086" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8086")
		}
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
		if client.streamClient.Timeout != 0 {
			t.Errorf("ストリーム用のTimeout = %v, want 0", client.streamClient.Timeout)
		}
	})

	t.Run("オプションでタイムアウトとトークンを設定できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8086", WithTimeout(5*time.Second), WithBearerToken("token-1"))
		if client.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.httpClient.Timeout)
		}
		if client.bearerToken != "token-1" {
			t.Errorf("bearerToken = %q, want token-1", client.bearerToken)
		}
	})
}

// TestPostJSON はPostJSON関数を検証する。
func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("ボディとヘッダーを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var (
			gotMethod string
			gotPath   string
			gotAuth   string
			gotType   string
			gotBody   testPayload
		)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(testPayload{Name: "response", Value: 201})
		}))
		defer ts.Close()

		client := New(ts.URL, WithBearerToken("admin-token"))
		var result testPayload
		if err := client.PostJSON(context.Background(), "/api/v1/push/send", testPayload{Name: "request", Value: 1}, &result); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}

		if gotMethod != http.MethodPost {
			t.Errorf("Method = %q, want POST", gotMethod)
		}
		if gotPath != "/api/v1/push/send" {
			t.Errorf("Path = %q", gotPath)
		}
		if gotAuth != "Bearer admin-token" {
			t.Errorf("Authorization = %q", gotAuth)
		}
		if gotType != "application/json" {
			t.Errorf("Content-Type = %q", gotType)
		}
		if gotBody.Name != "request" {
			t.Errorf("送信したName = %q, want request", gotBody.Name)
		}
		if result.Value != 201 {
			t.Errorf("result.Value = %d, want 201", result.Value)
		}
	})

	t.Run("resultがnilの場合はレスポンスをデコードしないこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer ts.Close()

		if err := New(ts.URL).PostJSON(context.Background(), "/", nil, nil); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
	})

	t.Run("シリアライズできないボディはエラーになること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1")
		if err := client.PostJSON(context.Background(), "/", make(chan int), nil); err == nil {
			t.Fatal("PostJSON()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestStatusError は2xx以外の応答がStatusErrorになることを検証する。
func TestStatusError(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError} {
		t.Run(fmt.Sprintf("ステータス%dがStatusErrorとして返ること", status), func(t *testing.T) {
			t.Parallel()

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"error":"x"}`))
			}))
			defer ts.Close()

			err := New(ts.URL).GetJSON(context.Background(), "/", &testPayload{})
			code, ok := StatusCode(err)
			if !ok {
				t.Fatalf("StatusErrorではない: %v", err)
			}
			if code != status {
				t.Errorf("StatusCode = %d, want %d", code, status)
			}
			var se *StatusError
			if errors.As(err, &se) && !strings.Contains(se.Body, "error") {
				t.Errorf("Body = %q", se.Body)
			}
		})
	}

	t.Run("接続エラーはStatusErrorではないこと", func(t *testing.T) {
		t.Parallel()

		err := New("http://127.0.0.1:1").GetJSON(context.Background(), "/", nil)
		if err == nil {
			t.Fatal("エラーが返されなかった")
		}
		if _, ok := StatusCode(err); ok {
			t.Error("接続エラーがStatusErrorとして扱われた")
		}
	})
}

// TestDeleteJSON はDeleteJSON関数を検証する。
func TestDeleteJSON(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotBody testPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	if err := New(ts.URL).DeleteJSON(context.Background(), "/", testPayload{Name: "endpoint"}, nil); err != nil {
		t.Fatalf("DeleteJSON()でエラーが発生: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("Method = %q, want DELETE", gotMethod)
	}
	if gotBody.Name != "endpoint" {
		t.Errorf("Name = %q", gotBody.Name)
	}
}

// TestStream はStream関数を検証する。
func TestStream(t *testing.T) {
	t.Parallel()

	t.Run("イベントストリームを逐次読み取れること", func(t *testing.T) {
		t.Parallel()

		var gotAccept string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: INSERT\ndata: {}\n\n")
		}))
		defer ts.Close()

		body, err := New(ts.URL).Stream(context.Background(), "/api/v1/realtime/public:notifications")
		if err != nil {
			t.Fatalf("Stream()でエラーが発生: %v", err)
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		if !scanner.Scan() || scanner.Text() != "event: INSERT" {
			t.Errorf("1行目 = %q", scanner.Text())
		}
		if gotAccept != "text/event-stream" {
			t.Errorf("Accept = %q", gotAccept)
		}
	})

	t.Run("2xx以外はStatusErrorになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		body, err := New(ts.URL).Stream(context.Background(), "/")
		if err == nil {
			body.Close()
			t.Fatal("エラーが返されなかった")
		}
		if code, _ := StatusCode(err); code != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want 401", code)
		}
	})

	t.Run("ストリームの終端でEOFになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "data: x\n\n")
		}))
		defer ts.Close()

		body, err := New(ts.URL).Stream(context.Background(), "/")
		if err != nil {
			t.Fatalf("Stream()でエラーが発生: %v", err)
		}
		defer body.Close()
		b, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("ReadAll()でエラーが発生: %v", err)
		}
		if string(b) != "data: x\n\n" {
			t.Errorf("body = %q", string(b))
		}
	})
}

// TestWithUserID はWithUserID関数を検証する。
func TestWithUserID(t *testing.T) {
	t.Parallel()

	t.Run("コンテキストのユーザーIDがX-User-IDヘッダーに伝播すること", func(t *testing.T) {
		t.Parallel()

		var receivedUserID string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedUserID = r.Header.Get("X-User-ID")
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		ctx := WithUserID(context.Background(), "propagated-user-id")
		if err := New(ts.URL).PostJSON(ctx, "/", testPayload{}, nil); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
		if receivedUserID != "propagated-user-id" {
			t.Errorf("X-User-ID = %q, want %q", receivedUserID, "propagated-user-id")
		}
	})

	t.Run("未設定の場合はX-User-IDヘッダーが空であること", func(t *testing.T) {
		t.Parallel()

		var receivedUserID string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedUserID = r.Header.Get("X-User-ID")
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		if err := New(ts.URL).GetJSON(context.Background(), "/", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if receivedUserID != "" {
			t.Errorf("X-User-ID = %q, want empty string", receivedUserID)
		}
	})
}
