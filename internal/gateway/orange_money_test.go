package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"aidapay/internal/cache"
	"aidapay/internal/config"
)

func newOrangeTestServer(t *testing.T, tokenHits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v3/token":
			atomic.AddInt32(tokenHits, 1)
			if got := r.Header.Get("Authorization"); got != "Basic b20tdXNlcjpvbS1wYXNz" {
				t.Errorf("unexpected basic auth: %q", got)
			}
			w.Write([]byte(`{"access_token":"om-token","token_type":"Bearer","expires_in":3600}`))
		case "/webpayment/v3/pay":
			if got := r.Header.Get("Authorization"); got != "Bearer om-token" {
				t.Errorf("unexpected bearer: %q", got)
			}
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["merchant_key"] != "om-merchant" {
				t.Errorf("unexpected merchant key: %v", payload["merchant_key"])
			}
			if payload["notif_url"] != "https://app.example.com/aida/webhooks/orange-money" {
				t.Errorf("unexpected notif url: %v", payload["notif_url"])
			}
			if payload["lang"] != "fr" {
				t.Errorf("unexpected lang: %v", payload["lang"])
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"payment_url":"https://webpayment.orange.example/pay/tok-1","payment_token":"tok-1","status":201}`))
		case "/webpayment/v3/transaction/tok-1":
			w.Write([]byte(`{"status":"SUCCESS","amount":1500,"payment_token":"tok-1"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestOrangeMoney(apiURL string, store cache.Store) *OrangeMoneyGateway {
	cfg := config.GatewayConfig{
		Enabled:     true,
		APIURL:      apiURL,
		MerchantKey: "om-merchant",
		APIUsername: "om-user",
		APIPassword: "om-pass",
		Currency:    "XOF",
		CountryCode: "221",
	}
	return NewOrangeMoneyGateway(cfg, "shared-secret", "https://app.example.com", "aida/webhooks", store, nil)
}

func TestOrangeMoneyPayReusesCachedToken(t *testing.T) {
	var tokenHits int32
	srv := newOrangeTestServer(t, &tokenHits)
	defer srv.Close()

	g := newTestOrangeMoney(srv.URL, cache.NewMemoryStore())

	for i := 0; i < 3; i++ {
		res := g.Pay(context.Background(), "771234567", 1500, "", nil)
		if !res.Success || res.Status != StatusPending {
			t.Fatalf("pay %d: expected pending, got %+v", i, res)
		}
		if res.Raw["payment_url"] != "https://webpayment.orange.example/pay/tok-1" {
			t.Errorf("payment url missing: %v", res.Raw)
		}
	}

	if hits := atomic.LoadInt32(&tokenHits); hits != 1 {
		t.Errorf("token endpoint hit %d times, want 1", hits)
	}
}

func TestOrangeMoneyTokenSharedAcrossInstances(t *testing.T) {
	var tokenHits int32
	srv := newOrangeTestServer(t, &tokenHits)
	defer srv.Close()

	store := cache.NewMemoryStore()
	g1 := newTestOrangeMoney(srv.URL, store)
	g2 := newTestOrangeMoney(srv.URL, store)

	g1.Pay(context.Background(), "771234567", 1500, "", nil)
	g2.Pay(context.Background(), "771234567", 1500, "", nil)

	if hits := atomic.LoadInt32(&tokenHits); hits != 1 {
		t.Errorf("token endpoint hit %d times, want 1 across instances", hits)
	}
}

func TestOrangeMoneyCheckStatus(t *testing.T) {
	var tokenHits int32
	srv := newOrangeTestServer(t, &tokenHits)
	defer srv.Close()

	g := newTestOrangeMoney(srv.URL, cache.NewMemoryStore())
	res := g.CheckStatus(context.Background(), "tok-1")
	if !res.Success || res.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Amount != 1500 {
		t.Errorf("amount = %v", res.Amount)
	}
}

func TestOrangeMoneyVerifyWebhookUsesSharedSecret(t *testing.T) {
	g := newTestOrangeMoney("https://api.orange.example", cache.NewMemoryStore())
	body := []byte(`{"order_id":"ORANGE_MONEY_ABC","status":"SUCCESS"}`)

	if !g.VerifyWebhook(body, hmacHex("shared-secret", body)) {
		t.Fatal("valid signature rejected")
	}
	if g.VerifyWebhook(body, hmacHex("wrong", body)) {
		t.Fatal("forged signature accepted")
	}
}
