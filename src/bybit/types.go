package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
)

// -----------------------------------------------------------------------------
// REST Response Types (Bybit v5)
// -----------------------------------------------------------------------------

type tickerPriceResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

type walletBalanceResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Balance []struct {
			Coin            string `json:"coin"`
			TransferBalance string `json:"transferBalance"`
			WalletBalance   string `json:"walletBalance"`
			Locked          string `json:"locked"`
		} `json:"balance"`
	} `json:"result"`
}

// -----------------------------------------------------------------------------
// Stream Message Types
// -----------------------------------------------------------------------------

type tickerStreamResponse struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
		Ts        int64  `json:"ts"`
	} `json:"data"`
	TsOuter int64 `json:"ts"`
}

type streamCommand struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// -----------------------------------------------------------------------------
// Request Signing
// -----------------------------------------------------------------------------

// signV5 creates the Bybit v5 HMAC SHA256 signature over
// timestamp + apiKey + recvWindow + canonical query string.
func signV5(apiKey, secret string, query url.Values, timestamp, recvWindow string) string {
	var keys []string
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var encoded string
	for i, k := range keys {
		if i > 0 {
			encoded += "&"
		}
		encoded += fmt.Sprintf("%s=%s", k, query.Get(k))
	}

	payload := timestamp + apiKey + recvWindow + encoded
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
