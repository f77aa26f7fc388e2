package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentEscrow fires 20 concurrent peer-bet proposals of 100 credits
// against a 1,000-credit balance. Escrow is a conditional debit, so at most
// 10 can succeed, and the final balance must equal exactly the starting
// balance minus the escrowed stakes. Requests that lose the per-account
// transaction lock are rejected with 409 rather than queued; both outcomes
// keep the ledger consistent.
func TestConcurrentEscrow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	proposer := registerAccount(t, app, "escrowproposer")
	counterparty := registerAccount(t, app, "escrowcounterparty")

	concurrency := 20
	stake := int64(100)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var rejectedCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"counterparty_id":%q,"amount":%d}`, counterparty.accountID, stake)
			nonce := fmt.Sprintf("nonce-escrow-%d", idx)
			req := signedRequest(proposer, "POST", app.server.URL, "/api/v1/peerbets", body, nonce)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				rejectedCount.Add(1)
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict, http.StatusPaymentRequired:
				// Lost the tx lock, or the balance was exhausted.
				rejectedCount.Add(1)
			default:
				t.Errorf("unexpected status %d", r.StatusCode)
				rejectedCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	succeeded := successCount.Load()
	t.Logf("Concurrent escrow: %d succeeded, %d rejected (out of %d)", succeeded, rejectedCount.Load(), concurrency)

	assert.Equal(t, int64(concurrency), succeeded+rejectedCount.Load(), "all requests complete")
	assert.LessOrEqual(t, succeeded, int64(10), "escrow can never exceed the balance")

	// Final balance accounts for every escrowed stake and nothing else.
	req, _ := http.NewRequest("GET", app.server.URL+"/api/v1/account", nil)
	req.Header.Set("Authorization", "Bearer "+proposer.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Account struct {
				Balance int64 `json:"balance"`
			} `json:"account"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, int64(1_000)-succeeded*stake, result.Data.Account.Balance)
	assert.GreaterOrEqual(t, result.Data.Account.Balance, int64(0), "balance must never go negative")
}

// TestConcurrentNonceBurn sends the same signed request twice concurrently;
// at most one may pass the replay guard and reach settlement.
func TestConcurrentNonceBurn(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerAccount(t, app, "nonceburner")

	body := `{"stake":10}`
	var wg sync.WaitGroup
	var okCount atomic.Int64

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := signedRequest(creds, "POST", app.server.URL, "/api/v1/games/slots", body, "nonce-shared")
			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)
			if r.StatusCode == http.StatusOK {
				okCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, okCount.Load(), int64(1), "a nonce settles at most once")
}
