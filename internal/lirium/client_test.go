package lirium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{
		BaseURL:   srv.URL,
		SendURL:   srv.URL + "/send",
		APIKey:    "key",
		SecretKey: "secret",
		CompanyID: "company-1",
	})
	return client, srv
}

func TestSendDepositSetsHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotOrder DepositOrder

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOrder))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(DepositOrderResponse{StatusCode: 201, Error: false})
	}))
	defer srv.Close()

	resp, err := client.SendDeposit(context.Background(), &DepositOrder{
		TxHash:       "0xabc",
		ChainID:      "10",
		Amount:       100,
		CurrencyCode: USDCurrencyCode,
		Merchant:     MerchantCode,
		PaymentType:  PaymentTypeTag,
	})
	require.NoError(t, err)
	require.True(t, resp.Created())

	require.Equal(t, "key", gotHeaders.Get("x-api-key"))
	require.Equal(t, "secret", gotHeaders.Get("x-secret-key"))
	require.Equal(t, "company-1", gotHeaders.Get("x-company-id"))
	require.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	require.NotEmpty(t, gotHeaders.Get("x-request-id"))

	require.Equal(t, "0xabc", gotOrder.TxHash)
	require.Equal(t, MerchantCode, gotOrder.Merchant)
}

func TestSendDepositBodyGatesSuccess(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(DepositOrderResponse{StatusCode: 400, Error: true, Message: "invalid account"})
	}))
	defer srv.Close()

	resp, err := client.SendDeposit(context.Background(), &DepositOrder{})
	require.NoError(t, err)
	require.False(t, resp.Created())
}

func TestSendDepositAPIError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"bad payload"}`))
	}))
	defer srv.Close()

	_, err := client.SendDeposit(context.Background(), &DepositOrder{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Contains(t, apiErr.Body, "bad payload")
	require.False(t, apiErr.Retryable())
}

func TestGetWallets(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/cust-1/receiving_addresses", r.URL.Path)
		_, _ = w.Write([]byte(`{"receiving_addresses":[{"address":"0x1","network":"optimism","currency":"USDC","asset_type":"erc20"}]}`))
	}))
	defer srv.Close()

	wallets, err := client.GetWallets(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	require.Equal(t, "optimism", wallets[0].Network)
}

func TestCreateCustomer(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/customers", r.URL.Path)
		var req CreateCustomerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(Customer{ID: "cust-9", State: "active", Contact: req.Contact})
	}))
	defer srv.Close()

	customer, err := client.CreateCustomer(context.Background(), &CreateCustomerRequest{
		Type:        "individual",
		ReferenceID: "user-1-170000",
		Contact:     CustomerContact{Email: "a@b.co"},
	})
	require.NoError(t, err)
	require.Equal(t, "cust-9", customer.ID)
	require.Equal(t, "a@b.co", customer.Contact.Email)
}
