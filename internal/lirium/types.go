package lirium

// Fixed settlement constants of the girasol deposit flow.
const (
	USDCurrencyCode = 840
	MerchantCode    = "CFX"
	PaymentTypeTag  = "crypto"
)

// DepositOrder is the settlement payload posted for one swept deposit.
type DepositOrder struct {
	TxHash       string  `json:"txHash"`
	BlockNumber  uint64  `json:"blockNumber"`
	ERC20        string  `json:"erc20"`
	ChainID      string  `json:"chainId"`
	SweepHash    *string `json:"sweepHash"`
	Email        string  `json:"email"`
	Account      string  `json:"account"`
	Amount       float64 `json:"amount"`
	GasFee       float64 `json:"gasFee"`
	CurrencyCode int     `json:"currencyCode"`
	Merchant     string  `json:"merchant"`
	PaymentType  string  `json:"paymentType"`
}

// DepositOrderResponse is the send endpoint's body. Settlement succeeded
// only when the transport said 201 and the body agrees.
type DepositOrderResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      bool   `json:"error"`
	Message    string `json:"message,omitempty"`
}

func (r *DepositOrderResponse) Created() bool {
	return r != nil && r.StatusCode == 201 && !r.Error
}

type Asset struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type OrderRequest struct {
	CustomerID  string `json:"customer_id"`
	ReferenceID string `json:"reference_id"`
	Operation   string `json:"operation"`
	Asset       Asset  `json:"asset"`
	Sell        *Asset `json:"sell,omitempty"`
}

type OrderConfirmRequest struct {
	CustomerID string `json:"customer_id"`
	OrderID    string `json:"order_id"`
	Customer   *Asset `json:"customer,omitempty"`
}

type Order struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
	State     string `json:"state"`
	Asset     Asset  `json:"asset"`
}

type CustomerAccounts struct {
	Accounts []Asset `json:"accounts"`
}

type ReceivingAddress struct {
	Address   string `json:"address"`
	Network   string `json:"network"`
	Currency  string `json:"currency"`
	AssetType string `json:"asset_type"`
}

type CustomerProfile struct {
	Label       string `json:"label,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	MiddleName  string `json:"middle_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Citizenship string `json:"citizenship,omitempty"`
	Country     string `json:"country,omitempty"`
	Name        string `json:"name,omitempty"`
}

type CustomerContact struct {
	Email     string `json:"email"`
	Cellphone string `json:"cellphone,omitempty"`
}

type CreateCustomerRequest struct {
	Type        string          `json:"type"`
	ReferenceID string          `json:"reference_id"`
	Profile     CustomerProfile `json:"profile"`
	Contact     CustomerContact `json:"contact"`
}

type Customer struct {
	ID      string          `json:"id"`
	State   string          `json:"state"`
	Contact CustomerContact `json:"contact"`
}
