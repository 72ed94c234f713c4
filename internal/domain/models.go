package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int       `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Network string

const (
	NetworkTRC20 Network = "TRC-20"
	NetworkERC20 Network = "ERC-20"
	NetworkBEP20 Network = "BEP-20"
)

var Networks = []Network{NetworkTRC20, NetworkERC20, NetworkBEP20}

func ParseNetwork(s string) (Network, bool) {
	for _, n := range Networks {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusSubmitted QuoteStatus = "submitted"
	QuoteStatusConfirmed QuoteStatus = "confirmed"
	QuoteStatusExpired   QuoteStatus = "expired"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusConfirmed || s == QuoteStatusExpired
}

type CartItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type Quote struct {
	ID             string          `db:"id"`
	UserID         int             `db:"user_id"`
	FiatAmount     decimal.Decimal `db:"fiat_amount"`
	FiatCurrency   string          `db:"fiat_currency"`
	Rate           decimal.Decimal `db:"rate"`
	RateProvider   string          `db:"rate_provider"`
	RateAt         time.Time       `db:"rate_at"`
	SpreadBps      int             `db:"spread_bps"`
	AmountUSDT     string          `db:"amount_usdt"`
	Network        Network         `db:"network"`
	Address        string          `db:"address"`
	Status         QuoteStatus     `db:"status"`
	TxHash         *string         `db:"tx_hash"`
	Cart           []CartItem      `db:"cart"`
	ReservationIDs []string        `db:"reservation_ids"`
	ExpiresAt      time.Time       `db:"expires_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// IsExpiredAt reports whether the quote validity window has closed at now.
func (q *Quote) IsExpiredAt(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

type Payment struct {
	ID             int64       `db:"id"`
	QuoteID        string      `db:"quote_id"`
	Network        Network     `db:"network"`
	Address        string      `db:"address"`
	ExpectedAmount string      `db:"expected_amount"`
	Status         QuoteStatus `db:"status"`
	TxHash         *string     `db:"tx_hash"`
	Confirmations  int         `db:"confirmations"`
	AmountReceived *string     `db:"amount_received"`
	Provider       string      `db:"provider"`
	NotesAdmin     *string     `db:"notes_admin"`
	OrderID        *string     `db:"order_id"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// Confirmation carries the settlement facts recorded by an operator.
type Confirmation struct {
	Confirmations  int
	AmountReceived string
	Notes          *string
}

// PaymentStatus is the client-facing view of a quote lifecycle.
type PaymentStatus struct {
	QuoteID       string
	Status        QuoteStatus
	TxHash        *string
	Confirmations *int
	ExpiresAt     time.Time
}

const OrderStatusCreated = "created"

type Order struct {
	ID        string    `db:"id"`
	QuoteID   string    `db:"quote_id"`
	UserID    int       `db:"user_id"`
	TotalUSDT string    `db:"total_usdt"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type StockInfo struct {
	ProductID string `db:"product_id"`
	Available int    `db:"available"`
	Reserved  int    `db:"reserved"`
	Sold      int    `db:"sold"`
}

type Reservation struct {
	ID        string    `db:"id"`
	ProductID string    `db:"product_id"`
	SessionID string    `db:"session_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

type Product struct {
	ID           string          `db:"id"`
	Name         string          `db:"name"`
	PriceEUR     decimal.Decimal `db:"price_eur"`
	InitialStock int             `db:"initial_stock"`
}

// Rate is the amount of USDT bought by one EUR.
type Rate struct {
	Value     decimal.Decimal
	Provider  string
	FetchedAt time.Time
}
