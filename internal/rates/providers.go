package rates

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/cryptocheckout/pkg/clients"
)

const ratePrecision = 8

type Provider interface {
	Name() string
	// Fetch returns how many USDT one EUR buys.
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

type coinGeckoResponse struct {
	Tether struct {
		EUR decimal.NullDecimal `json:"eur"`
	} `json:"tether"`
}

// CoinGecko quotes the EUR price of one USDT, so the rate is its inverse.
type CoinGecko struct {
	url    string
	client clients.HTTPClientI
}

func NewCoinGecko(url string, client clients.HTTPClientI) *CoinGecko {
	return &CoinGecko{url: url, client: client}
}

func (p *CoinGecko) Name() string { return "coingecko" }

func (p *CoinGecko) Fetch(ctx context.Context) (decimal.Decimal, error) {
	body, err := get(ctx, p.client, p.url)
	if err != nil {
		return decimal.Zero, err
	}

	var resp coinGeckoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse response body")
	}
	price := resp.Tether.EUR
	if !price.Valid || !price.Decimal.IsPositive() {
		return decimal.Zero, errors.New("missing tether eur price")
	}
	return decimal.NewFromInt(1).DivRound(price.Decimal, ratePrecision), nil
}

type coinbaseResponse struct {
	Data struct {
		Currency string                         `json:"currency"`
		Rates    map[string]decimal.NullDecimal `json:"rates"`
	} `json:"data"`
}

// Coinbase quotes exchange rates against EUR, so USDT is used as is.
type Coinbase struct {
	url    string
	client clients.HTTPClientI
}

func NewCoinbase(url string, client clients.HTTPClientI) *Coinbase {
	return &Coinbase{url: url, client: client}
}

func (p *Coinbase) Name() string { return "coinbase" }

func (p *Coinbase) Fetch(ctx context.Context) (decimal.Decimal, error) {
	body, err := get(ctx, p.client, p.url)
	if err != nil {
		return decimal.Zero, err
	}

	var resp coinbaseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse response body")
	}
	usdt, ok := resp.Data.Rates["USDT"]
	if !ok || !usdt.Valid || !usdt.Decimal.IsPositive() {
		return decimal.Zero, errors.New("missing usdt rate")
	}
	return usdt.Decimal.Round(ratePrecision), nil
}

func get(ctx context.Context, client clients.HTTPClientI, url string) ([]byte, error) {
	statusCode, body, _, err := client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status code %d", statusCode)
	}
	return body, nil
}
