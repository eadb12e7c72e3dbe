// components/dashboard/widgets/goldprice.go
//
// Gold price widget – today's association bar and ornament prices, plus
// the buy/sell spread the counter staff quote from.
//
// The backend price is global, so the branch filter is ignored.  A response
// without any price (association feed not yet published) contributes
// nothing to the context registry.
package widgets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yanizio/pawnboard/internal/filter"
	"github.com/yanizio/pawnboard/internal/widget"
)

// compile-time assertion
var _ widget.Widget = (*GoldPrice)(nil)

// backendGold mirrors GET /gold-price.
type backendGold struct {
	BarBuy       float64 `json:"barBuy"`
	BarSell      float64 `json:"barSell"`
	OrnamentBuy  float64 `json:"ornamentBuy"`
	OrnamentSell float64 `json:"ornamentSell"`
	UpdatedAt    string  `json:"updatedAt"`
}

// GoldQuote is the payload the widget shows and shares as context.
type GoldQuote struct {
	Bar       Quote  `json:"bar"`
	Ornament  Quote  `json:"ornament"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Unit      string `json:"unit"`
}

// Quote is one buy/sell pair.
type Quote struct {
	Buy    float64 `json:"buy"`
	Sell   float64 `json:"sell"`
	Spread float64 `json:"spread"`
}

// GoldPrice implements widget.Widget.
type GoldPrice struct{}

func (w *GoldPrice) ID() string          { return "gold-price" }
func (w *GoldPrice) Name() string        { return "ราคาทอง" }
func (w *GoldPrice) Description() string { return "ราคาทองคำแท่งและทองรูปพรรณวันนี้ (บาทละ)" }
func (w *GoldPrice) Page() string        { return "dashboard" }

// Fetch returns *GoldQuote, or nil when no price has been published.
func (w *GoldPrice) Fetch(ctx context.Context, api widget.Fetcher, _ filter.Filter) (any, error) {
	raw, err := api.Get(ctx, "/gold-price", nil)
	if err != nil {
		return nil, fmt.Errorf("gold-price: %w", err)
	}
	var g *backendGold
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("gold-price: decode: %w", err)
	}
	return shapeGold(g), nil
}

func shapeGold(g *backendGold) *GoldQuote {
	if g == nil || (g.BarBuy == 0 && g.BarSell == 0 && g.OrnamentBuy == 0 && g.OrnamentSell == 0) {
		return nil
	}
	return &GoldQuote{
		Bar:       Quote{Buy: g.BarBuy, Sell: g.BarSell, Spread: g.BarSell - g.BarBuy},
		Ornament:  Quote{Buy: g.OrnamentBuy, Sell: g.OrnamentSell, Spread: g.OrnamentSell - g.OrnamentBuy},
		UpdatedAt: g.UpdatedAt,
		Unit:      "THB/baht-weight",
	}
}

func init() { widget.Register(&GoldPrice{}) }
