package bybit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnitrade-ai/omnitrade/internal/broker"
)

// GetAccount returns the unified account's equity and free balance.
func (b *Broker) GetAccount(ctx context.Context) (*broker.Account, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_wallet", err)
	}

	account, err := parseWalletResponse(result)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_wallet", err)
	}
	return account, nil
}

// GetPositions returns the venue's open linear positions. Bybit reports
// shorts with side "Sell" and a positive size; the sign is restored here.
func (b *Broker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	params := map[string]interface{}{
		"category":   category,
		"settleCoin": "USDT",
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetPositionList(ctx)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_positions", err)
	}

	positions, err := parsePositionsResponse(result)
	if err != nil {
		return nil, broker.WrapErr(venueName, "get_positions", err)
	}
	return positions, nil
}

func parseWalletResponse(response interface{}) (*broker.Account, error) {
	resultBytes, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var walletResult struct {
		List []struct {
			TotalEquity           string `json:"totalEquity"`
			TotalAvailableBalance string `json:"totalAvailableBalance"`
			AccountType           string `json:"accountType"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &walletResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet result: %w", err)
	}
	if len(walletResult.List) == 0 {
		return nil, fmt.Errorf("no account data found")
	}

	account := walletResult.List[0]
	return &broker.Account{
		PortfolioValue: parseFloat64(account.TotalEquity),
		Cash:           parseFloat64(account.TotalAvailableBalance),
		Currency:       "USDT",
	}, nil
}

func parsePositionsResponse(response interface{}) ([]broker.Position, error) {
	resultBytes, err := unwrapResult(response)
	if err != nil {
		return nil, err
	}

	var positionResult struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			PositionValue string `json:"positionValue"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &positionResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position result: %w", err)
	}

	var positions []broker.Position
	for _, p := range positionResult.List {
		size := parseFloat64(p.Size)
		if size == 0 {
			continue
		}
		if p.Side == "Sell" {
			size = -size
		}
		positions = append(positions, broker.Position{
			Symbol:        p.Symbol,
			Qty:           size,
			AvgEntryPrice: parseFloat64(p.AvgPrice),
			MarketValue:   parseFloat64(p.PositionValue),
		})
	}
	return positions, nil
}
