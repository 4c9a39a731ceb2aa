// Package filter fetches per-token facts and renders the admit/reject
// verdict that gates every candidate before capital is committed.
package filter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
)

// AuthoritySource resolves mint and freeze authorities directly from
// chain state. Used when the report API omits authority data.
type AuthoritySource interface {
	GetMintAuthorities(ctx context.Context, mint string) (*chain.MintAuthorities, error)
}

// FactsClient fetches token reports from the facts API, falling back
// to the chain RPC for authority data the report left out.
type FactsClient struct {
	http        *resty.Client
	authorities AuthoritySource
	logger      *log.Logger
}

// NewFactsClient creates a facts client for the given report endpoint.
// authorities may be nil, in which case missing authority data stays
// missing and the evaluator blocks the candidate.
func NewFactsClient(endpoint string, timeout time.Duration, authorities AuthoritySource, logger *log.Logger) *FactsClient {
	httpClient := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second)

	return &FactsClient{
		http:        httpClient,
		authorities: authorities,
		logger:      logger,
	}
}

// tokenReport mirrors the facts API response for one mint.
type tokenReport struct {
	Mint      string `json:"mint"`
	TokenMeta struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"tokenMeta"`
	Token *struct {
		MintAuthority   *string `json:"mintAuthority"`
		FreezeAuthority *string `json:"freezeAuthority"`
	} `json:"token"`
	TopHolders []struct {
		Pct float64 `json:"pct"`
	} `json:"topHolders"`
	TotalMarketLiquidity float64 `json:"totalMarketLiquidity"`
	Markets              []struct {
		MarketType string `json:"marketType"`
	} `json:"markets"`
	TotalLPProviders int    `json:"totalLPProviders"`
	DetectedAt       string `json:"detectedAt"`
}

// Fetch retrieves the facts for a mint. A nil result with a nil error
// never happens; any failure to assemble complete facts is an error so
// the caller can fail closed.
func (c *FactsClient) Fetch(ctx context.Context, mint string) (*domain.TokenFacts, error) {
	var report tokenReport
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&report).
		SetPathParam("mint", mint).
		Get("/v1/tokens/{mint}/report")
	if err != nil {
		return nil, fmt.Errorf("facts fetch %s: %w", mint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("facts fetch %s: http status %d", mint, resp.StatusCode())
	}

	facts := &domain.TokenFacts{
		Mint:            mint,
		Name:            report.TokenMeta.Name,
		Symbol:          report.TokenMeta.Symbol,
		LiquidityUsd:    report.TotalMarketLiquidity,
		MarketCount:     len(report.Markets),
		LPProviderCount: report.TotalLPProviders,
	}

	for _, h := range report.TopHolders {
		if h.Pct > facts.TopHolderPct {
			facts.TopHolderPct = h.Pct
		}
	}

	if report.DetectedAt != "" {
		if t, perr := time.Parse(time.RFC3339, report.DetectedAt); perr == nil {
			facts.AgeSeconds = int64(time.Since(t).Seconds())
		}
	}

	if report.Token != nil {
		facts.MintAuthorityPresent = report.Token.MintAuthority != nil
		facts.FreezeAuthorityPresent = report.Token.FreezeAuthority != nil
		facts.AuthorityDataComplete = true
		return facts, nil
	}

	// Report omitted authority data; resolve from chain state.
	if c.authorities != nil {
		auth, aerr := c.authorities.GetMintAuthorities(ctx, mint)
		if aerr != nil {
			c.logger.Printf("[filter] authority fallback failed for %s: %v", mint, aerr)
			return facts, nil
		}
		facts.MintAuthorityPresent = auth.MintAuthority != nil
		facts.FreezeAuthorityPresent = auth.FreezeAuthority != nil
		facts.AuthorityDataComplete = true
	}

	return facts, nil
}
