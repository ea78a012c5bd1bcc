package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/b2bnest/b2bnest-api/config"
	"github.com/b2bnest/b2bnest-api/internal/hmrc/domain"
	"github.com/b2bnest/b2bnest-api/internal/upstream"
)

const acceptHeader = "application/vnd.hmrc.1.0+json"

// Client calls the HMRC Making Tax Digital VAT API with an OAuth2 client-credentials token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(ctx context.Context, cfg config.HMRCConfig) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"read:vat", "write:vat"},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 15 * time.Second})
	hc := cc.Client(ctx)
	hc.Timeout = 30 * time.Second
	return NewWithHTTPClient(cfg.BaseURL, hc)
}

// NewWithHTTPClient uses hc as is. hc must already attach credentials.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

type obligationDTO struct {
	PeriodKey string `json:"periodKey"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Due       string `json:"due"`
	Status    string `json:"status"`
	Received  string `json:"received,omitempty"`
}

type obligationsResponse struct {
	Obligations []obligationDTO `json:"obligations"`
}

// Obligations lists the VAT obligations of vrn between from and to.
func (c *Client) Obligations(ctx context.Context, vrn string, from, to time.Time) ([]domain.Obligation, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))

	var out obligationsResponse
	if err := c.do(ctx, http.MethodGet, "/organisations/vat/"+vrn+"/obligations?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}

	obs := make([]domain.Obligation, 0, len(out.Obligations))
	for _, dto := range out.Obligations {
		o, err := dto.toDomain(vrn)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func (dto obligationDTO) toDomain(vrn string) (domain.Obligation, error) {
	o := domain.Obligation{VRN: vrn, PeriodKey: dto.PeriodKey, Status: domain.StatusOutstanding}
	var err error
	if o.Start, err = time.Parse(time.DateOnly, dto.Start); err != nil {
		return o, fmt.Errorf("hmrc obligation start: %w", err)
	}
	if o.End, err = time.Parse(time.DateOnly, dto.End); err != nil {
		return o, fmt.Errorf("hmrc obligation end: %w", err)
	}
	if o.Due, err = time.Parse(time.DateOnly, dto.Due); err != nil {
		return o, fmt.Errorf("hmrc obligation due: %w", err)
	}
	if dto.Status == "F" {
		o.Status = domain.StatusFulfilled
		if dto.Received != "" {
			if r, err := time.Parse(time.DateOnly, dto.Received); err == nil {
				o.Received = &r
			}
		}
		if o.Received == nil {
			r := o.Due
			o.Received = &r
		}
	}
	return o, nil
}

type submitBody struct {
	PeriodKey                    string  `json:"periodKey"`
	VatDueSales                  float64 `json:"vatDueSales"`
	VatDueAcquisitions           float64 `json:"vatDueAcquisitions"`
	TotalVatDue                  float64 `json:"totalVatDue"`
	VatReclaimedCurrPeriod       float64 `json:"vatReclaimedCurrPeriod"`
	NetVatDue                    float64 `json:"netVatDue"`
	TotalValueSalesExVAT         float64 `json:"totalValueSalesExVAT"`
	TotalValuePurchasesExVAT     float64 `json:"totalValuePurchasesExVAT"`
	TotalValueGoodsSuppliedExVAT float64 `json:"totalValueGoodsSuppliedExVAT"`
	TotalAcquisitionsExVAT       float64 `json:"totalAcquisitionsExVAT"`
	Finalised                    bool    `json:"finalised"`
}

// SubmitReturn posts r. HMRC expects box 5 as the absolute difference.
func (c *Client) SubmitReturn(ctx context.Context, vrn string, r domain.VATReturn) (*domain.Receipt, error) {
	body := submitBody{
		PeriodKey:                    r.PeriodKey,
		VatDueSales:                  r.VatDueSales,
		VatDueAcquisitions:           r.VatDueAcquisitions,
		TotalVatDue:                  r.TotalVatDue,
		VatReclaimedCurrPeriod:       r.VatReclaimedCurrPeriod,
		NetVatDue:                    math.Abs(r.NetVatDue),
		TotalValueSalesExVAT:         r.TotalValueSalesExVAT,
		TotalValuePurchasesExVAT:     r.TotalValuePurchasesExVAT,
		TotalValueGoodsSuppliedExVAT: r.TotalValueGoodsSuppliedExVAT,
		TotalAcquisitionsExVAT:       r.TotalAcquisitionsExVAT,
		Finalised:                    r.Finalised,
	}

	var out domain.Receipt
	if err := c.do(ctx, http.MethodPost, "/organisations/vat/"+vrn+"/returns", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	defer upstream.Track(upstream.ServiceHMRC, time.Now(), &err)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			if apiErr.Code == "DUPLICATE_SUBMISSION" {
				return domain.ErrAlreadySubmitted
			}
			return fmt.Errorf("%w: status %d: %s: %s", domain.ErrUpstreamFailed, resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFailed, resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
