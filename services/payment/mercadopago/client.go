// Package mercadopago is a payment.Gateway backed by the MercadoPago REST API.
package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/payment"
)

const (
	preferencesEndpoint = "/checkout/preferences"
	paymentsEndpoint    = "/v1/payments/"
)

// ErrNotFound is returned when the provider does not know a payment.
var ErrNotFound = errors.New("mercadopago: payment not found")

type (
	Client struct {
		baseURL         string
		accessToken     string
		notificationURL string
		successURL      string
		failureURL      string
		http            *rest.Client
	}

	item struct {
		Title       string  `json:"title"`
		Description string  `json:"description,omitempty"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
		CurrencyID  string  `json:"currency_id"`
	}

	payer struct {
		Name  string `json:"name,omitempty"`
		Email string `json:"email,omitempty"`
	}

	backURLs struct {
		Success string `json:"success,omitempty"`
		Failure string `json:"failure,omitempty"`
		Pending string `json:"pending,omitempty"`
	}

	preferenceRequest struct {
		Items             []item    `json:"items"`
		Payer             *payer    `json:"payer,omitempty"`
		ExternalReference string    `json:"external_reference"`
		NotificationURL   string    `json:"notification_url,omitempty"`
		BackURLs          *backURLs `json:"back_urls,omitempty"`
		AutoReturn        string    `json:"auto_return,omitempty"`
	}

	preferenceResponse struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}

	paymentResponse struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		StatusDetail      string      `json:"status_detail"`
		ExternalReference string      `json:"external_reference"`
		TransactionAmount float64     `json:"transaction_amount"`
		CurrencyID        string      `json:"currency_id"`
		DateApproved      *string     `json:"date_approved"`
	}

	apiError struct {
		Message string `json:"message"`
		Err     string `json:"error"`
		Status  int    `json:"status"`
	}
)

var _ payment.Gateway = (*Client)(nil) // interface compliance check

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL:         conf.MercadoPago.BaseURL,
		accessToken:     conf.MercadoPago.AccessToken,
		notificationURL: conf.MercadoPago.NotificationURL,
		successURL:      conf.MercadoPago.SuccessURL,
		failureURL:      conf.MercadoPago.FailureURL,
		http:            &rest.Client{HTTPClient: &http.Client{Timeout: 15 * time.Second}},
	}
}

func (e apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mercadopago: %d %s: %s", e.Status, e.Err, e.Message)
	}
	return fmt.Sprintf("mercadopago: status %d", e.Status)
}

func (c *Client) request(method rest.Method, endpoint string, body interface{}) (rest.Request, error) {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.accessToken,
			"Accept":        "application/json",
		},
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return rest.Request{}, errors.Wrap(err, "encoding request")
		}
		req.Body = b
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req rest.Request, dest interface{}) error {
	res, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "mercadopago: %s %s", req.Method, req.BaseURL)
	}
	if res.StatusCode >= http.StatusBadRequest {
		apiErr := apiError{Status: res.StatusCode}
		_ = json.Unmarshal([]byte(res.Body), &apiErr)
		apiErr.Status = res.StatusCode
		return apiErr
	}
	if err = json.Unmarshal([]byte(res.Body), dest); err != nil {
		return errors.Wrap(err, "mercadopago: decoding response")
	}
	return nil
}

func (c *Client) CreatePreference(ctx context.Context, pref payment.Preference) (payment.PreferenceResult, error) {
	body := preferenceRequest{
		Items: []item{{
			Title:       pref.Title,
			Description: pref.Description,
			Quantity:    1,
			UnitPrice:   float64(pref.Amount) / 100,
			CurrencyID:  pref.Currency,
		}},
		ExternalReference: pref.ExternalReference,
		NotificationURL:   c.notificationURL,
	}
	if pref.PayerEmail != "" || pref.PayerName != "" {
		body.Payer = &payer{Name: pref.PayerName, Email: pref.PayerEmail}
	}
	if c.successURL != "" || c.failureURL != "" {
		body.BackURLs = &backURLs{Success: c.successURL, Failure: c.failureURL, Pending: c.successURL}
		if c.successURL != "" {
			body.AutoReturn = "approved"
		}
	}

	req, err := c.request(rest.Post, preferencesEndpoint, body)
	if err != nil {
		return payment.PreferenceResult{}, err
	}
	var res preferenceResponse
	if err = c.do(ctx, req, &res); err != nil {
		return payment.PreferenceResult{}, errors.Wrap(err, "creating preference")
	}

	checkoutURL := res.InitPoint
	if checkoutURL == "" {
		checkoutURL = res.SandboxInitPoint
	}
	return payment.PreferenceResult{ID: res.ID, CheckoutURL: checkoutURL}, nil
}

func (c *Client) GetPayment(ctx context.Context, providerPaymentID string) (payment.ProviderPayment, error) {
	if _, err := strconv.ParseInt(providerPaymentID, 10, 64); err != nil {
		return payment.ProviderPayment{}, ErrNotFound
	}
	req, err := c.request(rest.Get, paymentsEndpoint+url.PathEscape(providerPaymentID), nil)
	if err != nil {
		return payment.ProviderPayment{}, err
	}

	var res paymentResponse
	if err = c.do(ctx, req, &res); err != nil {
		if apiErr, ok := err.(apiError); ok && apiErr.Status == http.StatusNotFound {
			return payment.ProviderPayment{}, ErrNotFound
		}
		return payment.ProviderPayment{}, errors.Wrap(err, "fetching payment")
	}

	p := payment.ProviderPayment{
		ID:                res.ID.String(),
		Status:            res.Status,
		StatusDetail:      res.StatusDetail,
		ExternalReference: res.ExternalReference,
		Amount:            int64(math.Round(res.TransactionAmount * 100)),
		Currency:          res.CurrencyID,
	}
	if res.DateApproved != nil && *res.DateApproved != "" {
		if approvedAt, err := time.Parse(time.RFC3339Nano, *res.DateApproved); err == nil {
			p.ApprovedAt = approvedAt.UTC()
		}
	}
	return p, nil
}
