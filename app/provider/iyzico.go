package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	IyzicoName = "iyzico"

	iyzicoSandboxEnv       = "sandbox"
	iyzicoMockAPIKey       = "mock_api_key"
	iyzicoMockSignature    = "mock_valid_signature"
	iyzicoCheckoutInitPath = "/payment/iyzipos/checkoutform/initialize/auth/ecom"
	iyzicoSandboxCheckout  = "https://sandbox-checkout.iyzipay.com/token="
	iyzicoItemName         = "Cezaevi Mektup Gönderimi"
)

type IyzicoConfig struct {
	Env         string
	APIKey      string
	SecretKey   string
	BaseURL     string
	CallbackURL string
	HTTPTimeout time.Duration
}

type IyzicoProvider struct {
	cfg    IyzicoConfig
	client *http.Client
	now    func() time.Time
}

func NewIyzicoProvider(cfg IyzicoConfig) *IyzicoProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &IyzicoProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (p *IyzicoProvider) Name() string {
	return IyzicoName
}

// Mocked reports whether checkout creation is served locally without calling Iyzico.
func (p *IyzicoProvider) Mocked() bool {
	return p.cfg.Env == iyzicoSandboxEnv && p.cfg.APIKey == iyzicoMockAPIKey
}

func (p *IyzicoProvider) CreateCheckout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error) {
	if p.Mocked() {
		token := "sandbox_token_" + input.OrderID
		return &CheckoutOutput{
			Token:       token,
			CheckoutURL: iyzicoSandboxCheckout + token,
		}, nil
	}

	if strings.TrimSpace(p.cfg.APIKey) == "" || strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, errors.New("iyzico credentials are not configured")
	}

	body, err := json.Marshal(p.buildCheckoutRequest(input))
	if err != nil {
		return nil, err
	}

	respBody, err := p.post(ctx, iyzicoCheckoutInitPath, body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Status         string `json:"status"`
		Token          string `json:"token"`
		PaymentPageURL string `json:"paymentPageUrl"`
		ErrorMessage   string `json:"errorMessage"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("iyzico error: %s", payload.ErrorMessage)
	}

	token := strings.TrimSpace(payload.Token)
	if token == "" {
		return nil, errors.New("iyzico token missing")
	}

	return &CheckoutOutput{
		Token:       token,
		CheckoutURL: strings.TrimSpace(payload.PaymentPageURL),
	}, nil
}

func (p *IyzicoProvider) VerifyAndParseWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, ErrMissingSignature
	}
	if !p.verifySignature(payload, signature) {
		return nil, ErrInvalidSignature
	}

	var event struct {
		Token          string `json:"token"`
		Status         string `json:"status"`
		PaymentID      string `json:"paymentId"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if strings.TrimSpace(event.Token) == "" {
		return nil, errors.New("webhook token is required")
	}

	result := &WebhookEvent{
		Token:          strings.TrimSpace(event.Token),
		ConversationID: strings.TrimSpace(event.ConversationID),
		ProviderStatus: event.Status,
		Succeeded:      strings.EqualFold(strings.TrimSpace(event.Status), "SUCCESS"),
	}
	if s := strings.TrimSpace(event.PaymentID); s != "" {
		result.ProviderPaymentID = &s
	}

	return result, nil
}

func (p *IyzicoProvider) verifySignature(payload []byte, signature string) bool {
	if p.cfg.Env == iyzicoSandboxEnv && signature == iyzicoMockSignature {
		return true
	}
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return false
	}

	candidate, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(p.cfg.SecretKey))
	_, _ = mac.Write(payload)
	return hmac.Equal(candidate, mac.Sum(nil))
}

func (p *IyzicoProvider) buildCheckoutRequest(input *CheckoutInput) map[string]interface{} {
	price := input.Amount.StringFixed(2)
	name, surname := splitBuyerName(input.BuyerName)

	address := strings.TrimSpace(input.Address)
	if address == "" {
		address = "Bilinmeyen Adres"
	}
	city := strings.TrimSpace(input.City)
	if city == "" {
		city = "Istanbul"
	}
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = "TRY"
	}

	addressBlock := map[string]interface{}{
		"contactName": strings.TrimSpace(name + " " + surname),
		"city":        city,
		"country":     "Turkey",
		"address":     address,
	}

	return map[string]interface{}{
		"locale":              "tr",
		"conversationId":      input.OrderID,
		"price":               price,
		"paidPrice":           price,
		"currency":            currency,
		"basketId":            input.OrderID,
		"paymentGroup":        "PRODUCT",
		"callbackUrl":         p.cfg.CallbackURL,
		"enabledInstallments": []string{"2", "3", "6", "9"},
		"buyer": map[string]interface{}{
			"id":                  "BYR-" + input.OrderID,
			"name":                name,
			"surname":             surname,
			"email":               "kullanici@emektup.local",
			"registrationAddress": address,
			"city":                city,
			"country":             "Turkey",
		},
		"shippingAddress": addressBlock,
		"billingAddress":  addressBlock,
		"basketItems": []map[string]interface{}{
			{
				"id":        "ITEM-" + input.OrderID,
				"name":      iyzicoItemName,
				"category1": "Hizmet",
				"itemType":  "PHYSICAL",
				"price":     price,
			},
		},
	}
}

func (p *IyzicoProvider) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	randomKey := p.randomKey()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", iyzicoAuthorization(p.cfg.APIKey, p.cfg.SecretKey, randomKey, path, body))
	req.Header.Set("x-iyzi-rnd", randomKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("iyzico request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func (p *IyzicoProvider) randomKey() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return strconv.FormatInt(p.now().UnixMilli(), 10) + hex.EncodeToString(suffix)
}

// iyzicoAuthorization builds the IYZWSv2 header value.
func iyzicoAuthorization(apiKey, secretKey, randomKey, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	_, _ = mac.Write([]byte(randomKey + path + string(body)))
	signature := hex.EncodeToString(mac.Sum(nil))

	auth := "apiKey:" + apiKey + "&randomKey:" + randomKey + "&signature:" + signature
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(auth))
}

func splitBuyerName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "Bilinmeyen", "Kullanici"
	}
	if len(parts) == 1 {
		return parts[0], "Soyadi"
	}
	return parts[0], strings.Join(parts[1:], " ")
}
