// Package safeTxService is a client for the Safe Transaction Service message API.
package safeTxService

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/config"
	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 1 << 20

// Confirmation is one owner's signature on an off-chain Safe message.
type Confirmation struct {
	Created       string `json:"created"`
	Modified      string `json:"modified"`
	Owner         string `json:"owner"`
	Signature     string `json:"signature"`
	SignatureType string `json:"signatureType"`
}

// SafeMessage is the service's view of an off-chain message.
type SafeMessage struct {
	Created           string          `json:"created"`
	Modified          string          `json:"modified"`
	Safe              string          `json:"safe"`
	MessageHash       string          `json:"messageHash"`
	Message           json.RawMessage `json:"message"`
	ProposedBy        string          `json:"proposedBy"`
	Confirmations     []Confirmation  `json:"confirmations"`
	PreparedSignature *string         `json:"preparedSignature"`
}

// CollectionStatus reduces the message to its confirmation count and the
// combined signature, if the service has prepared one.
func (m *SafeMessage) CollectionStatus() (*types.SignatureCollectionStatus, error) {
	status := &types.SignatureCollectionStatus{Confirmations: len(m.Confirmations)}
	if m.PreparedSignature == nil || *m.PreparedSignature == "" || *m.PreparedSignature == "0x" {
		return status, nil
	}
	sig, err := hexutil.Decode(*m.PreparedSignature)
	if err != nil {
		return nil, fmt.Errorf("invalid preparedSignature: %w", err)
	}
	status.PreparedSignature = sig
	return status, nil
}

// ProposeMessageRequest creates an off-chain message. Message is either a
// string or EIP-712 typed data; Signature is the proposing owner's signature
// over the Safe message hash.
type ProposeMessageRequest struct {
	Message   interface{} `json:"message"`
	Signature string      `json:"signature"`
	SafeAppId *int        `json:"safeAppId,omitempty"`
}

// ConfirmMessageRequest adds an owner's signature to an existing message.
type ConfirmMessageRequest struct {
	Signature string `json:"signature"`
}

// ClientConfig holds the configuration for the Safe Transaction Service client
type ClientConfig struct {
	BaseUrl string
	// ApiKey is sent as a bearer token when set
	ApiKey string
	// RatePerSecond bounds outgoing requests; 0 disables limiting
	RatePerSecond float64
	// RequestTimeout bounds a single request; 0 means no timeout beyond ctx
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

type Client struct {
	baseUrl    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseUrl == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Client{
		baseUrl:    strings.TrimRight(cfg.BaseUrl, "/"),
		apiKey:     cfg.ApiKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     cfg.Logger,
	}, nil
}

// MessageUrl returns the message endpoint for safeMessageHash on chainId.
func (c *Client) MessageUrl(chainId config.ChainId, safeMessageHash types.MessageHash) (string, error) {
	chainName, err := config.GetSafeServiceNameForChain(chainId)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/tx-service/%s/api/v1/messages/%s/", c.baseUrl, chainName, safeMessageHash.Hex()), nil
}

// SafeMessagesUrl returns the endpoint listing and creating messages of safe.
func (c *Client) SafeMessagesUrl(chainId config.ChainId, safe common.Address) (string, error) {
	chainName, err := config.GetSafeServiceNameForChain(chainId)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/tx-service/%s/api/v1/safes/%s/messages/", c.baseUrl, chainName, safe.Hex()), nil
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Sugar().Debugw("Safe Transaction Service returned non-OK status",
			"method", method,
			"url", url,
			"status_code", resp.StatusCode,
			"body", string(body),
		)
	}
	return resp.StatusCode, body, nil
}

// GetMessage fetches the message identified by safeMessageHash. An
// unsupported chain fails without any request being made.
func (c *Client) GetMessage(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash) (*SafeMessage, error) {
	url, err := c.MessageUrl(chainId, safeMessageHash)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrPollTransport, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", types.ErrPollTransport, status)
	}

	var msg SafeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode message: %v", types.ErrPollTransport, err)
	}
	return &msg, nil
}

// ProposeMessage creates the off-chain message for safe, signed by the
// proposing owner. A message that was already proposed is reported as
// ErrMessageExists.
func (c *Client) ProposeMessage(ctx context.Context, chainId config.ChainId, safe common.Address, message interface{}, signature []byte) error {
	url, err := c.SafeMessagesUrl(chainId, safe)
	if err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodPost, url, &ProposeMessageRequest{
		Message:   message,
		Signature: hexutil.Encode(signature),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrMessageProposal, err)
	}
	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		return nil
	case status == http.StatusBadRequest && bytes.Contains(body, []byte("already exists")):
		return fmt.Errorf("%w: safe %s", types.ErrMessageExists, safe.Hex())
	}
	return fmt.Errorf("%w: unexpected status %d", types.ErrMessageProposal, status)
}

// ConfirmMessage adds an owner's signature to the message identified by
// safeMessageHash.
func (c *Client) ConfirmMessage(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash, signature []byte) error {
	url, err := c.MessageUrl(chainId, safeMessageHash)
	if err != nil {
		return err
	}

	status, _, err := c.do(ctx, http.MethodPost, url+"signatures/", &ConfirmMessageRequest{
		Signature: hexutil.Encode(signature),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrMessageProposal, err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("%w: unexpected confirmation status %d", types.ErrMessageProposal, status)
	}
	return nil
}

// GetCollectionStatus fetches the message and reduces it to its collection status.
func (c *Client) GetCollectionStatus(ctx context.Context, chainId config.ChainId, safeMessageHash types.MessageHash) (*types.SignatureCollectionStatus, error) {
	msg, err := c.GetMessage(ctx, chainId, safeMessageHash)
	if err != nil {
		return nil, err
	}
	status, err := msg.CollectionStatus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrPollTransport, err)
	}
	return status, nil
}
