package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// actionPaths maps request actions onto their POST endpoints.
var actionPaths = map[string]string{
	types.TypeMsgJoin:          "join",
	types.TypeMsgStart:         "start",
	types.TypeMsgCommit:        "commit",
	types.TypeMsgPublishReveal: "reveal",
}

// Client talks to a ledger API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Submit posts a signed request and returns the commit receipt.
func (c *Client) Submit(ctx context.Context, req *types.SignedRequest) (app.Receipt, error) {
	var receipt app.Receipt
	path, ok := actionPaths[req.Action]
	if !ok {
		return receipt, types.ErrInvalidRequest.Wrapf("unknown action %q", req.Action)
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/ceremony/"+path, nil, req, &receipt)
	return receipt, err
}

// Nonce returns the nonce state of identity.
func (c *Client) Nonce(ctx context.Context, identity string) (NonceResponse, error) {
	var resp NonceResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/nonce/"+url.PathEscape(identity), nil, nil, &resp)
	return resp, err
}

// Params returns the ceremony parameters.
func (c *Client) Params(ctx context.Context, height int64) (types.QueryParamsResponse, error) {
	var resp types.QueryParamsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/params", heightQuery(height), nil, &resp)
	return resp, err
}

// Phase returns the phase and participant count.
func (c *Client) Phase(ctx context.Context, height int64) (types.QueryCurrentPhaseResponse, error) {
	var resp types.QueryCurrentPhaseResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/phase", heightQuery(height), nil, &resp)
	return resp, err
}

// Participants returns one page of the registry.
func (c *Client) Participants(ctx context.Context, height int64, limit, offset uint64) (types.QueryParticipantsResponse, error) {
	var resp types.QueryParticipantsResponse
	q := heightQuery(height)
	q.Set("count_total", "true")
	if limit > 0 {
		q.Set("limit", strconv.FormatUint(limit, 10))
	}
	if offset > 0 {
		q.Set("offset", strconv.FormatUint(offset, 10))
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/participants", q, nil, &resp)
	return resp, err
}

// ParticipantAt returns the participant with join index.
func (c *Client) ParticipantAt(ctx context.Context, height int64, index uint64) (types.QueryParticipantAtResponse, error) {
	var resp types.QueryParticipantAtResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/ceremony/participants/%d", index), heightQuery(height), nil, &resp)
	return resp, err
}

// IsCoordinator returns the role of identity.
func (c *Client) IsCoordinator(ctx context.Context, height int64, identity string) (types.QueryIsCoordinatorResponse, error) {
	var resp types.QueryIsCoordinatorResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/coordinator/"+url.PathEscape(identity), heightQuery(height), nil, &resp)
	return resp, err
}

// Record returns the commit record of identity.
func (c *Client) Record(ctx context.Context, height int64, identity string) (types.QueryRecordResponse, error) {
	var resp types.QueryRecordResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/records/"+url.PathEscape(identity), heightQuery(height), nil, &resp)
	return resp, err
}

// Transcript returns the transcript at height.
func (c *Client) Transcript(ctx context.Context, height int64) (TranscriptResponse, error) {
	var resp TranscriptResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/transcript", heightQuery(height), nil, &resp)
	return resp, err
}

// Verify returns the audit of the transcript at height.
func (c *Client) Verify(ctx context.Context, height int64) (VerifyResponse, error) {
	var resp VerifyResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/ceremony/verify", heightQuery(height), nil, &resp)
	return resp, err
}

func heightQuery(height int64) url.Values {
	q := url.Values{}
	if height > 0 {
		q.Set("height", strconv.FormatInt(height, 10))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bz)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, bz)
	}
	return json.Unmarshal(bz, out)
}

// decodeError rebuilds a registered ceremony error from an error body so
// callers can match it with errors.Is.
func decodeError(status int, bz []byte) error {
	var body ErrorResponse
	if err := json.Unmarshal(bz, &body); err != nil {
		return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(bz)))
	}
	if body.Codespace == types.ModuleName {
		if registered, ok := types.ErrorByCode(body.ABCICode); ok {
			return registered.Wrap(body.Error)
		}
	}
	if body.Details != "" {
		return fmt.Errorf("HTTP %d: %s: %s", status, body.Error, body.Details)
	}
	return fmt.Errorf("HTTP %d: %s", status, body.Error)
}
