package traffic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ttpr0/go-hybrid-routing/graph"
)

var (
	ErrBadStatus        = errors.New("live feed returned non-success status")
	ErrMalformedPayload = errors.New("live feed payload is malformed")
	ErrEmptyFeed        = errors.New("live feed contains no usable samples")
)

// Feed delivers the current speed per external segment.
type Feed interface {
	FetchSegmentSpeeds(ctx context.Context) ([]graph.SpeedSample, error)
}

// max accepted payload size
const MAX_PAYLOAD = 64 << 20

//*******************************************
// http feed client
//*******************************************

type FeedClient struct {
	url     string
	headers map[string]string
	timeout time.Duration
	client  *http.Client
}

func NewFeedClient(url string, headers map[string]string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		url:     url,
		headers: headers,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (self *FeedClient) FetchSegmentSpeeds(ctx context.Context) ([]graph.SpeedSample, error) {
	ctx, cancel := context.WithTimeout(ctx, self.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, self.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range self.headers {
		req.Header.Set(key, value)
	}
	resp, err := self.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MAX_PAYLOAD))
	if err != nil {
		return nil, err
	}
	return DecodeSamples(body)
}

//*******************************************
// payload decoding
//*******************************************

type sampleRecord struct {
	S *int64   `json:"S"`
	V *float64 `json:"V"`
}

// Decodes a feed payload. Both {"Data": [...]} and a bare list are accepted;
// records without segment id or speed are skipped.
func DecodeSamples(body []byte) ([]graph.SpeedSample, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrMalformedPayload
	}
	var records []sampleRecord
	switch body[0] {
	case '{':
		var wrapper struct {
			Data *[]sampleRecord `json:"Data"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Data == nil {
			return nil, ErrMalformedPayload
		}
		records = *wrapper.Data
	case '[':
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, ErrMalformedPayload
		}
	default:
		return nil, ErrMalformedPayload
	}

	samples := make([]graph.SpeedSample, 0, len(records))
	for _, record := range records {
		if record.S == nil || record.V == nil {
			continue
		}
		samples = append(samples, graph.SpeedSample{SegmentID: *record.S, Speed: *record.V})
	}
	if len(samples) == 0 {
		return nil, ErrEmptyFeed
	}
	return samples, nil
}
