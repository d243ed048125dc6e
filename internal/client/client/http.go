package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/absensi/internal/client/models"
)

const (
	contentTypeJSON  = "application/json"
	contentTypePlain = "text/plain;charset=utf-8"

	DeviceIDHeader = "X-Device-Id"

	maxErrorBody = 512
)

// HTTPClient speaks the endpoint protocol: JSON over GET with an action
// query parameter and POST with an action field in the body.
//
// Every POST is sent as application/json first. When that fails before any
// response arrives it is retried once as text/plain, which endpoints that
// reject CORS preflights or JSON content types still accept.
type HTTPClient struct {
	http      *http.Client
	deviceID  string
	userAgent string
}

func NewHTTPClient(timeout time.Duration, deviceID, userAgent string) *HTTPClient {
	return &HTTPClient{
		http:      &http.Client{Timeout: timeout},
		deviceID:  deviceID,
		userAgent: userAgent,
	}
}

// WithHTTPClient swaps the transport, for tests.
func (c *HTTPClient) WithHTTPClient(h *http.Client) *HTTPClient {
	c.http = h
	return c
}

// WithQuery appends params to base, joining with & when base already has a
// query string.
func WithQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}

func (c *HTTPClient) newRequest(ctx context.Context, method, u, contentType string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if c.deviceID != "" {
		req.Header.Set(DeviceIDHeader, c.deviceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b := string(body)
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(b)}
	}
	return body, nil
}

func (c *HTTPClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, u, "", nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *HTTPClient) post(ctx context.Context, u string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, u, contentTypeJSON, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err == nil || !errors.Is(err, ErrUnavailable) || ctx.Err() != nil {
		return resp, err
	}

	req, err = c.newRequest(ctx, http.MethodPost, u, contentTypePlain, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *HTTPClient) Ping(ctx context.Context, u string) error {
	_, err := c.get(ctx, u)
	return err
}

type pushBody struct {
	Rows []models.Attendance `json:"rows"`
}

type pushReply struct {
	OK       bool              `json:"ok"`
	SavedIDs []json.RawMessage `json:"savedIds"`
}

func (c *HTTPClient) PushAttendance(ctx context.Context, u string, rows []models.Attendance) (*PushResponse, error) {
	body, err := c.post(ctx, u, pushBody{Rows: rows})
	if err != nil {
		return nil, err
	}

	var reply pushReply
	if err := json.Unmarshal(body, &reply); err != nil {
		// A 2xx with a body we cannot read is an unacknowledged success.
		return &PushResponse{}, nil
	}
	if !reply.OK || reply.SavedIDs == nil {
		return &PushResponse{}, nil
	}

	resp := &PushResponse{Acknowledged: true, SavedIDs: []int64{}}
	for _, raw := range reply.SavedIDs {
		if id, ok := numericID(raw); ok {
			resp.SavedIDs = append(resp.SavedIDs, id)
		}
	}
	return resp, nil
}

// numericID accepts 12, 12.0 and "12".
func numericID(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

type attendanceReply struct {
	Rows []json.RawMessage `json:"rows"`
}

func (c *HTTPClient) FetchAttendance(ctx context.Context, u, date string) (*AttendanceSnapshot, error) {
	body, err := c.get(ctx, WithQuery(u, url.Values{"action": {"absensi"}, "tanggal": {date}}))
	if err != nil {
		return nil, err
	}

	var reply attendanceReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	snap := &AttendanceSnapshot{Rows: make([]models.Attendance, 0, len(reply.Rows))}
	for _, raw := range reply.Rows {
		var a models.Attendance
		if err := json.Unmarshal(raw, &a); err != nil {
			snap.Malformed++
			continue
		}
		snap.Rows = append(snap.Rows, a)
	}
	return snap, nil
}

type mastersReply struct {
	Students []json.RawMessage `json:"siswa"`
	Teachers []json.RawMessage `json:"guru"`
	Subjects []json.RawMessage `json:"mapel"`
}

func decodeEach[T any](raws []json.RawMessage, malformed *int) []T {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			*malformed++
			continue
		}
		out = append(out, v)
	}
	return out
}

func (c *HTTPClient) FetchMasters(ctx context.Context, u string) (*MasterSnapshot, error) {
	body, err := c.get(ctx, WithQuery(u, url.Values{"action": {"masters"}}))
	if err != nil {
		return nil, err
	}

	var reply mastersReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	snap := &MasterSnapshot{}
	snap.Set.Students = decodeEach[models.Student](reply.Students, &snap.Malformed)
	snap.Set.Teachers = decodeEach[models.Teacher](reply.Teachers, &snap.Malformed)
	snap.Set.Subjects = decodeEach[models.Subject](reply.Subjects, &snap.Malformed)
	return snap, nil
}

type mastersUpsertBody struct {
	Action   string           `json:"action"`
	Students []models.Student `json:"siswa"`
	Teachers []models.Teacher `json:"guru"`
	Subjects []models.Subject `json:"mapel"`
}

func (c *HTTPClient) PushMasters(ctx context.Context, u string, set models.MasterSet) error {
	_, err := c.post(ctx, u, mastersUpsertBody{
		Action:   "mastersUpsert",
		Students: nonNil(set.Students),
		Teachers: nonNil(set.Teachers),
		Subjects: nonNil(set.Subjects),
	})
	return err
}

type reportBody struct {
	Action string             `json:"action"`
	Rows   []models.ReportRow `json:"rows"`
}

func (c *HTTPClient) PushReport(ctx context.Context, u string, rows []models.ReportRow) error {
	_, err := c.post(ctx, u, reportBody{Action: "reportUpsert", Rows: nonNil(rows)})
	return err
}

type photoURLBody struct {
	Action string `json:"action"`
	Key    string `json:"key"`
}

type photoURLReply struct {
	OK  bool   `json:"ok"`
	URL string `json:"url"`
}

func (c *HTTPClient) PhotoUploadURL(ctx context.Context, u, key string) (string, error) {
	body, err := c.post(ctx, u, photoURLBody{Action: "photoUploadUrl", Key: key})
	if err != nil {
		return "", err
	}
	var reply photoURLReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !reply.OK || reply.URL == "" {
		return "", fmt.Errorf("%w: no upload url", ErrMalformedResponse)
	}
	return reply.URL, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
