package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the relay's non-streaming chat response. Attachment payloads
// are forwarded verbatim from the backend; the has_* flags are derived from
// attachment presence, never taken from the backend independently.
type Response struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Streaming bool   `json:"streaming"`

	HasChart  bool            `json:"has_chart"`
	ChartData json.RawMessage `json:"chart_data"`

	HasDataframe  bool            `json:"has_dataframe"`
	DataframeData json.RawMessage `json:"dataframe_data"`

	HasNews  bool            `json:"has_news"`
	NewsData json.RawMessage `json:"news_data"`

	HasProfile  bool            `json:"has_profile"`
	ProfileData json.RawMessage `json:"profile_data"`

	ExplanationText string `json:"explanation_text,omitempty"`
}

// backendResponse mirrors the Stella backend's /chat body. Attachments are
// kept raw so their shape survives the round trip untouched.
type backendResponse struct {
	Response        string          `json:"response"`
	SessionID       string          `json:"session_id"`
	ChartData       json.RawMessage `json:"chart_data"`
	DataframeData   json.RawMessage `json:"dataframe_data"`
	NewsData        json.RawMessage `json:"news_data"`
	ProfileData     json.RawMessage `json:"profile_data"`
	ExplanationText string          `json:"explanation_text"`
}

var jsonNull = []byte("null")

// present reports whether a raw attachment field carries a value.
// Both an absent field and an explicit JSON null count as missing.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, jsonNull)
}

// normalize maps missing attachments to nil so they serialize as null.
func normalize(raw json.RawMessage) json.RawMessage {
	if !present(raw) {
		return nil
	}
	return raw
}

// FromBackend maps a backend /chat JSON body into a Response.
// Timestamp and Streaming are left for the caller to fill.
func FromBackend(body []byte) (*Response, error) {
	var b backendResponse
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decoding backend chat response: %w", err)
	}

	return &Response{
		Response:  b.Response,
		SessionID: b.SessionID,

		HasChart:  present(b.ChartData),
		ChartData: normalize(b.ChartData),

		HasDataframe:  present(b.DataframeData),
		DataframeData: normalize(b.DataframeData),

		HasNews:  present(b.NewsData),
		NewsData: normalize(b.NewsData),

		HasProfile:  present(b.ProfileData),
		ProfileData: normalize(b.ProfileData),

		ExplanationText: b.ExplanationText,
	}, nil
}
