package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// RawPhotoRecord is one photo row as returned by the backend listing.
// Field names on the wire vary between backend revisions; see decodeRecord.
type RawPhotoRecord struct {
	ID         string
	StageLabel string
	ImageURL   string
	CapturedAt string // raw timestamp, empty when absent
	Comment    string
}

// Skip records why a raw array item could not be turned into a record.
type Skip struct {
	Index  int
	Reason string
}

// wireRecord accepts every field spelling the backend has used.
type wireRecord struct {
	ID         json.RawMessage `json:"id"`
	Etapa      *string         `json:"etapa"`
	Stage      *string         `json:"stage"`
	ImgURL     *string         `json:"img_url"`
	Img        *string         `json:"img"`
	URL        *string         `json:"url"`
	ImageURL   *string         `json:"image_url"`
	CreatedAt  *string         `json:"created_at"`
	Date       *string         `json:"date"`
	CapturedAt *string         `json:"captured_at"`
	Comentario *string         `json:"comentario"`
	Comment    *string         `json:"comment"`
}

// errorBody is what the backend proxy sends (with a 200) when its upstream fails.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// DecodeRecords decodes a listing body. The body must be a JSON array; each
// item becomes either a record or a Skip. Item-level problems never fail the
// whole decode.
func DecodeRecords(body []byte) ([]RawPhotoRecord, []Skip, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var eb errorBody
		if err := json.Unmarshal(trimmed, &eb); err == nil && eb.Error != "" {
			if eb.Details != "" {
				return nil, nil, fmt.Errorf("backend error: %s: %s", eb.Error, eb.Details)
			}
			return nil, nil, fmt.Errorf("backend error: %s", eb.Error)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, nil, fmt.Errorf("decoding photo list: %w", err)
	}

	records := make([]RawPhotoRecord, 0, len(items))
	var skips []Skip
	for i, raw := range items {
		rec, err := decodeRecord(raw)
		if err != nil {
			skips = append(skips, Skip{Index: i, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, skips, nil
}

// decodeRecord maps one array item. A bare string is a record holding only
// an image URL.
func decodeRecord(raw json.RawMessage) (RawPhotoRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return RawPhotoRecord{}, errors.New("empty item")
	}

	switch raw[0] {
	case '"':
		var url string
		if err := json.Unmarshal(raw, &url); err != nil {
			return RawPhotoRecord{}, err
		}
		return RawPhotoRecord{ImageURL: url}, nil
	case '{':
	default:
		return RawPhotoRecord{}, fmt.Errorf("unexpected item %.20s", raw)
	}

	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return RawPhotoRecord{}, err
	}
	id, err := decodeID(w.ID)
	if err != nil {
		return RawPhotoRecord{}, err
	}
	return RawPhotoRecord{
		ID:         id,
		StageLabel: first(w.Etapa, w.Stage),
		ImageURL:   first(w.ImgURL, w.Img, w.URL, w.ImageURL),
		CapturedAt: first(w.CreatedAt, w.Date, w.CapturedAt),
		Comment:    first(w.Comentario, w.Comment),
	}, nil
}

// decodeID accepts string and integer identifiers.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("id %s is neither string nor integer", raw)
}

// first returns the first non-nil, non-empty value.
func first(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
