package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ternarybob/leadrelay/internal/models"
)

// decodeRows reads the listing "data" member. The portal keys rows by id in a
// JSON object; an empty result may be rendered as [] or null instead. Object
// order is preserved by streaming the tokens rather than decoding into a map.
func decodeRows(raw json.RawMessage) ([]models.RawRow, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		return decodeObjectRows(trimmed)
	case '[':
		return decodeArrayRows(trimmed)
	default:
		return nil, fmt.Errorf("unexpected data shape: %.32s", trimmed)
	}
}

func decodeObjectRows(raw []byte) ([]models.RawRow, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read data object: %w", err)
	}

	var rows []models.RawRow
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read row id: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected row id token %v", keyToken)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode row %s: %w", key, err)
		}

		if record, ok := value.(map[string]interface{}); ok {
			rows = append(rows, models.RawRow{ID: key, Record: models.RawRecord(record)})
		}
	}

	return rows, nil
}

func decodeArrayRows(raw []byte) ([]models.RawRow, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var values []interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode data array: %w", err)
	}

	rows := make([]models.RawRow, 0, len(values))
	for i, value := range values {
		if record, ok := value.(map[string]interface{}); ok {
			rows = append(rows, models.RawRow{ID: strconv.Itoa(i), Record: models.RawRecord(record)})
		}
	}
	return rows, nil
}

// nextSignal reduces next_page_url to a string that is empty when there are no more pages.
// Absent, null, false, 0 and "" all mean "no more pages".
func nextSignal(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
	case float64:
		if v != 0 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
