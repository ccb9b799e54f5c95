package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"
)

var csvHeader = []string{"created_at", "actor_email", "action", "label", "entity_type", "entity_id", "ip", "user_agent", "metadata"}

// WriteCSV renders entries as a CSV document with a header row.
func WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		metadata := ""
		if len(e.Metadata) > 0 {
			encoded, err := json.Marshal(e.Metadata)
			if err != nil {
				return nil, err
			}
			metadata = string(encoded)
		}
		record := []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.ActorEmail,
			e.Action,
			Describe(e.Action, e.Metadata),
			e.EntityType,
			e.EntityID,
			e.IP,
			e.UserAgent,
			metadata,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
