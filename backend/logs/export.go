package logs

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"ID", "Timestamp", "Level", "Type", "Category", "Operation",
	"Status", "Priority", "HTTP Method", "Endpoint", "Entity ID",
	"Entity Type", "User ID", "IP Address", "Duration", "Message",
}

// WriteCSV writes the entries in the export column order, header row first.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		duration := ""
		if e.Duration != nil {
			duration = strconv.Itoa(*e.Duration)
		}
		row := []string{
			e.ID, e.Timestamp, e.Level, e.Type, e.Category, e.Operation,
			e.Status, e.Priority, e.HTTPMethod, e.Endpoint, e.EntityID,
			e.EntityType, e.UserID, e.IPAddress, duration, e.Message,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
