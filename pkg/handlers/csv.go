package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arnavshah/rotation-api-go/pkg/models"
	"github.com/arnavshah/rotation-api-go/pkg/scheduler"
)

// readRows reads a CSV file with a header row into column-keyed records
func readRows(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", scheduler.ErrInvalidInput, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", scheduler.ErrInvalidInput, name)
		}
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", scheduler.ErrInvalidInput, line, err)
		}
		row := make(map[string]string, len(cols))
		for name, i := range cols {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRosterCSV reads id,last_duty[,last_slot][,present] rows. When the
// present column exists, only rows marked present are returned as present ids.
func parseRosterCSV(r io.Reader) ([]models.PersonInput, []string, error) {
	rows, err := readRows(r, "id", "last_duty")
	if err != nil {
		return nil, nil, err
	}
	roster := make([]models.PersonInput, 0, len(rows))
	var present []string
	hasPresent := false
	for _, row := range rows {
		roster = append(roster, models.PersonInput{
			ID:       row["id"],
			LastDuty: row["last_duty"],
			LastSlot: row["last_slot"],
		})
		v, ok := row["present"]
		if !ok {
			continue
		}
		hasPresent = true
		here, err := parseFlag(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: person %s: present %q", scheduler.ErrInvalidInput, row["id"], v)
		}
		if here {
			present = append(present, row["id"])
		}
	}
	if hasPresent && present == nil {
		present = []string{}
	}
	return roster, present, nil
}

func parseFlag(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "", "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// parseOverridesCSV reads track,start,end,person_ids rows, ids separated by "|"
func parseOverridesCSV(r io.Reader) ([]models.Override, error) {
	rows, err := readRows(r, "track", "start", "end", "person_ids")
	if err != nil {
		return nil, err
	}
	out := make([]models.Override, 0, len(rows))
	for _, row := range rows {
		var ids []string
		for _, id := range strings.Split(row["person_ids"], "|") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		out = append(out, models.Override{
			Track:     models.Track(strings.ToLower(row["track"])),
			Start:     row["start"],
			End:       row["end"],
			PersonIDs: ids,
		})
	}
	return out, nil
}

// writePlanCSV exports one row per seat
func writePlanCSV(w io.Writer, plan *models.Plan) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"track", "start", "end", "seat", "person_id", "degraded"}); err != nil {
		return err
	}
	for _, tp := range plan.Tracks {
		for _, a := range tp.Assignments {
			for seat, id := range a.PersonIDs {
				err := writer.Write([]string{
					string(tp.Track),
					a.Slot.Start,
					a.Slot.End,
					strconv.Itoa(seat + 1),
					id,
					strconv.FormatBool(a.Degraded),
				})
				if err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
