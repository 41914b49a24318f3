// Package parser reads sink files back into change records.
package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/data/sink"
	"github.com/penwyp/go-state-sight/internal/util"
)

// ParseFile parses the sink file at path written in format.
func ParseFile(path string, format sink.Format) ([]model.ChangeRecord, error) {
	util.LogDebug("parsing sink file", util.F("path", path), util.F("format", string(format)))

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := Parse(file, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// Parse reads records in format from r.
func Parse(r io.Reader, format sink.Format) ([]model.ChangeRecord, error) {
	switch format {
	case sink.FormatJSON:
		return ParseJSON(r)
	case sink.FormatCSV:
		return ParseCSV(r)
	case sink.FormatText:
		return ParseText(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ParseJSON reads a JSON array of records. An empty input yields no records.
func ParseJSON(r io.Reader) ([]model.ChangeRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []model.ChangeRecord
	if err := sonic.ConfigStd.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ParseCSV reads rows written under sink.CSVHeader.
func ParseCSV(r io.Reader) ([]model.ChangeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(sink.CSVHeader)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.Join(header, ",") != strings.Join(sink.CSVHeader, ",") {
		return nil, fmt.Errorf("unexpected csv header %v", header)
	}

	var records []model.ChangeRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		record, err := csvRecord(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func csvRecord(row []string) (model.ChangeRecord, error) {
	var rawChange any
	if err := sonic.ConfigStd.UnmarshalFromString(row[2], &rawChange); err != nil {
		return model.ChangeRecord{}, fmt.Errorf("decode change: %w", err)
	}
	change, err := model.DecodeChange(rawChange)
	if err != nil {
		return model.ChangeRecord{}, err
	}

	var state model.Snapshot
	if err := state.UnmarshalJSON([]byte(row[3])); err != nil {
		return model.ChangeRecord{}, fmt.Errorf("decode state: %w", err)
	}

	return model.ChangeRecord{
		Timestamp:        row[0],
		ChangedAttribute: row[1],
		Change:           change,
		State:            state,
	}, nil
}

// ParseText reads one record per line. Lines that do not decode are skipped.
func ParseText(r io.Reader) ([]model.ChangeRecord, error) {
	var records []model.ChangeRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record model.ChangeRecord
		if err := record.UnmarshalJSON([]byte("{" + line + "}")); err != nil {
			util.LogDebug("skip invalid record line", util.F("line", lineCount), util.F("error", err.Error()))
			continue
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
