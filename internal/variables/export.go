// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package variables

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSVHeader is the first row of an exported CSV document.
var CSVHeader = []string{"section_id", "section_type", "field", "label", "type", "value"}

// now is replaced in tests.
var now = time.Now

// Document is the JSON export of a page: its variables plus the raw
// sections they came from.
type Document struct {
	Template   string     `json:"template"`
	ExportedAt time.Time  `json:"exportedAt"`
	Variables  []Variable `json:"variables"`
	Sections   []Section  `json:"sections"`
}

// ExportJSON renders the variables and sections as an indented JSON
// document.
func ExportJSON(templateName string, sections []Section) ([]byte, error) {
	if sections == nil {
		sections = []Section{}
	}
	doc := Document{
		Template:   templateName,
		ExportedAt: now().UTC().Truncate(time.Second),
		Variables:  Extract(sections),
		Sections:   sections,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return b, nil
}

// ParseJSON reads a document produced by ExportJSON.
func ParseJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json export: %w", err)
	}
	if doc.Variables == nil {
		doc.Variables = []Variable{}
	}
	return &doc, nil
}

// ExportCSV renders the variables as CSV.
func ExportCSV(sections []Section) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sections); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the variables of sections to w as CSV with CSVHeader as
// the first row. String values are written as is; every other value is
// JSON encoded.
func WriteCSV(w io.Writer, sections []Section) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range Extract(sections) {
		cell, err := encodeCell(v.Value)
		if err != nil {
			return fmt.Errorf("encode %s.%s: %w", v.SectionID, v.Field, err)
		}
		row := []string{v.SectionID, string(v.SectionType), v.Field, v.Label, string(v.Type), cell}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Row is one parsed CSV line.
type Row struct {
	SectionID   string      `json:"sectionId"`
	SectionType SectionType `json:"sectionType"`
	Field       string      `json:"field"`
	Label       string      `json:"label"`
	Type        FieldType   `json:"type"`
	Value       any         `json:"value"`
}

// Variable converts the row back into a Variable.
func (r Row) Variable() Variable {
	return Variable(r)
}

// ParseCSV reads a CSV document produced by WriteCSV. The header row is
// optional. Rows with fewer than six columns are skipped. A value cell
// starting with '[' or '{' is decoded as JSON when it is valid JSON, and
// kept as text otherwise. Only malformed CSV is an error.
func ParseCSV(data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	rows := []Row{}
	for i, rec := range records {
		if len(rec) < len(CSVHeader) {
			continue
		}
		if i == 0 && isHeader(rec) {
			continue
		}
		rows = append(rows, Row{
			SectionID:   rec[0],
			SectionType: SectionType(rec[1]),
			Field:       rec[2],
			Label:       rec[3],
			Type:        FieldType(rec[4]),
			Value:       decodeCell(rec[5]),
		})
	}
	return rows, nil
}

// Variables converts parsed rows into variables for Apply.
func Variables(rows []Row) []Variable {
	out := make([]Variable, len(rows))
	for i, r := range rows {
		out[i] = r.Variable()
	}
	return out
}

func isHeader(rec []string) bool {
	for i, h := range CSVHeader {
		if strings.TrimSpace(rec[i]) != h {
			return false
		}
	}
	return true
}

func encodeCell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCell(cell string) any {
	if strings.HasPrefix(cell, "[") || strings.HasPrefix(cell, "{") {
		var v any
		if err := json.Unmarshal([]byte(cell), &v); err == nil {
			return v
		}
	}
	return cell
}

// decodeJSONValue converts v into dst by way of JSON.
func decodeJSONValue(v, dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
