package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// readTable loads fixture rows from a CSV file with a header line, or from
// a YAML list of mappings. Empty CSV cells are dropped so that they fall
// back to defaults the same way missing YAML keys do.
func readTable(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSVTable(f)
	case ".yaml", ".yml":
		return parseYAMLTable(f)
	default:
		return nil, fmt.Errorf("unsupported table format %q (want .csv, .yaml or .yml)", filepath.Ext(path))
	}
}

func parseCSVTable(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	rows := []map[string]string{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows), err)
		}
		row := make(map[string]string, len(header))
		for i, cell := range record {
			if cell != "" {
				row[header[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseYAMLTable(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return []map[string]string{}, nil
		}
		return nil, fmt.Errorf("decode yaml table: %w", err)
	}

	rows := make([]map[string]string, 0, len(raw))
	for i, m := range raw {
		row := make(map[string]string, len(m))
		for k, node := range m {
			if node.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("row %d: column %q must be a scalar", i, k)
			}
			row[k] = node.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}
