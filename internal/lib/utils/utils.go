// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// PrintJSON pretty-prints v as indented JSON to stdout.
func PrintJSON(v interface{}) error {
	return WriteJSON(os.Stdout, v)
}

// WriteJSON pretty-prints v as indented JSON to w.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("marshalling JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
