package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

func printJSON(w io.Writer, data any) error {
	dump, err := marshalIndent(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", dump)
	return err
}

func marshalIndent(v any) ([]byte, error) {
	dump, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return dump, nil
}

func printError(w io.Writer, err any) {
	fmt.Fprintf(w, "ERROR: %v\n", err)
}
