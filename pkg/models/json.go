package models

import json "github.com/goccy/go-json"

func marshalString(s string) ([]byte, error) {
	return json.Marshal(s)
}
