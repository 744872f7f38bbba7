package codec

import "encoding/json"

// JSON is a format that stores values as JSON in either representation.
var JSON Format = jsonFormat{}

type jsonFormat struct{}

func (jsonFormat) Name() string { return "json" }

func (jsonFormat) Text(v any) Text {
	data, err := json.Marshal(v)
	if err != nil {
		return TextErr(err)
	}
	return TextOf(string(data))
}

func (jsonFormat) Binary(v any) Binary {
	data, err := json.Marshal(v)
	if err != nil {
		return BinaryErr(err)
	}
	return BinaryOf(data)
}

func (jsonFormat) FromText(t Text, v any) error {
	if t.Err != nil {
		return t.Err
	}
	return json.Unmarshal([]byte(t.Value), v)
}

func (jsonFormat) FromBinary(b Binary, v any) error {
	if b.Err != nil {
		return b.Err
	}
	return json.Unmarshal(b.Value, v)
}
