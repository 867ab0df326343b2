package models

import "encoding/json"

const UploadPredictURL = "/images/upload-and-predict"

// Prediction is what the image classifier returns. Only the result label is
// part of the contract; everything else the service sends along is kept
// verbatim in Raw.
type Prediction struct {
	Result string `json:"result"`

	Raw map[string]json.RawMessage `json:"-"`
}

func (p *Prediction) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if res, ok := raw["result"]; ok {
		if err := json.Unmarshal(res, &p.Result); err != nil {
			return err
		}
	}
	delete(raw, "result")
	if len(raw) > 0 {
		p.Raw = raw
	}
	return nil
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Raw)+1)
	for k, v := range p.Raw {
		out[k] = v
	}
	res, err := json.Marshal(p.Result)
	if err != nil {
		return nil, err
	}
	out["result"] = res
	return json.Marshal(out)
}

// PredictionResult is the answer of the combined upload-and-predict call:
// where the stored image ended up plus the classifier's verdict.
type PredictionResult struct {
	ImageURL   string     `json:"imageUrl"`
	Prediction Prediction `json:"prediction"`
}
