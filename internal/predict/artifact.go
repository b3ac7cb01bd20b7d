package predict

import (
	"encoding/json"
	"fmt"
)

// Activation names supported by network layers
const (
	ActivationLinear = "linear"
	ActivationReLU   = "relu"
)

// Layer is one dense layer. Weights are indexed [output][input].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// Network is a trained dense regression network with a single output
type Network struct {
	Name   string  `json:"name"`
	Layers []Layer `json:"layers"`
}

// Transformer is a fitted standard scaler: (x - mean) / scale per feature
type Transformer struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// ParseNetwork decodes and checks a model artifact
func ParseNetwork(data []byte) (*Network, error) {
	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(n.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	width := -1
	for i, l := range n.Layers {
		if len(l.Weights) == 0 {
			return nil, fmt.Errorf("layer %d has no weights", i)
		}
		if len(l.Bias) != len(l.Weights) {
			return nil, fmt.Errorf("layer %d: %d biases for %d outputs", i, len(l.Bias), len(l.Weights))
		}
		in := len(l.Weights[0])
		for _, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d has ragged weights", i)
			}
		}
		if width >= 0 && in != width {
			return nil, fmt.Errorf("layer %d expects %d inputs, previous layer has %d outputs", i, in, width)
		}
		switch l.Activation {
		case "", ActivationLinear, ActivationReLU:
		default:
			return nil, fmt.Errorf("layer %d: unsupported activation %q", i, l.Activation)
		}
		width = len(l.Weights)
	}
	if width != 1 {
		return nil, fmt.Errorf("model must have a single output, has %d", width)
	}
	return &n, nil
}

// InputWidth is the number of features the first layer expects
func (n *Network) InputWidth() int {
	return len(n.Layers[0].Weights[0])
}

func (n *Network) forward(x []float64) float64 {
	for _, l := range n.Layers {
		out := make([]float64, len(l.Weights))
		for j, row := range l.Weights {
			sum := l.Bias[j]
			for i, w := range row {
				sum += w * x[i]
			}
			if l.Activation == ActivationReLU && sum < 0 {
				sum = 0
			}
			out[j] = sum
		}
		x = out
	}
	return x[0]
}

// ParseTransformer decodes and checks a transformer artifact
func ParseTransformer(data []byte) (*Transformer, error) {
	var t Transformer
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transformer: %w", err)
	}
	if len(t.Mean) == 0 || len(t.Mean) != len(t.Scale) {
		return nil, fmt.Errorf("transformer has %d means and %d scales", len(t.Mean), len(t.Scale))
	}
	if len(t.FeatureNames) != 0 && len(t.FeatureNames) != len(t.Mean) {
		return nil, fmt.Errorf("transformer has %d feature names for %d features", len(t.FeatureNames), len(t.Mean))
	}
	for i, s := range t.Scale {
		if s == 0 {
			return nil, fmt.Errorf("transformer scale %d is zero", i)
		}
	}
	return &t, nil
}

// Width is the number of features the transformer was fitted on
func (t *Transformer) Width() int {
	return len(t.Mean)
}

func (t *Transformer) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - t.Mean[i]) / t.Scale[i]
	}
	return out
}
