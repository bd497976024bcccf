package gemini

import "fmt"

const (
	defaultTemperature     = 0.7
	defaultTopK            = 32
	defaultTopP            = 0.9
	defaultMaxOutputTokens = 1200
)

// Option adjusts the sampling parameters of a single Generate call.
type Option func(*params)

type params struct {
	temperature     float64
	topK            int
	topP            float64
	maxOutputTokens int
}

func defaultParams() params {
	return params{
		temperature:     defaultTemperature,
		topK:            defaultTopK,
		topP:            defaultTopP,
		maxOutputTokens: defaultMaxOutputTokens,
	}
}

// WithTemperature sets the sampling temperature, in [0, 2].
func WithTemperature(t float64) Option {
	return func(p *params) { p.temperature = t }
}

// WithTopK sets top-k sampling. Values <= 0 omit the field from the request.
func WithTopK(k int) Option {
	return func(p *params) { p.topK = k }
}

// WithTopP sets nucleus sampling, in [0, 1].
func WithTopP(v float64) Option {
	return func(p *params) { p.topP = v }
}

// WithMaxOutputTokens caps the generated length.
func WithMaxOutputTokens(n int) Option {
	return func(p *params) { p.maxOutputTokens = n }
}

func (p params) validate() error {
	if p.temperature < 0 || p.temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f outside [0,2]", ErrInvalidRequest, p.temperature)
	}
	if p.topP < 0 || p.topP > 1 {
		return fmt.Errorf("%w: topP %.2f outside [0,1]", ErrInvalidRequest, p.topP)
	}
	if p.maxOutputTokens <= 0 {
		return fmt.Errorf("%w: maxOutputTokens must be positive", ErrInvalidRequest)
	}
	return nil
}
