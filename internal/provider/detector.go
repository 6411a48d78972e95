package provider

import (
	"errors"
	"fmt"

	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/record"
)

// ErrNoProvider is returned when no adapter recognizes the headers and none parses a sample row.
var ErrNoProvider = errors.New("unable to detect DNS provider")

// Detection methods.
const (
	MethodHeaders = "headers"
	MethodTrial   = "trial"
	MethodForced  = "forced"
)

// MinHeaderConfidence is the header score below which the detector falls back to trial parsing.
const MinHeaderConfidence = 0.5

const (
	tokenWeight   = 0.5
	tripleWeight  = 0.35
	genericWeight = 0.15
	foreignWeight = 0.15

	// genericQuota is how many generic DNS headers earn full generic credit.
	genericQuota = 4
)

var genericTokens = []string{"name", "host", "type", "ttl", "content", "value", "data", "priority"}

// Detection is the outcome of provider detection.
type Detection struct {
	Adapter    Adapter
	Confidence float64
	Method     string
}

// Candidate is one adapter's header score.
type Candidate struct {
	Adapter    Adapter
	Confidence float64
	Cleared    bool // the adapter's own Detect check passed
}

// Detector picks the adapter for an export.
type Detector struct {
	registry *Registry
	logger   *logger.Logger
}

// NewDetector creates a detector over registry.
func NewDetector(registry *Registry, log *logger.Logger) *Detector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Detector{registry: registry, logger: log}
}

// Registry returns the detector's registry.
func (d *Detector) Registry() *Registry {
	return d.registry
}

// ByName bypasses detection and returns the named adapter with full confidence.
func (d *Detector) ByName(name string) (*Detection, error) {
	a, err := d.registry.ByName(name)
	if err != nil {
		return nil, err
	}
	return &Detection{Adapter: a, Confidence: 1, Method: MethodForced}, nil
}

// Detect scores the headers against every adapter. When no adapter clears with at least
// MinHeaderConfidence, each adapter trial-parses samples and the best success ratio wins.
// Without samples the best cleared header candidate is accepted as is.
func (d *Detector) Detect(headers []string, samples []record.Row) (*Detection, error) {
	candidates := d.Score(headers)

	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if !c.Cleared {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}

	if best != nil && best.Confidence >= MinHeaderConfidence {
		d.logger.Debugw("provider detected from headers",
			"provider", best.Adapter.Name(),
			"confidence", best.Confidence)
		return &Detection{Adapter: best.Adapter, Confidence: best.Confidence, Method: MethodHeaders}, nil
	}

	if trial := d.trialParse(samples); trial != nil {
		d.logger.Debugw("provider detected by trial parsing",
			"provider", trial.Adapter.Name(),
			"confidence", trial.Confidence,
			"samples", len(samples))
		return trial, nil
	}

	if len(samples) == 0 && best != nil {
		d.logger.Debugw("provider detected from headers below threshold, no samples to trial",
			"provider", best.Adapter.Name(),
			"confidence", best.Confidence)
		return &Detection{Adapter: best.Adapter, Confidence: best.Confidence, Method: MethodHeaders}, nil
	}

	return nil, fmt.Errorf("%w (headers: %v)", ErrNoProvider, headers)
}

// Score returns the header confidence of every adapter in registry order.
func (d *Detector) Score(headers []string) []Candidate {
	present := headerSet(headers)
	adapters := d.registry.All()

	out := make([]Candidate, 0, len(adapters))
	for _, a := range adapters {
		sig := a.Signature()
		own := make(map[string]bool)
		for _, group := range [][]string{sig.Tokens, sig.NameHeaders, sig.TypeHeaders, sig.ValueHeaders} {
			for _, h := range group {
				own[h] = true
			}
		}

		score := 0.0
		if len(sig.Tokens) > 0 {
			score += tokenWeight * fraction(present, sig.Tokens)
		}
		if hasAny(present, sig.NameHeaders) && hasAny(present, sig.TypeHeaders) && hasAny(present, sig.ValueHeaders) {
			score += tripleWeight
		}
		generic := 0
		for _, t := range genericTokens {
			if present[t] {
				generic++
			}
		}
		score += genericWeight * min(1, float64(generic)/genericQuota)

		foreign := make(map[string]bool)
		for _, other := range adapters {
			if other.Name() == a.Name() {
				continue
			}
			for _, t := range other.Signature().Tokens {
				if present[t] && !own[t] {
					foreign[t] = true
				}
			}
		}
		score -= foreignWeight * float64(len(foreign))

		out = append(out, Candidate{
			Adapter:    a,
			Confidence: clamp(score),
			Cleared:    a.Detect(headers),
		})
	}
	return out
}

func (d *Detector) trialParse(samples []record.Row) *Detection {
	if len(samples) == 0 {
		return nil
	}

	var best *Detection
	for _, a := range d.registry.All() {
		ok := 0
		for _, row := range samples {
			if _, err := a.Parse(row); err == nil {
				ok++
			}
		}
		if ok == 0 {
			continue
		}
		conf := float64(ok) / float64(len(samples))
		if best == nil || conf > best.Confidence {
			best = &Detection{Adapter: a, Confidence: conf, Method: MethodTrial}
		}
	}
	return best
}

func fraction(present map[string]bool, tokens []string) float64 {
	hit := 0
	for _, t := range tokens {
		if present[t] {
			hit++
		}
	}
	return float64(hit) / float64(len(tokens))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
