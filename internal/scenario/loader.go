package scenario

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genkernel"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

type rawDoc struct {
	Name      string        `yaml:"name"`
	ICD       string        `yaml:"icd"`
	DurationS float64       `yaml:"duration_s"`
	Seed      uint64        `yaml:"seed"`
	JitterNs  int64         `yaml:"jitter_ns"`
	Messages  []rawMessage  `yaml:"messages"`
}

type rawMessage struct {
	Name           string              `yaml:"name"`
	ErrorInjection *rawErrorInjection  `yaml:"error_injection"`
	Fields         []rawField          `yaml:"fields"`
}

type rawErrorInjection struct {
	ParityErrorPercent    float64  `yaml:"parity_error_percent"`
	NoResponsePercent     float64  `yaml:"no_response_percent"`
	LateResponsePercent   float64  `yaml:"late_response_percent"`
	WordCountErrorPercent float64  `yaml:"word_count_error_percent"`
	SyncErrorPercent      float64  `yaml:"sync_error_percent"`
	BusFailoverTimeS      *float64 `yaml:"bus_failover_time_s"`
}

type rawField struct {
	Name      string      `yaml:"name"`
	Generator string      `yaml:"generator"`
	Seed      *uint64     `yaml:"seed"`

	Value float64 `yaml:"value"`

	Start  float64  `yaml:"start"`
	Step   float64  `yaml:"step"`
	WrapAt *float64 `yaml:"wrap_at"`
	WrapTo float64  `yaml:"wrap_to"`

	Values []float64 `yaml:"values"`
	Repeat *bool      `yaml:"repeat"`

	End       float64 `yaml:"end"`
	DurationS float64 `yaml:"duration_s"`

	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`

	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`

	Modes []rawMode `yaml:"modes"`

	Rate float64 `yaml:"rate"`

	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
	Phase     float64 `yaml:"phase"`
	Offset    float64 `yaml:"offset"`
	DutyCycle float64 `yaml:"duty_cycle"`

	Formula string `yaml:"formula"`
}

type rawMode struct {
	Weight float64 `yaml:"weight"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

var validGenerators = map[string]genkernel.Kind{
	"constant":           genkernel.KindConstant,
	"increment":          genkernel.KindIncrement,
	"pattern":            genkernel.KindPattern,
	"random_uniform":     genkernel.KindRandomUniform,
	"random_normal":      genkernel.KindRandomNormal,
	"random_multimodal":  genkernel.KindRandomMultimodal,
	"random_exponential": genkernel.KindRandomExponential,
	"sine":               genkernel.KindSine,
	"cosine":             genkernel.KindCosine,
	"square":             genkernel.KindSquare,
	"sawtooth":           genkernel.KindSawtooth,
	"ramp":               genkernel.KindRamp,
	"expression":         genkernel.KindExpression,
}

// LoadFile reads and validates a scenario document from path against
// an already-loaded ICD.
func LoadFile(path string, doc *icd.ICD) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, doc)
}

// Load parses and validates a scenario document against doc.
func Load(data []byte, doc *icd.ICD) (*Scenario, error) {
	var raw rawDoc
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	errs := &ValidationErrors{}
	if raw.DurationS <= 0 {
		errs.Add("duration_s must be > 0", raw.Name)
	}

	s := &Scenario{
		Name:           raw.Name,
		ICDPath:        raw.ICD,
		DurationS:      raw.DurationS,
		Seed:           raw.Seed,
		JitterNs:       raw.JitterNs,
		Bindings:       map[genkernel.FieldPath]genkernel.Spec{},
		ErrorInjection: map[string]genkernel.ErrorInjectionSpec{},
	}

	for _, rm := range raw.Messages {
		if _, ok := doc.MessageByName(rm.Name); !ok {
			errs.Add("scenario references unknown message", rm.Name)
			continue
		}

		if rm.ErrorInjection != nil {
			s.ErrorInjection[rm.Name] = genkernel.ErrorInjectionSpec{
				ParityErrorPercent:    rm.ErrorInjection.ParityErrorPercent,
				NoResponsePercent:     rm.ErrorInjection.NoResponsePercent,
				LateResponsePercent:   rm.ErrorInjection.LateResponsePercent,
				WordCountErrorPercent: rm.ErrorInjection.WordCountErrorPercent,
				SyncErrorPercent:      rm.ErrorInjection.SyncErrorPercent,
				BusFailoverTimeS:      rm.ErrorInjection.BusFailoverTimeS,
			}
		}

		for _, rf := range rm.Fields {
			if _, ok := doc.FieldByName(rm.Name, rf.Name); !ok {
				errs.Add("scenario references unknown field", rm.Name+"."+rf.Name)
				continue
			}
			kind, ok := validGenerators[rf.Generator]
			if !ok {
				errs.Add("unknown generator kind "+rf.Generator, rm.Name+"."+rf.Name)
				continue
			}
			s.Bindings[genkernel.FieldPath{Message: rm.Name, Field: rf.Name}] = buildSpec(kind, rf)
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return s, nil
}

func buildSpec(kind genkernel.Kind, rf rawField) genkernel.Spec {
	spec := genkernel.Spec{
		Kind:      kind,
		Seed:      rf.Seed,
		Value:     rf.Value,
		Start:     rf.Start,
		Step:      rf.Step,
		WrapAt:    rf.WrapAt,
		WrapTo:    rf.WrapTo,
		Values:    rf.Values,
		Repeat:    rf.Repeat,
		End:       rf.End,
		DurationS: rf.DurationS,
		Min:       rf.Min,
		Max:       rf.Max,
		Mean:      rf.Mean,
		StdDev:    rf.StdDev,
		Rate:      rf.Rate,
		Amplitude: rf.Amplitude,
		Period:    rf.Period,
		Phase:     rf.Phase,
		Offset:    rf.Offset,
		DutyCycle: rf.DutyCycle,
		Formula:   rf.Formula,
	}
	for _, m := range rf.Modes {
		spec.Modes = append(spec.Modes, genkernel.Mode{Weight: m.Weight, Mean: m.Mean, StdDev: m.StdDev})
	}
	return spec
}
