// Package recovery extracts structured JSON from noisy or truncated model output.
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Shape is the top-level JSON shape a caller expects.
type Shape int

const (
	SingleObject Shape = iota
	ArrayOfObjects
)

func (s Shape) String() string {
	if s == ArrayOfObjects {
		return "array-of-objects"
	}
	return "single-object"
}

func (s Shape) opening() byte {
	if s == ArrayOfObjects {
		return '['
	}
	return '{'
}

// ErrMalformedResponse is returned when no value of the expected shape can be recovered.
var ErrMalformedResponse = errors.New("malformed model response")

// Result is a successfully recovered value.
type Result struct {
	// Value is a map[string]any for SingleObject or a []any for ArrayOfObjects.
	Value any
	// Partial is set when the array had to be cut back to its last closed element.
	Partial bool
	// Dropped counts the object elements that were started but lost in the cut.
	Dropped int
}

var (
	leadingFence  = regexp.MustCompile("^```(?:json|JSON)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// Recover parses raw model text as the expected shape. Arrays that were cut
// off mid-element are repaired by keeping every element that closed before
// the truncation point. A single object is never repaired.
func Recover(raw string, shape Shape) (Result, error) {
	text := stripFence(raw)

	start := strings.IndexByte(text, shape.opening())
	if start < 0 {
		return Result{}, fmt.Errorf("%w: no %q in response", ErrMalformedResponse, shape.opening())
	}
	text = text[start:]

	value, strictErr := decode(text, shape)
	if strictErr == nil {
		return Result{Value: value}, nil
	}
	if shape == SingleObject {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, strictErr)
	}

	scan := scanArray(text)
	// Walk cut points from the last one back so a broken element in the middle
	// only costs the elements after it.
	for i := len(scan.cuts) - 1; i >= 0; i-- {
		repaired := text[:scan.cuts[i]] + "]"
		value, err := decode(repaired, shape)
		if err != nil {
			continue
		}
		kept := len(value.([]any))
		dropped := scan.started - kept
		if dropped < 0 {
			dropped = 0
		}
		return Result{Value: value, Partial: true, Dropped: dropped}, nil
	}

	if len(scan.cuts) == 0 {
		return Result{}, fmt.Errorf("%w: no complete element in array: %v", ErrMalformedResponse, strictErr)
	}
	return Result{}, fmt.Errorf("%w: array recovery failed: %v", ErrMalformedResponse, strictErr)
}

// RecoverObject recovers a single JSON object.
func RecoverObject(raw string) (map[string]any, error) {
	res, err := Recover(raw, SingleObject)
	if err != nil {
		return nil, err
	}
	return res.Value.(map[string]any), nil
}

// RecoverObjects recovers an array and keeps only its object elements.
func RecoverObjects(raw string) ([]map[string]any, Result, error) {
	res, err := Recover(raw, ArrayOfObjects)
	if err != nil {
		return nil, res, err
	}
	items := res.Value.([]any)
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}
	return objects, res, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.Contains(text, "```") {
		return text
	}
	text = leadingFence.ReplaceAllString(text, "")
	return trailingFence.ReplaceAllString(text, "")
}

// decode reads the first JSON value from text. Anything after a complete
// value (a closing fence, trailing commentary) is ignored.
func decode(text string, shape Shape) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}

	switch shape {
	case ArrayOfObjects:
		arr, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", value)
		}
		return arr, nil
	default:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		return obj, nil
	}
}
