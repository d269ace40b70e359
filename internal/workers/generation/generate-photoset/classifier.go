// internal/workers/generation/generate-photoset/classifier.go
package generatephotoset

import (
	"errors"
	"regexp"

	"photoshoot-api/internal/common/gemini"

	"google.golang.org/genai"
)

// FailureClass decides what the attempt loop does after a backend error.
type FailureClass int

const (
	// ClassFatal aborts the task.
	ClassFatal FailureClass = iota
	// ClassModel moves on to the next model with the same key.
	ClassModel
	// ClassQuota skips the remaining models of the key.
	ClassQuota
)

func (c FailureClass) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassModel:
		return "model"
	default:
		return "fatal"
	}
}

// Classifier maps a backend error to a FailureClass.
type Classifier func(err error) FailureClass

var (
	quotaPattern = regexp.MustCompile(`(?i)quota|billing|rate[ _-]?limit|\brate\b|exceed|free_tier|resource_exhausted|\b(429|402|403)\b`)
	modelPattern = regexp.MustCompile(`(?i)model|not\s*found|unsupported|invalid`)
)

// DefaultClassifier prefers the structured status of a Gemini API error and
// falls back to keyword matching on the message.
func DefaultClassifier(err error) FailureClass {
	if err == nil || errors.Is(err, gemini.ErrNoImage) {
		return ClassFatal
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if class, ok := classifyAPIError(apiErr); ok {
			return class
		}
		return classifyMessage(apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		if class, ok := classifyAPIError(*apiErrPtr); ok {
			return class
		}
		return classifyMessage(apiErrPtr.Message)
	}

	return classifyMessage(err.Error())
}

func classifyAPIError(e genai.APIError) (FailureClass, bool) {
	switch e.Code {
	case 429, 402, 403:
		return ClassQuota, true
	case 404:
		return ClassModel, true
	}
	switch e.Status {
	case "RESOURCE_EXHAUSTED", "PERMISSION_DENIED":
		return ClassQuota, true
	case "NOT_FOUND":
		return ClassModel, true
	}
	return ClassFatal, false
}

func classifyMessage(msg string) FailureClass {
	switch {
	case quotaPattern.MatchString(msg):
		return ClassQuota
	case modelPattern.MatchString(msg):
		return ClassModel
	default:
		return ClassFatal
	}
}
