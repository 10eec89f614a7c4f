package steps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a json field path to a human-readable message. A nil map
// means the payload validated.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// NewPayload returns the empty typed payload for a step number, or nil for
// an unknown step.
func NewPayload(step int) any {
	switch step {
	case 1:
		return &ControllerIdentity{}
	case 2:
		return &DataCategories{}
	case 3:
		return &DataSubjects{}
	case 4:
		return &Purposes{}
	case 5:
		return &LegalBases{}
	case 6:
		return &DataSources{}
	case 7:
		return &RecipientsTransfers{}
	case 8:
		return &Retention{}
	case 9:
		return &SecurityMeasures{}
	case 10:
		return &SubjectRights{}
	case 11:
		return &AutomatedDecisions{}
	case 12:
		return &PolicyMeta{}
	default:
		return nil
	}
}

// Validate decodes and validates one step payload. It is pure and total:
// it never panics and never mutates anything outside the returned payload.
// On success the returned payload is the canonical typed value (with derived
// fields recomputed); on failure the payload is nil and the field errors
// describe every violation found.
func Validate(step int, raw json.RawMessage) (any, FieldErrors) {
	payload := NewPayload(step)
	if payload == nil {
		return nil, FieldErrors{"step": fmt.Sprintf("unknown step %d", step)}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return nil, FieldErrors{"payload": decodeMessage(err)}
	}
	// Trailing garbage after the JSON value is rejected too.
	if dec.More() {
		return nil, FieldErrors{"payload": "unexpected trailing data"}
	}

	if err := validate.Struct(payload); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, FieldErrors{"payload": err.Error()}
		}
		return nil, fieldErrorsFrom(verrs)
	}

	if fe := crossFieldRules(step, payload); len(fe) > 0 {
		return nil, fe
	}
	return payload, nil
}

// Marshal returns the canonical stored form of a validated payload.
func Marshal(payload any) (json.RawMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal step payload: %w", err)
	}
	return json.RawMessage(b), nil
}

func decodeMessage(err error) string {
	msg := err.Error()
	// json.Decoder reports unknown fields as `json: unknown field "x"`.
	if strings.Contains(msg, "unknown field") {
		return msg[strings.Index(msg, "unknown field"):]
	}
	return "invalid payload: " + msg
}

func fieldErrorsFrom(verrs validator.ValidationErrors) FieldErrors {
	fe := FieldErrors{}
	for _, v := range verrs {
		// Namespace is Struct.field.sub; drop the root struct name.
		path := v.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		fe[path] = messageFor(v)
	}
	return fe
}

func messageFor(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(v.Param(), " ", ", ")
	case "min":
		if v.Kind() == reflect.Slice {
			return "must have at least " + v.Param() + " item(s)"
		}
		return "must be at least " + v.Param()
	case "max":
		if v.Kind() == reflect.Slice {
			return "must have at most " + v.Param() + " item(s)"
		}
		return "must be at most " + v.Param()
	case "datetime":
		return "must be a date formatted as " + v.Param()
	default:
		return "is invalid (" + v.Tag() + ")"
	}
}

// crossFieldRules holds the conditional requirements the validator tags
// cannot express. It also recomputes derived fields, so callers always get
// a canonical payload.
func crossFieldRules(step int, payload any) FieldErrors {
	fe := FieldErrors{}
	switch step {
	case 2:
		p := payload.(*DataCategories)
		p.HasSensitiveData = false
		p.HasMinorData = false
		for _, c := range p.Categories {
			if sensitiveCategories[c] {
				p.HasSensitiveData = true
			}
			if c == "minors" {
				p.HasMinorData = true
			}
		}
	case 3:
		p := payload.(*DataSubjects)
		hasMinors := false
		for _, s := range p.Subjects {
			if s == "minors" {
				hasMinors = true
			}
		}
		if hasMinors && p.MinorDataDetails == nil {
			fe["minor_data_details"] = "is required when minors are a data subject category"
		}
		if !hasMinors {
			p.MinorDataDetails = nil
		}
	case 5:
		p := payload.(*LegalBases)
		hasConsent := false
		hasInterest := false
		for _, b := range p.Bases {
			if b == "consent" {
				hasConsent = true
			}
			if b == "legitimate_interest" {
				hasInterest = true
			}
		}
		if hasConsent && p.ConsentDetails == nil {
			fe["consent_details"] = "is required when consent is a selected legal basis"
		}
		if !hasConsent {
			p.ConsentDetails = nil
		}
		if hasInterest && strings.TrimSpace(p.InterestDescription) == "" {
			fe["interest_description"] = "is required when legitimate interest is a selected legal basis"
		}
	case 7:
		p := payload.(*RecipientsTransfers)
		if p.HasInternationalTransfers && len(p.Transfers) == 0 {
			fe["transfers"] = "at least one transfer is required when international transfers are declared"
		}
		if !p.HasInternationalTransfers {
			p.Transfers = nil
		}
	case 11:
		p := payload.(*AutomatedDecisions)
		if p.HasAutomatedDecisions && strings.TrimSpace(p.LogicDescription) == "" {
			fe["logic_description"] = "is required when automated decisions are declared"
		}
		if !p.HasAutomatedDecisions {
			p.LogicDescription = ""
			p.Significance = ""
		}
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}
