package analysis

import "fmt"

// ParseForm validates and normalizes raw form data into a typed Form.
// Factor selections arrive from the frontend as JSON booleans or as the
// strings "true"/"false"; both are accepted and normalized once here.
// Anything else in a factor map is an input error.
func ParseForm(raw map[string]interface{}) (*Form, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no form data received")
	}

	form := &Form{
		Industry:          stringField(raw, "industry"),
		GeographicalFocus: stringField(raw, "geographical_focus"),
		BusinessName:      stringField(raw, "business_name"),
		TargetMarket:      stringField(raw, "target_market"),
		AdditionalNotes:   stringField(raw, "additional_notes"),
		Factors:           make(map[Dimension]map[string]bool, len(Dimensions)),
	}

	for _, d := range Dimensions {
		factors, err := parseFactors(raw, d)
		if err != nil {
			return nil, err
		}
		form.Factors[d] = factors
	}
	return form, nil
}

func parseFactors(raw map[string]interface{}, d Dimension) (map[string]bool, error) {
	key := d.FactorKey()
	v, ok := raw[key]
	if !ok || v == nil {
		return map[string]bool{}, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", key, v)
	}

	factors := make(map[string]bool, len(m))
	for name, value := range m {
		switch value := value.(type) {
		case bool:
			factors[name] = value
		case string:
			switch value {
			case "true":
				factors[name] = true
			case "false":
				factors[name] = false
			default:
				// per-category free text rides along with the checkboxes
				if name == "notes" {
					continue
				}
				return nil, fmt.Errorf("%s.%s: expected true/false, got %q", key, name, value)
			}
		default:
			return nil, fmt.Errorf("%s.%s: expected a boolean, got %T", key, name, value)
		}
	}
	return factors, nil
}

func stringField(raw map[string]interface{}, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}
