// ABOUTME: Survey definition validation
// ABOUTME: Catches malformed campaign configurations before a survey is taken
package models

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the survey definition for structural problems and
// returns every one found. A failing survey definition is a campaign
// authoring error, not a user mistake.
func (s *Survey) Validate() error {
	var result *multierror.Error

	if s.ID == "" {
		result = multierror.Append(result, fmt.Errorf("survey has no id"))
	}
	if len(s.Prompts) == 0 {
		result = multierror.Append(result, fmt.Errorf("survey %q has no prompts", s.ID))
	}

	seen := make(map[string]bool)
	for i := range s.Prompts {
		p := &s.Prompts[i]
		if p.ID == "" {
			result = multierror.Append(result, fmt.Errorf("prompt %d has no id", i))
			continue
		}
		if seen[p.ID] {
			result = multierror.Append(result, fmt.Errorf("duplicate prompt id %q", p.ID))
		}
		seen[p.ID] = true

		switch p.Type {
		case TypeSingleChoice, TypeMultiChoice:
			if len(p.Properties) == 0 {
				result = multierror.Append(result, fmt.Errorf("choice prompt %q has no properties", p.ID))
			}
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			result = multierror.Append(result, fmt.Errorf("prompt %q min %v exceeds max %v", p.ID, *p.Min, *p.Max))
		}
	}

	return result.ErrorOrNil()
}
