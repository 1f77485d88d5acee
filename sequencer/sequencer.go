// ABOUTME: Prompt sequencing state machine for taking a survey
// ABOUTME: Walks the ordered prompt list, applies conditions, and records answers
package sequencer

import (
	"fmt"

	"github.com/harperreed/fieldwork/condition"
	"github.com/harperreed/fieldwork/models"
	"github.com/harperreed/fieldwork/response"
)

// Rendered is the state of one rendered prompt widget. The sequencer
// buffers one per visited index so navigating back and forward restores
// the same widget without re-derivation.
type Rendered interface {
	// Validate checks the pending answer and returns a user-facing
	// message when it fails.
	Validate() error
	// Value returns the captured answer.
	Value() any
	// IsImage reports whether Value is an image asset reference.
	IsImage() bool
}

// RenderFunc produces the rendered state for a prompt. buffered is the
// previously buffered state for the same index, nil on first visit.
type RenderFunc func(p *models.Prompt, buffered Rendered) (Rendered, error)

// ErrNotAtSubmitPage is returned when Submit is called mid-survey.
var ErrNotAtSubmitPage = fmt.Errorf("sequencer: not at submit page")

// Sequencer walks a survey's ordered prompt list. Its state is either
// at prompt index i, or at the submit page once i reaches the prompt
// count. Prompts whose condition fails against the answers collected so
// far are recorded as NOT_DISPLAYED and skipped automatically.
type Sequencer struct {
	survey  *models.Survey
	handle  *response.Handle
	render  RenderFunc
	index   int
	buffers map[int]Rendered
}

// New starts a sequencer at the first prompt whose condition passes
// against the empty response map. Prompts passed over on the way are
// recorded as NOT_DISPLAYED.
func New(survey *models.Survey, handle *response.Handle, render RenderFunc) (*Sequencer, error) {
	s := &Sequencer{
		survey:  survey,
		handle:  handle,
		render:  render,
		buffers: make(map[int]Rendered),
	}
	if err := s.advance(); err != nil {
		return nil, err
	}
	return s, nil
}

// AtSubmitPage reports whether every prompt has been passed.
func (s *Sequencer) AtSubmitPage() bool {
	return s.index >= len(s.survey.Prompts)
}

// Index returns the current prompt index.
func (s *Sequencer) Index() int {
	return s.index
}

// Current returns the current prompt and its rendered state, rendering
// it on first visit and reusing the buffer afterwards. At the submit
// page both are nil.
func (s *Sequencer) Current() (*models.Prompt, Rendered, error) {
	if s.AtSubmitPage() {
		return nil, nil, nil
	}
	p := &s.survey.Prompts[s.index]
	if buf, ok := s.buffers[s.index]; ok && buf != nil {
		return p, buf, nil
	}
	r, err := s.render(p, s.buffers[s.index])
	if err != nil {
		return nil, nil, err
	}
	s.buffers[s.index] = r
	return p, r, nil
}

// Next records the current prompt's answer and advances. With skipped
// set, the prompt must be skippable and the SKIPPED sentinel is recorded;
// skipping a non-skippable prompt is a caller-contract violation and a
// silent no-op. Otherwise the rendered answer is validated first; a
// validation failure is returned and the state does not advance.
func (s *Sequencer) Next(skipped bool) error {
	if s.AtSubmitPage() {
		return nil
	}
	p := &s.survey.Prompts[s.index]

	if skipped {
		if !p.Skippable {
			return nil
		}
		if err := s.handle.Respond(p.ID, models.Skipped, false); err != nil {
			return err
		}
		s.index++
		return s.advance()
	}

	_, r, err := s.Current()
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.handle.Respond(p.ID, r.Value(), r.IsImage()); err != nil {
		return err
	}
	s.index++
	return s.advance()
}

// Previous steps back one prompt, then keeps stepping back past prompts
// whose condition fails, stopping no earlier than index 0. Nothing is
// recorded; a prior answer stays until the prompt is re-submitted.
func (s *Sequencer) Previous() error {
	if s.index == 0 {
		return nil
	}
	s.index--
	for s.index > 0 {
		show, err := s.visible(s.index)
		if err != nil {
			return err
		}
		if show {
			break
		}
		s.index--
	}
	return nil
}

// Submit finalizes the response. Only legal from the submit page.
func (s *Sequencer) Submit() error {
	if !s.AtSubmitPage() {
		return ErrNotAtSubmitPage
	}
	return s.handle.Submit()
}

// advance records NOT_DISPLAYED for every prompt at and after the current
// index whose condition fails, stopping at the first visible prompt or
// the submit page.
func (s *Sequencer) advance() error {
	for !s.AtSubmitPage() {
		show, err := s.visible(s.index)
		if err != nil {
			return err
		}
		if show {
			return nil
		}
		p := &s.survey.Prompts[s.index]
		if err := s.handle.Respond(p.ID, models.NotDisplayed, false); err != nil {
			return err
		}
		s.index++
	}
	return nil
}

// visible evaluates the prompt's condition against the answers collected
// so far. A malformed condition is a definition error and propagates.
func (s *Sequencer) visible(i int) (bool, error) {
	p := &s.survey.Prompts[i]
	expr := p.DecodedCondition()
	if expr == "" {
		return true, nil
	}
	bindings := make(map[string]any)
	for id, rec := range s.handle.Responses() {
		bindings[id] = rec.Value
	}
	return condition.Evaluate(expr, bindings)
}
