package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/frcattend/attend/internal/model"
)

// AnswerWriter persists one collected answer. *store.Store satisfies it.
type AnswerWriter interface {
	AddAnswer(ctx context.Context, a model.Answer, replace bool) error
}

// SurveyPrompt collects an interstitial survey answer on the console while
// the intake session is paused. Pressing Enter with no input skips the
// survey; the checkin stands either way.
type SurveyPrompt struct {
	db  AnswerWriter
	in  *bufio.Reader
	out io.Writer
	now func() time.Time
}

// NewSurveyPrompt builds a prompt reading selections from in.
func NewSurveyPrompt(db AnswerWriter, in io.Reader, out io.Writer) *SurveyPrompt {
	return &SurveyPrompt{db: db, in: bufio.NewReader(in), out: out, now: time.Now}
}

// Collect asks the survey question and persists the answer. It returns
// (false, nil) when the student skips, mirroring a cancelled dialog.
func (p *SurveyPrompt) Collect(ctx context.Context, student model.Student, survey model.Survey) (bool, error) {
	fmt.Fprintf(p.out, "\n%s — %s\n", student.FullName(), survey.Question)
	for i, c := range survey.Choices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
	}
	switch {
	case survey.Multiselect:
		fmt.Fprint(p.out, "Choices (comma-separated, Enter to skip): ")
	case survey.AllowFreetext && len(survey.Choices) == 0:
		fmt.Fprint(p.out, "Answer (Enter to skip): ")
	default:
		fmt.Fprint(p.out, "Choice (Enter to skip): ")
	}

	line, err := readLine(ctx, p.in)
	if err != nil {
		return false, err
	}
	if line == "" {
		return false, nil
	}

	answer := model.Answer{
		StudentID:   student.ID,
		SurveyTitle: survey.Title,
		Date:        model.NewDate(p.now().Date()),
	}
	choices, freetext, err := parseSelection(line, survey)
	if err != nil {
		fmt.Fprintf(p.out, "%v\n", err)
		return false, nil
	}
	answer.Choices = choices
	answer.Freetext = freetext

	if err := p.db.AddAnswer(ctx, answer, survey.Replace); err != nil {
		return false, fmt.Errorf("save answer: %w", err)
	}
	return true, nil
}

// readLine reads one trimmed line. Cancellation is honored only between
// reads; a blocked console read cannot be interrupted portably.
func readLine(ctx context.Context, r *bufio.Reader) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseSelection maps console input onto the survey's answer shape:
// numeric tokens select choices, anything else is freetext when allowed.
func parseSelection(line string, survey model.Survey) (model.ChoiceList, *string, error) {
	if len(survey.Choices) == 0 {
		// Pure freetext survey; Validate guarantees AllowFreetext here.
		if survey.MaxLength != nil && len(line) > *survey.MaxLength {
			return nil, nil, fmt.Errorf("answer too long (max %d characters)", *survey.MaxLength)
		}
		text := line
		return nil, &text, nil
	}

	tokens := strings.Split(line, ",")
	if !survey.Multiselect && len(tokens) > 1 {
		return nil, nil, fmt.Errorf("pick a single choice")
	}

	var choices model.ChoiceList
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			if !survey.AllowFreetext {
				return nil, nil, fmt.Errorf("enter a choice number between 1 and %d", len(survey.Choices))
			}
			if survey.MaxLength != nil && len(line) > *survey.MaxLength {
				return nil, nil, fmt.Errorf("answer too long (max %d characters)", *survey.MaxLength)
			}
			text := line
			return nil, &text, nil
		}
		if n < 1 || n > len(survey.Choices) {
			return nil, nil, fmt.Errorf("enter a choice number between 1 and %d", len(survey.Choices))
		}
		choices = append(choices, survey.Choices[n-1])
	}
	if len(choices) == 0 {
		return nil, nil, fmt.Errorf("enter a choice number between 1 and %d", len(survey.Choices))
	}
	return choices, nil, nil
}
