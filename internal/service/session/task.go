package session

import (
	"context"
	"errors"

	"github.com/hugo-lorenzo-mato/docent/internal/control"
	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
	"github.com/hugo-lorenzo-mato/docent/internal/service"
)

// taskState is one step of the per-section lifecycle.
type taskState string

const (
	statePending           taskState = "pending"
	stateAsking            taskState = "asking"
	stateAnswering         taskState = "answering"
	stateEvaluating        taskState = "evaluating"
	stateFollowupAsking    taskState = "followup_asking"
	stateFollowupAnswering taskState = "followup_answering"
	stateDone              taskState = "done"
	stateFailed            taskState = "failed"
	stateCancelled         taskState = "cancelled"
)

// sectionTask drives one section through ask, answer, evaluate and
// follow-up rounds. Each task is independent; the only shared state it
// touches is the run-wide question log, accessed through callbacks.
type sectionTask struct {
	section core.Section
	cfg     Config
	gateway core.Gateway
	scorer  core.ComplexityScorer
	prompts *service.PromptRenderer
	plane   *control.Plane
	logger  *logging.Logger

	// priorQuestions snapshots questions already asked in this run,
	// recordQuestion appends to the shared log.
	priorQuestions func() []string
	recordQuestion func(string)

	state  taskState
	result core.SectionResult
}

func newSectionTask(section core.Section, cfg Config, deps taskDeps) *sectionTask {
	return &sectionTask{
		section:        section,
		cfg:            cfg,
		gateway:        deps.gateway,
		scorer:         deps.scorer,
		prompts:        deps.prompts,
		plane:          deps.plane,
		logger:         deps.logger.WithSection(section.Index),
		priorQuestions: deps.priorQuestions,
		recordQuestion: deps.recordQuestion,
		state:          statePending,
		result:         core.SectionResult{SectionIndex: section.Index},
	}
}

// taskDeps bundles the collaborators shared by every task of a run.
type taskDeps struct {
	gateway        core.Gateway
	scorer         core.ComplexityScorer
	prompts        *service.PromptRenderer
	plane          *control.Plane
	logger         *logging.Logger
	priorQuestions func() []string
	recordQuestion func(string)
}

// run executes the state machine to a terminal state. All failures are
// absorbed into the returned result; run never panics the sibling tasks.
func (t *sectionTask) run(ctx context.Context) core.SectionResult {
	// A task that has not started yet skips entirely on cancellation.
	if err := t.checkControl(ctx); err != nil {
		return t.terminate(stateCancelled, err)
	}

	question, answer, err := t.mainExchange(ctx)
	if err != nil {
		return t.terminateOnError(err)
	}
	main := core.Exchange{
		Question: question,
		Answer:   answer,
		Kind:     core.ExchangeMain,
		Ordinal:  0,
	}
	t.result.Main = &main
	t.recordQuestion(question)

	if !t.cfg.EnableFollowup {
		return t.terminate(stateDone, nil)
	}

	if err := t.followupLoop(ctx, answer); err != nil {
		return t.terminateOnError(err)
	}
	return t.terminate(stateDone, nil)
}

// mainExchange runs ASKING then ANSWERING.
func (t *sectionTask) mainExchange(ctx context.Context) (question, answer string, err error) {
	t.state = stateAsking
	prompt, err := t.prompts.RenderStudentQuestion(service.StudentQuestionParams{
		Section:        t.section.Text,
		TargetKeyword:  t.section.TargetKeyword,
		PriorQuestions: t.priorQuestions(),
	})
	if err != nil {
		return "", "", err
	}
	question, err = t.invoke(ctx, core.RoleStudent, prompt)
	if err != nil {
		return "", "", err
	}

	if err := t.checkControl(ctx); err != nil {
		return "", "", err
	}

	t.state = stateAnswering
	prompt, err = t.prompts.RenderTeacherAnswer(service.TeacherAnswerParams{
		Question: question,
		Section:  t.section.Text,
	})
	if err != nil {
		return "", "", err
	}
	answer, err = t.invoke(ctx, core.RoleTeacher, prompt)
	if err != nil {
		return "", "", err
	}
	return question, answer, nil
}

// followupLoop evaluates the latest answer and runs follow-up rounds
// until the score drops below the threshold or the budget is spent.
// Budget exhaustion is not a failure.
func (t *sectionTask) followupLoop(ctx context.Context, answer string) error {
	for ordinal := 1; ; ordinal++ {
		if err := t.checkControl(ctx); err != nil {
			return err
		}

		t.state = stateEvaluating
		score := t.scorer.Score(ctx, answer)
		t.result.ComplexityScore = &score

		if score < t.cfg.FollowupThreshold {
			return nil
		}
		if ordinal > t.cfg.MaxFollowups {
			return nil
		}

		t.logger.Debug("starting follow-up round",
			"ordinal", ordinal,
			"score", score,
		)

		question, followupAnswer, err := t.followupExchange(ctx, answer, ordinal)
		if err != nil {
			return err
		}
		t.result.Followups = append(t.result.Followups, core.Exchange{
			Question: question,
			Answer:   followupAnswer,
			Kind:     core.ExchangeFollowup,
			Ordinal:  ordinal,
		})
		answer = followupAnswer
	}
}

// followupExchange runs one FOLLOWUP_ASKING / FOLLOWUP_ANSWERING round.
// The question prompt is built from the current answer only.
func (t *sectionTask) followupExchange(ctx context.Context, currentAnswer string, ordinal int) (question, answer string, err error) {
	t.state = stateFollowupAsking
	prompt, err := t.prompts.RenderFollowupQuestion(service.FollowupQuestionParams{
		Answer: currentAnswer,
	})
	if err != nil {
		return "", "", err
	}
	question, err = t.invoke(ctx, core.RoleStudent, prompt)
	if err != nil {
		return "", "", err
	}

	if err := t.checkControl(ctx); err != nil {
		return "", "", err
	}

	t.state = stateFollowupAnswering
	prompt, err = t.prompts.RenderFollowupAnswer(service.FollowupAnswerParams{
		Question: question,
		Section:  t.section.Text,
	})
	if err != nil {
		return "", "", err
	}
	answer, err = t.invoke(ctx, core.RoleTeacher, prompt)
	if err != nil {
		return "", "", err
	}
	return question, answer, nil
}

// invoke calls the gateway. Admission control and per-call timeouts are
// the gateway wrapper's concern; see gatedGateway.
func (t *sectionTask) invoke(ctx context.Context, role core.Role, prompt string) (string, error) {
	reply, err := t.gateway.Invoke(ctx, role, prompt, nil)
	if err != nil {
		t.logger.Warn("gateway call failed",
			"role", string(role),
			"state", string(t.state),
			"error", err,
		)
		return "", err
	}
	return reply, nil
}

// checkControl honors pause and cancellation between transitions.
func (t *sectionTask) checkControl(ctx context.Context) error {
	if t.plane == nil {
		return ctx.Err()
	}
	if err := t.plane.CheckCancelled(); err != nil {
		return err
	}
	if err := t.plane.WaitIfPaused(ctx); err != nil {
		return err
	}
	if err := t.plane.CheckCancelled(); err != nil {
		return err
	}
	return ctx.Err()
}

// terminateOnError picks the terminal state the error calls for.
// Partial exchanges stay attached to the result in every case.
func (t *sectionTask) terminateOnError(err error) core.SectionResult {
	if core.IsCategory(err, core.ErrCatCancelled) || errors.Is(err, context.Canceled) {
		return t.terminate(stateCancelled, err)
	}
	return t.terminate(stateFailed, err)
}

func (t *sectionTask) terminate(state taskState, err error) core.SectionResult {
	t.state = state
	switch state {
	case stateDone:
		t.result.Status = core.SectionStatusDone
	case stateCancelled:
		t.result.Status = core.SectionStatusCancelled
	default:
		t.result.Status = core.SectionStatusFailed
	}
	if err != nil {
		t.result.Error = err.Error()
	}
	return t.result
}
