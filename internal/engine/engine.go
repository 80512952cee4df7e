// Package engine implements the fill-and-validate orchestrator: the
// state machine that drives discovery, resolution, clarification, the
// fill itself, and bounded validation retries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"formflow/internal/common"
	"formflow/internal/model"
	"formflow/internal/service"
)

// Config holds configuration options for the fill engine.
type Config struct {
	// MaxAttempts bounds validation retries per session.
	MaxAttempts int
	// OutputDir is where filled artifacts are written.
	OutputDir string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 2,
		OutputDir:   "out",
	}
}

// Engine orchestrates a fill session. It is the sole writer of the
// FillSession; every other component returns values.
type Engine struct {
	discoverer Discoverer
	resolver   Resolver
	clarifier  Clarifier
	filler     Filler
	storage    service.Storage
	cfg        Config
}

// New creates a fill engine. storage may be nil to skip archiving.
func New(discoverer Discoverer, resolver Resolver, clarifier Clarifier, filler Filler, storage service.Storage, cfg Config) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultConfig().OutputDir
	}
	return &Engine{
		discoverer: discoverer,
		resolver:   resolver,
		clarifier:  clarifier,
		filler:     filler,
		storage:    storage,
		cfg:        cfg,
	}
}

// Run executes one session to a terminal state. The returned session is
// always archived (best effort) before returning; a non-nil error means
// the session was aborted rather than reported.
func (e *Engine) Run(ctx context.Context, sessionID, templatePath, annotationPath string) (*model.FillSession, error) {
	session := model.NewFillSession(sessionID)
	session.OutputPath = filepath.Join(e.cfg.OutputDir, sessionID+filepath.Ext(templatePath))

	slog.Info("Starting fill session",
		"session_id", sessionID,
		"template", templatePath,
		"output", session.OutputPath)

	// scope limits which fields a retry re-resolves; nil means all.
	var scope map[string]bool
	// pending carries unresolved fields into the Clarifying state.
	var pending []model.FieldResolution
	// retryIssues are the blocking issues the current retry addresses.
	var retryIssues []model.ValidationIssue

	var runErr error

	for !session.State.Terminal() && runErr == nil {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		slog.Debug("Session state", "session_id", sessionID, "state", session.State)

		switch session.State {
		case model.StateDiscovering:
			fields, issues, err := e.discoverer.Discover(ctx, templatePath, annotationPath)
			if err != nil {
				runErr = fmt.Errorf("discovery failed: %w", err)
				break
			}
			session.Fields = fields
			session.Issues = append(session.Issues, issues...)
			session.State = model.StateResolving

		case model.StateResolving:
			resolutions, err := e.resolver.ResolveAll(ctx, e.scopedFields(session, scope))
			if err != nil {
				runErr = fmt.Errorf("resolution failed: %w", err)
				break
			}

			pending = pending[:0]
			for _, res := range resolutions {
				if res.Status == model.StatusResolved {
					session.ResolvedValues[res.Field.Key] = *res.Value
				} else {
					pending = append(pending, res)
				}
			}

			if len(pending) > 0 {
				session.State = model.StateClarifying
			} else {
				session.State = model.StateFilling
			}

		case model.StateClarifying:
			values, issues, err := e.clarifier.Clarify(ctx, pending)
			// Values gathered before an abandonment are kept; the session
			// simply never advances to Filling.
			for _, v := range values {
				session.ResolvedValues[v.FieldKey] = v
			}
			if err != nil {
				runErr = err
				break
			}

			session.Issues = append(session.Issues, issues...)
			if len(session.BlockingIssues()) > 0 {
				// A field exhausted its clarification attempts.
				session.State = model.StateReporting
			} else {
				session.State = model.StateFilling
			}

		case model.StateFilling:
			if missing := e.unresolvedKeys(session); len(missing) > 0 {
				runErr = fmt.Errorf("internal invariant broken: entering fill with unresolved fields %v", missing)
				break
			}
			if err := e.filler.Fill(ctx, templatePath, session.OutputPath, session.Values()); err != nil {
				session.Issues = append(session.Issues, model.ValidationIssue{
					Severity:    model.SeverityBlocking,
					Description: fmt.Sprintf("%v: %v", common.ErrWriteFailure, err),
				})
				session.State = model.StateReporting
				break
			}
			session.State = model.StateValidating

		case model.StateValidating:
			issues := e.validate(session)

			var blocking []model.ValidationIssue
			for _, issue := range issues {
				if issue.Blocking() {
					blocking = append(blocking, issue)
				} else {
					session.Issues = append(session.Issues, issue)
				}
			}

			switch {
			case len(blocking) == 0:
				session.State = model.StateDone
			case session.AttemptCount < e.cfg.MaxAttempts && allRefixable(blocking):
				retryIssues = blocking
				session.State = model.StateRetrying
			default:
				session.Issues = append(session.Issues, blocking...)
				session.State = model.StateReporting
			}

		case model.StateRetrying:
			session.AttemptCount++

			scope = make(map[string]bool)
			target := model.RetryClarifying
			for _, issue := range retryIssues {
				for _, key := range issue.FieldKeys {
					scope[key] = true
					delete(session.ResolvedValues, key)
				}
				if issue.RetryTarget == model.RetryResolving {
					target = model.RetryResolving
				}
			}

			slog.Info("Retrying with narrowed scope",
				"session_id", sessionID,
				"attempt", session.AttemptCount,
				"fields", len(scope),
				"target", target)

			if target == model.RetryResolving {
				session.State = model.StateResolving
			} else {
				pending = e.pendingForRetry(session, scope, retryIssues)
				session.State = model.StateClarifying
			}
			retryIssues = nil

		default:
			runErr = fmt.Errorf("unknown session state: %s", session.State)
		}
	}

	session.FinishedAt = time.Now()
	e.archive(ctx, session)

	if runErr != nil {
		slog.Error("Session aborted",
			"session_id", sessionID,
			"state", session.State,
			"error", runErr)
		return session, runErr
	}

	slog.Info("Session finished",
		"session_id", sessionID,
		"state", session.State,
		"attempts", session.AttemptCount)

	return session, nil
}

// scopedFields returns the fields a (re-)resolution pass covers: all
// fields without a value, limited to the retry scope when one is set.
func (e *Engine) scopedFields(session *model.FillSession, scope map[string]bool) []model.RequiredField {
	var out []model.RequiredField
	for _, f := range session.Fields {
		if scope != nil && !scope[f.Key] {
			continue
		}
		if _, done := session.ResolvedValues[f.Key]; done {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (e *Engine) unresolvedKeys(session *model.FillSession) []string {
	var out []string
	for _, f := range session.Fields {
		if _, ok := session.ResolvedValues[f.Key]; !ok {
			out = append(out, f.Key)
		}
	}
	return out
}

// pendingForRetry builds clarification work for fields whose filled
// values validation rejected. The issue description rides along in the
// context hint so the user sees why the value came back.
func (e *Engine) pendingForRetry(session *model.FillSession, scope map[string]bool, issues []model.ValidationIssue) []model.FieldResolution {
	reason := make(map[string]string)
	for _, issue := range issues {
		for _, key := range issue.FieldKeys {
			reason[key] = issue.Description
		}
	}

	var out []model.FieldResolution
	for _, f := range session.Fields {
		if !scope[f.Key] {
			continue
		}
		field := f
		if r, ok := reason[f.Key]; ok {
			if field.ContextHint != "" {
				field.ContextHint += "; "
			}
			field.ContextHint += r
		}
		out = append(out, model.FieldResolution{Field: field, Status: model.StatusMissing})
	}
	return out
}

func allRefixable(issues []model.ValidationIssue) bool {
	for _, issue := range issues {
		if !issue.Refixable() || len(issue.FieldKeys) == 0 {
			return false
		}
	}
	return true
}

func (e *Engine) archive(ctx context.Context, session *model.FillSession) {
	if e.storage == nil {
		return
	}
	// Archive even on cancellation; use a detached context with a bound.
	saveCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	err := common.WithRetry(saveCtx, func() error {
		return e.storage.SaveSession(saveCtx, session)
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
	if err != nil {
		slog.Warn("Failed to archive session",
			"session_id", session.SessionID,
			"error", err)
	}
}

// Abandoned reports whether a run error means the user walked away at
// the clarification boundary.
func Abandoned(err error) bool {
	return errors.Is(err, common.ErrSessionAbandoned)
}
