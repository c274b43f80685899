package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/completion"
	"github.com/handiism/problem-archiver/internal/credential"
	ioutils "github.com/handiism/problem-archiver/internal/io"
	"github.com/handiism/problem-archiver/internal/metrics"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/progress"
	"github.com/handiism/problem-archiver/internal/retry"
	"github.com/handiism/problem-archiver/internal/transcode"
)

// ItemReport is the outcome of processing one item.
type ItemReport struct {
	Item     model.Item
	Status   completion.Status
	Outcomes []model.Outcome
	Reasons  []string
	// Err is set when the result could not be persisted.
	Err error
}

// itemRun carries the state of one item through its pipeline.
type itemRun struct {
	m        *Manager
	cred     credential.Credential
	item     model.Item
	paths    model.ItemPaths
	reasons  []string
	fatal    bool
	outcomes []model.Outcome
}

// processItem runs detail, description, then every requested sub-resource,
// evaluates the verdict and records it. It never returns an error: failures
// are reflected in the report and the progress store.
func (m *Manager) processItem(ctx context.Context, cred credential.Credential, item model.Item) ItemReport {
	defer m.processed.Add(1)

	run := &itemRun{
		m:     m,
		cred:  cred,
		item:  item,
		paths: model.NewItemPaths(m.settings.OutputDir, item),
	}
	logger := m.logger.With(zap.Int("item_id", item.ID), zap.String("slug", item.Slug))
	logger.Debug("processing item")

	descriptionOK := false
	detail, err := fetch(ctx, run, "detail", func(ctx context.Context) (catalog.Detail, error) {
		return m.source.FetchDetail(ctx, cred, item.Slug)
	})
	if err == nil {
		if err = run.writeDescription(ctx, detail); err != nil {
			run.reasons = append(run.reasons, fmt.Sprintf("description: %v", err))
		} else {
			descriptionOK = true
		}
	}
	if descriptionOK {
		run.outcomes = append(run.outcomes, model.Outcome{Kind: model.KindDescription, Total: 1, Achieved: 1})
		m.metrics.Fetch(string(model.KindDescription), metrics.ResultOK)
	} else {
		run.outcomes = append(run.outcomes, model.Outcome{Kind: model.KindDescription, Total: 1})
		m.metrics.Fetch(string(model.KindDescription), metrics.ResultError)
	}

	if descriptionOK {
		if m.requested.Templates {
			run.templates(ctx, detail.Variants)
		}
		if m.requested.CommunityAnswers {
			run.communityAnswers(ctx, detail.Variants)
		}
		if m.requested.OfficialAnswer {
			run.officialAnswer(ctx)
		}
	}

	verdict := completion.Evaluate(descriptionOK, run.outcomes, m.requested)
	if run.fatal && verdict.Status == completion.StatusComplete {
		verdict.Status = completion.StatusFailed
	}
	report := ItemReport{
		Item:     item,
		Status:   verdict.Status,
		Outcomes: run.outcomes,
		Reasons:  append(verdict.Reasons, run.reasons...),
	}

	if err := m.store.Record(progress.Result{
		Item:      item,
		Succeeded: report.Status == completion.StatusComplete,
		Reasons:   report.Reasons,
		Outcomes:  report.Outcomes,
	}); err != nil {
		report.Err = err
		logger.Error("persist progress", zap.Error(err))
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not record progress for %04d: %v", item.ID, err), Level: LevelError})
	}

	m.metrics.Item(string(report.Status))
	m.progress(statusLine(report))
	logger.Info("item finished",
		zap.String("status", string(report.Status)),
		zap.Strings("reasons", report.Reasons),
	)
	return report
}

// fetch wraps one catalog call in a retry executor and classifies its
// final error. A fatal error aborts the run.
func fetch[T any](ctx context.Context, run *itemRun, op string, call func(ctx context.Context) (T, error)) (T, error) {
	if run.fatal {
		var zero T
		return zero, errRunAborted
	}
	kind, _, _ := strings.Cut(op, "/")
	v, err := retry.Do(ctx, run.m.newRetry(kind), call)
	if err != nil {
		if catalog.IsFatal(err) {
			run.fatal = true
			run.m.abort(err)
		}
		if !errors.Is(err, catalog.ErrNoAnswer) {
			run.reasons = append(run.reasons, fmt.Sprintf("%s: %v", op, err))
		}
	}
	return v, err
}

var errRunAborted = errors.New("run aborted")

func (r *itemRun) templates(ctx context.Context, variants []model.Variant) {
	outcome := model.Outcome{Kind: model.KindTemplates, Total: len(variants)}
	files := r.paths.TemplateFiles(variants)
	for _, v := range variants {
		code, err := fetch(ctx, r, "template/"+v.Slug, func(ctx context.Context) (string, error) {
			return r.m.source.FetchTemplate(ctx, r.cred, r.item.Slug, v)
		})
		if err == nil {
			err = ioutils.WriteFile(r.m.fs, files[v.Slug], []byte(code))
			if err != nil {
				r.reasons = append(r.reasons, fmt.Sprintf("write template %s: %v", v.Slug, err))
			}
		}
		if err != nil {
			r.m.metrics.Fetch(string(model.KindTemplates), metrics.ResultError)
			continue
		}
		outcome.Achieved++
		r.m.metrics.Fetch(string(model.KindTemplates), metrics.ResultOK)
	}
	r.outcomes = append(r.outcomes, outcome)
}

func (r *itemRun) communityAnswers(ctx context.Context, variants []model.Variant) {
	outcome := model.Outcome{Kind: model.KindCommunityAnswer, Total: len(variants)}
	for _, v := range variants {
		doc, err := fetch(ctx, r, "community/"+v.Slug, func(ctx context.Context) (model.Document, error) {
			return r.m.source.FetchCommunityAnswer(ctx, r.cred, r.item.Slug, v)
		})
		switch {
		case errors.Is(err, catalog.ErrNoAnswer):
			outcome.Total--
			r.m.metrics.Fetch(string(model.KindCommunityAnswer), metrics.ResultAbsent)
			continue
		case err == nil:
			err = r.writeAnswer(ctx, doc, r.paths.CommunityVariantDir(v), r.paths.CommunityFile(v))
		}
		if err != nil {
			r.m.metrics.Fetch(string(model.KindCommunityAnswer), metrics.ResultError)
			continue
		}
		outcome.Achieved++
		r.m.metrics.Fetch(string(model.KindCommunityAnswer), metrics.ResultOK)
	}
	r.outcomes = append(r.outcomes, outcome)
}

func (r *itemRun) officialAnswer(ctx context.Context) {
	outcome := model.Outcome{Kind: model.KindOfficialAnswer, Total: 1}
	doc, err := fetch(ctx, r, "official", func(ctx context.Context) (model.Document, error) {
		return r.m.source.FetchOfficialAnswer(ctx, r.cred, r.item.Slug)
	})
	if errors.Is(err, catalog.ErrNoAnswer) {
		outcome.Total = 0
		r.m.metrics.Fetch(string(model.KindOfficialAnswer), metrics.ResultAbsent)
		r.outcomes = append(r.outcomes, outcome)
		return
	}
	if err == nil {
		err = r.writeAnswer(ctx, doc, r.paths.OfficialDir, r.paths.OfficialFile())
	}
	if err != nil {
		r.m.metrics.Fetch(string(model.KindOfficialAnswer), metrics.ResultError)
	} else {
		outcome.Achieved = 1
		r.m.metrics.Fetch(string(model.KindOfficialAnswer), metrics.ResultOK)
	}
	r.outcomes = append(r.outcomes, outcome)
}

// writeDescription localises the description's media and writes it once per
// configured format.
func (r *itemRun) writeDescription(ctx context.Context, detail catalog.Detail) error {
	imagesDir := filepath.Join(r.paths.DescriptionDir, model.ImagesDirName)
	_, mapping := r.m.rewriter.Rewrite(ctx, detail.Document, imagesDir, model.ImagesDirName)

	for _, format := range r.m.formats {
		content, err := transcode.Render(format, detail.Document.Body, mapping)
		if err != nil {
			return err
		}
		switch format {
		case model.FormatLightweight:
			content = markdownDescription(r.item, detail.Metadata, content)
		case model.FormatStructured:
			content = htmlDescription(r.item, content)
		}
		if err := ioutils.WriteFile(r.m.fs, r.paths.DescriptionFile(format), []byte(content)); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
	}
	return nil
}

// writeAnswer localises an answer's media and writes its markdown body.
// Answers are authored in markdown, so only media references are rewritten.
func (r *itemRun) writeAnswer(ctx context.Context, doc model.Document, dir, file string) error {
	rewritten, _ := r.m.rewriter.Rewrite(ctx, doc, filepath.Join(dir, model.ImagesDirName), model.ImagesDirName)
	body := strings.TrimSpace(rewritten.Body) + "\n"
	if err := ioutils.WriteFile(r.m.fs, file, []byte(body)); err != nil {
		r.reasons = append(r.reasons, fmt.Sprintf("write %s: %v", filepath.Base(file), err))
		return err
	}
	return nil
}

// statusLine renders the one-line per-item status.
func statusLine(report ItemReport) ProgressEvent {
	marker, level := "✓", LevelSuccess
	switch {
	case report.Status == completion.StatusFailed:
		marker, level = "✗", LevelError
	case report.Status == completion.StatusPartial || report.Err != nil:
		marker, level = "!", LevelWarning
	}

	parts := []string{fmt.Sprintf("%s %04d %s", marker, report.Item.ID, report.Item.Slug)}
	for _, o := range report.Outcomes {
		if o.Kind == model.KindDescription {
			continue
		}
		parts = append(parts, o.String())
	}
	msg := strings.Join(parts, "  ")
	if report.Status == completion.StatusFailed && len(report.Reasons) > 0 {
		msg += "  (" + strings.Join(report.Reasons, "; ") + ")"
	}
	return ProgressEvent{Message: msg, Level: level}
}
