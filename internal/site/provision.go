package site

import (
	"context"

	"github.com/fieldpress/pressroom/internal/renames"
)

// stageProvisionTheme resolves the configured theme into the build
// workspace. Remote themes clone fresh every run; failures here are fatal
// since every later stage needs templates.
func stageProvisionTheme(ctx context.Context, bs *BuildState) error {
	theme, err := provisionTheme(ctx, bs.Builder.cfg.Theme, bs.Builder.workspace.Path())
	if err != nil {
		return newFatalStageError(StageProvisionTheme, err)
	}
	bs.Theme = theme
	return nil
}

// stagePrepareOutput initializes the staging directory all render stages
// write into. The live output directory is untouched until promotion.
func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	if err := bs.Builder.beginStaging(); err != nil {
		return newFatalStageError(StagePrepareOutput, err)
	}
	return nil
}

// stageApplyRenames runs the configured rename table against the content
// directory. It must run before discovery so renamed files are walked under
// their final names.
func stageApplyRenames(_ context.Context, bs *BuildState) error {
	summary, err := renames.Apply(bs.Builder.cfg.Content.Dir, bs.Builder.cfg.Renames)
	if err != nil {
		return newFatalStageError(StageApplyRenames, err)
	}
	bs.Report.Renamed = summary.Renamed
	return nil
}
