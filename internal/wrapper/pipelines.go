package wrapper

import (
	"fmt"
	"strings"

	"github.com/vintner-cli/vintner/internal/pipeline"
)

// Env returns the substitution values shared by every pipeline operating on
// a wrapper. Engine and paths come from the bundle so scripts never hardcode
// locations.
func Env(w *Wrapper, enginesDir string) map[string]string {
	return map[string]string{
		"WRAPPER_NAME": w.Name,
		"WRAPPER_PATH": w.Path,
		"ENGINE":       w.Engine,
		"ENGINES_DIR":  enginesDir,
		"WINEPREFIX":   PrefixPath(w.Path),
		"WINE_BIN":     WineBin(w.Path),
	}
}

// CreatePipeline builds the pipeline that turns a fresh bundle skeleton into
// a working wrapper: unpack the engine, then boot the prefix.
func CreatePipeline(w *Wrapper, resolver pipeline.ScriptResolver) (*pipeline.Pipeline, error) {
	extract, err := pipeline.BuildStep("extract engine", pipeline.Named("extract-engine"), pipeline.StepOptions{}, resolver)
	if err != nil {
		return nil, err
	}
	boot, err := pipeline.BuildStep("initialise prefix", pipeline.Named("create-prefix"), pipeline.StepOptions{}, resolver)
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Name: fmt.Sprintf("create %s", w.Name),
		Jobs: []*pipeline.Job{
			{Name: "engine", Steps: []*pipeline.Step{extract}},
			{Name: "prefix", Steps: []*pipeline.Step{boot}},
		},
	}, nil
}

// WinetricksPipeline builds the pipeline that runs winetricks verbs inside
// the wrapper's prefix.
func WinetricksPipeline(w *Wrapper, verbs []string, resolver pipeline.ScriptResolver) (*pipeline.Pipeline, error) {
	if len(verbs) == 0 {
		return nil, fmt.Errorf("winetricks: at least one verb is required")
	}
	step, err := pipeline.BuildStep("winetricks "+strings.Join(verbs, " "),
		pipeline.Named("winetricks"),
		pipeline.StepOptions{Env: map[string]string{"VERBS": strings.Join(verbs, " ")}},
		resolver)
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Name: fmt.Sprintf("winetricks %s", w.Name),
		Jobs: []*pipeline.Job{{Name: "winetricks", Steps: []*pipeline.Step{step}}},
	}, nil
}

// WinecfgPipeline builds the single-step pipeline that opens winecfg for a
// wrapper.
func WinecfgPipeline(w *Wrapper, resolver pipeline.ScriptResolver) (*pipeline.Pipeline, error) {
	step, err := pipeline.BuildStep("winecfg", pipeline.Named("winecfg"), pipeline.StepOptions{}, resolver)
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Name: fmt.Sprintf("winecfg %s", w.Name),
		Jobs: []*pipeline.Job{{Name: "winecfg", Steps: []*pipeline.Step{step}}},
	}, nil
}
