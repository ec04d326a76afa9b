// Package nextflow runs concat graphs on the Nextflow workflow engine.
//
// Each graph node becomes one DSL2 process. A process receives a single
// "ready" value that is only emitted once every predecessor finished, so
// the engine's own scheduler enforces the graph edges. Node paths are kept
// out of the workflow text and passed through a YAML params file.
package nextflow

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
)

// LogFileName collects engine output inside the processing directory.
const LogFileName = "vertical_concat.log"

// Ensure Runner implements the interface.
var _ driven.WorkflowRunner = (*Runner)(nil)

// Params is the serialized parameter set of one submission.
type Params struct {
	MergeBinary string                `yaml:"merge_binary"`
	Nodes       map[string]NodeParams `yaml:"nodes"`
}

// NodeParams are the paths of one merge node.
type NodeParams struct {
	FileList string `yaml:"file_list"`
	Output   string `yaml:"output"`
}

// Runner renders the workflow and params files and submits them.
type Runner struct {
	runner   driven.CommandRunner
	settings domain.ConcatSettings
}

// NewRunner creates a Nextflow workflow runner.
func NewRunner(runner driven.CommandRunner, settings domain.ConcatSettings) *Runner {
	return &Runner{runner: runner, settings: settings}
}

// Run writes spec.WorkflowFile and spec.ParamsFile and executes the workflow
// from the processing directory.
func (r *Runner) Run(ctx context.Context, spec driven.WorkflowSpec) error {
	if spec.Graph == nil || len(spec.Graph.Stages) == 0 {
		return fmt.Errorf("%w: empty concat graph", domain.ErrInvalidInput)
	}

	script, err := RenderWorkflow(spec.Graph)
	if err != nil {
		return err
	}
	if err := os.WriteFile(spec.WorkflowFile, script, 0o644); err != nil {
		return fmt.Errorf("write workflow: %w", err)
	}

	params, err := yaml.Marshal(BuildParams(spec.Graph, spec.MergeBinary))
	if err != nil {
		return fmt.Errorf("encode workflow params: %w", err)
	}
	if err := os.WriteFile(spec.ParamsFile, params, 0o644); err != nil {
		return fmt.Errorf("write workflow params: %w", err)
	}

	return r.runner.Run(ctx, driven.Command{
		Description: fmt.Sprintf("Running %d concat nodes over %d stages",
			len(spec.Graph.Nodes()), len(spec.Graph.Stages)),
		Name:    r.settings.NextflowBinary,
		Args:    r.Args(spec),
		Dir:     spec.Graph.ProcessingDir,
		LogFile: filepath.Join(spec.Graph.ProcessingDir, LogFileName),
	})
}

// Args builds the engine argument list.
func (r *Runner) Args(spec driven.WorkflowSpec) []string {
	args := []string{"run", spec.WorkflowFile, "-params-file", spec.ParamsFile}
	if r.settings.NextflowConfig != "" {
		args = append(args, "-c", r.settings.NextflowConfig)
	}
	if spec.Resume {
		args = append(args, "-resume")
	}
	return args
}

// BuildParams maps every node to its file list and output.
func BuildParams(graph *domain.ConcatGraph, mergeBinary string) Params {
	p := Params{MergeBinary: mergeBinary, Nodes: make(map[string]NodeParams)}
	for _, node := range graph.Nodes() {
		p.Nodes[node.ID.Name()] = NodeParams{FileList: node.FileList, Output: node.Output}
	}
	return p
}

type processView struct {
	Name string
}

type callView struct {
	Name  string
	Ready string
}

var workflowTemplate = template.Must(template.New("workflow").Parse(`#!/usr/bin/env nextflow
nextflow.enable.dsl=2
{{range .Processes}}
process {{.Name}} {
    input:
    val ready

    output:
    val true

    script:
    """
    ${params.merge_binary} concat --allow-overlaps --remove-duplicates \
        --file-list ${params.nodes.{{.Name}}.file_list} \
        -O z -o ${params.nodes.{{.Name}}.output} \
    && ${params.merge_binary} index --csi ${params.nodes.{{.Name}}.output}
    """
}
{{end}}
workflow {
{{- range .Calls}}
    {{.Name}}({{.Ready}})
{{- end}}
}
`))

// RenderWorkflow produces the DSL2 workflow text for graph.
func RenderWorkflow(graph *domain.ConcatGraph) ([]byte, error) {
	var processes []processView
	var calls []callView
	for _, node := range graph.Nodes() {
		name := node.ID.Name()
		processes = append(processes, processView{Name: name})
		calls = append(calls, callView{Name: name, Ready: readyChannel(node.DependsOn)})
	}

	var buf bytes.Buffer
	err := workflowTemplate.Execute(&buf, struct {
		Processes []processView
		Calls     []callView
	}{processes, calls})
	if err != nil {
		return nil, fmt.Errorf("render workflow: %w", err)
	}
	return buf.Bytes(), nil
}

// readyChannel emits once all deps completed; stage 0 starts immediately.
func readyChannel(deps []domain.NodeID) string {
	if len(deps) == 0 {
		return "Channel.of(true)"
	}
	outs := make([]string, len(deps))
	for i, dep := range deps {
		outs[i] = dep.Name() + ".out"
	}
	if len(outs) == 1 {
		return outs[0] + ".collect()"
	}
	return outs[0] + ".mix(" + strings.Join(outs[1:], ", ") + ").collect()"
}
