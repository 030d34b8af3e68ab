package service

import (
	"fmt"
	"maps"
	"sort"

	"github.com/Strob0t/PipeKit/internal/domain"
	"github.com/Strob0t/PipeKit/internal/domain/pipeline"
)

// PipelineService is the read-only catalog of pipeline definitions loaded
// at startup.
type PipelineService struct {
	pipelines map[string]pipeline.Pipeline
}

// NewPipelineService indexes the given definitions by name.
func NewPipelineService(defs []pipeline.Pipeline) (*PipelineService, error) {
	pipelines := make(map[string]pipeline.Pipeline, len(defs))
	for _, def := range defs {
		if _, ok := pipelines[def.Name]; ok {
			return nil, fmt.Errorf("duplicate pipeline %q", def.Name)
		}
		pipelines[def.Name] = def
	}
	return &PipelineService{pipelines: pipelines}, nil
}

// Get returns the pipeline definition by name.
func (s *PipelineService) Get(name string) (pipeline.Pipeline, error) {
	def, ok := s.pipelines[name]
	if !ok {
		return pipeline.Pipeline{}, fmt.Errorf("pipeline %q: %w", name, domain.ErrNotFound)
	}
	return def, nil
}

// Resolve returns the pipeline by name, with an optional ad-hoc reference
// file attached to the first step. The stored definition is never mutated.
func (s *PipelineService) Resolve(name, referenceFile string) (pipeline.Pipeline, error) {
	def, err := s.Get(name)
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	if referenceFile != "" {
		refs := maps.Clone(def.RequiredReferenceFile)
		if refs == nil {
			refs = make(map[uint32]string, 1)
		}
		refs[1] = referenceFile
		def.RequiredReferenceFile = refs
	}
	return def, nil
}

// List returns all pipeline definitions sorted by name.
func (s *PipelineService) List() []pipeline.Pipeline {
	defs := make([]pipeline.Pipeline, 0, len(s.pipelines))
	for _, def := range s.pipelines {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
