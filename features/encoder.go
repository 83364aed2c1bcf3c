package features

import (
	"fmt"

	"github.com/botirk38/projectmatch/types"
	"go.uber.org/zap"
)

// Encoder builds hybrid vectors: the semantic vector followed by one 0/1 flag
// per category bucket and one per technology slot.
type Encoder struct {
	categories   Classifier
	technologies Classifier
	semanticDims int
	catIndex     map[Bucket]int
	techIndex    map[Bucket]int
	logger       *zap.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithCategoryClassifier replaces the keyword category classifier.
func WithCategoryClassifier(c Classifier) EncoderOption {
	return func(e *Encoder) { e.categories = c }
}

// WithTechnologyClassifier replaces the technology table.
func WithTechnologyClassifier(c Classifier) EncoderOption {
	return func(e *Encoder) { e.technologies = c }
}

// WithLogger sets the logger that reports dropped technologies.
func WithLogger(logger *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEncoder creates an encoder for semantic vectors of semanticDims entries.
func NewEncoder(semanticDims int, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		categories:   NewKeywordClassifier(),
		technologies: NewTableClassifier(),
		semanticDims: semanticDims,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.catIndex = indexOf(e.categories.Buckets())
	e.techIndex = indexOf(e.technologies.Buckets())
	return e
}

func indexOf(buckets []Bucket) map[Bucket]int {
	index := make(map[Bucket]int, len(buckets))
	for i, b := range buckets {
		index[b] = i
	}
	return index
}

// StructuredDimensions is the length of the structured half.
func (e *Encoder) StructuredDimensions() int {
	return len(e.catIndex) + len(e.techIndex)
}

// Dimensions is the length of a hybrid vector.
func (e *Encoder) Dimensions() int {
	return e.semanticDims + e.StructuredDimensions()
}

// Structured returns the 0/1 feature vector of the given categories and technologies.
func (e *Encoder) Structured(categories, technologies []string) types.Vector {
	vec := make(types.Vector, e.StructuredDimensions())
	offset := len(e.catIndex)

	for _, name := range categories {
		for _, b := range e.categories.Classify(name) {
			if i, ok := e.catIndex[b]; ok {
				vec[i] = 1
			}
		}
	}

	for _, name := range technologies {
		matched := e.technologies.Classify(name)
		if len(matched) == 0 {
			e.logger.Debug("dropping unknown technology", zap.String("technology", name))
			continue
		}
		for _, b := range matched {
			if i, ok := e.techIndex[b]; ok {
				vec[offset+i] = 1
			}
		}
	}
	return vec
}

// Encode returns the hybrid vector of project.
func (e *Encoder) Encode(project types.Project) (types.Vector, error) {
	if len(project.Vector) == 0 {
		return nil, fmt.Errorf("project %s: %w", project.ID, types.ErrMissingVector)
	}
	if len(project.Vector) != e.semanticDims {
		return nil, fmt.Errorf("project %s has %d dimensions, want %d: %w",
			project.ID, len(project.Vector), e.semanticDims, types.ErrDimensionMismatch)
	}

	hybrid := make(types.Vector, 0, e.Dimensions())
	hybrid = append(hybrid, project.Vector...)
	hybrid = append(hybrid, e.Structured(project.Categories, project.Technologies)...)
	return hybrid, nil
}
