package loader

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DocumentParseError reports that the source bytes could not be parsed into a glTF document.
// No asset is produced.
type DocumentParseError struct {
	Binary bool
	Err    error
}

func (e *DocumentParseError) Error() string {
	kind := "json"
	if e.Binary {
		kind = "binary"
	}
	return fmt.Sprintf("unable to parse %s glTF: %v", kind, e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// UnsupportedFeatureError reports document content the importer cannot express,
// such as a primitive topology without a render equivalent.
type UnsupportedFeatureError struct {
	Feature string
	Detail  string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Detail)
}

// ResolutionError reports a reference that could not be mapped to an entity, such as a skin joint
// naming a node outside the active scene.
type ResolutionError struct {
	Skin  int
	Joint int
	Node  int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("skin %d joint %d references node %d which has no entity", e.Skin, e.Joint, e.Node)
}

// MalformedDocumentError reports structurally invalid content: out-of-range indices, missing
// required fields or a node graph that is not a forest.
type MalformedDocumentError struct {
	What string
}

func (e *MalformedDocumentError) Error() string {
	return "malformed glTF: " + e.What
}

// Feature names carried by UnsupportedFeatureError.
const (
	FeatureTopology           = "primitive topology"
	FeatureIndexType          = "index type"
	FeatureElementType        = "vertex element type"
	FeatureAttribute          = "vertex attribute"
	FeatureSparseAccessor     = "sparse accessor"
	FeatureSpecularGlossiness = "material model"
)

// importErrors collects every problem found during one import so that all of them are reported
// together. Each error is logged when it is recorded.
type importErrors struct {
	logger *zap.Logger
	errs   []error
}

func newImportErrors(logger *zap.Logger) *importErrors {
	return &importErrors{logger: logger}
}

func (ie *importErrors) add(err error) {
	ie.logger.Error("glTF import error", zap.Error(err))
	ie.errs = append(ie.errs, err)
}

func (ie *importErrors) unsupported(feature, format string, args ...any) {
	ie.add(&UnsupportedFeatureError{Feature: feature, Detail: fmt.Sprintf(format, args...)})
}

func (ie *importErrors) malformed(format string, args ...any) {
	ie.add(&MalformedDocumentError{What: fmt.Sprintf(format, args...)})
}

func (ie *importErrors) failed() bool {
	return len(ie.errs) > 0
}

func (ie *importErrors) err() error {
	return errors.Join(ie.errs...)
}
