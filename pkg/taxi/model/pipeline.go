package model

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

// artifactMagic prefixes every serialized pipeline.
var artifactMagic = []byte("TAXIFARE")

// ArtifactVersion is bumped whenever the serialized layout changes. Artifacts
// written with another version are rejected on load.
const ArtifactVersion = 1

// Pipeline chains the preprocessor and the regressor. Its fitted state is
// everything needed to predict and is what gets persisted.
type Pipeline struct {
	Pre *Preprocessor
	Reg *Regressor
}

// BuildModel assembles an unfitted pipeline over the given column sets.
func BuildModel(categorical, numeric []string, opts ...Option) (*Pipeline, error) {
	params := DefaultParams()
	for _, opt := range opts {
		opt(&params)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	pre, err := NewPreprocessor(categorical, numeric)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Pre: pre, Reg: NewRegressor(params)}, nil
}

// Fitted reports whether both stages have been fitted.
func (p *Pipeline) Fitted() bool {
	return p.Pre.Fitted && p.Reg.Fitted()
}

// Fit learns imputation statistics, encodings and trees from x and y. Any
// previously fitted state is discarded.
func (p *Pipeline) Fit(x *table.Table, y []float64) error {
	if x.NumRows() != len(y) {
		return exception.Newf(exception.KindModel, moduleName, "features have %d rows, target has %d", x.NumRows(), len(y))
	}
	if len(y) == 0 {
		return exception.Newf(exception.KindDataQuality, moduleName, "cannot fit on an empty training set")
	}

	pre, err := NewPreprocessor(p.Pre.Categorical, p.Pre.Numeric)
	if err != nil {
		return err
	}
	reg := NewRegressor(p.Reg.Params)
	p.Pre, p.Reg = pre, reg

	if err := pre.Fit(x); err != nil {
		return err
	}
	matrix, err := pre.Transform(x)
	if err != nil {
		return err
	}
	if err := reg.Fit(matrix, y); err != nil {
		return err
	}
	logger.Infof("Model fitted on %d rows with %d boosting iterations.", len(y), reg.NIter())
	return nil
}

// Predict returns one prediction per row of x, in row order.
func (p *Pipeline) Predict(x *table.Table) ([]float64, error) {
	if !p.Fitted() {
		return nil, exception.Newf(exception.KindModel, moduleName, "pipeline used before fit")
	}
	if x.NumRows() == 0 {
		return []float64{}, nil
	}
	matrix, err := p.Pre.Transform(x)
	if err != nil {
		return nil, err
	}
	return p.Reg.Predict(matrix)
}

// Save writes the fitted pipeline to w.
func (p *Pipeline) Save(w io.Writer) error {
	if !p.Fitted() {
		return exception.Newf(exception.KindModel, moduleName, "cannot save an unfitted pipeline")
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(artifactMagic); err != nil {
		return exception.New(exception.KindIO, moduleName, "write artifact header", err)
	}
	enc := gob.NewEncoder(bw)
	if err := enc.Encode(ArtifactVersion); err != nil {
		return exception.New(exception.KindIO, moduleName, "write artifact version", err)
	}
	if err := enc.Encode(p); err != nil {
		return exception.New(exception.KindIO, moduleName, "encode pipeline", err)
	}
	if err := bw.Flush(); err != nil {
		return exception.New(exception.KindIO, moduleName, "flush artifact", err)
	}
	return nil
}

// Load reads a pipeline written by Save.
func Load(r io.Reader) (*Pipeline, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(artifactMagic))
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "read artifact header", err)
	}
	if !bytes.Equal(header, artifactMagic) {
		return nil, exception.Newf(exception.KindIO, moduleName, "not a model artifact")
	}
	dec := gob.NewDecoder(br)
	var version int
	if err := dec.Decode(&version); err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "read artifact version", err)
	}
	if version != ArtifactVersion {
		return nil, exception.Newf(exception.KindIO, moduleName,
			"artifact version %d is not supported by this build (expected %d)", version, ArtifactVersion)
	}
	p := &Pipeline{}
	if err := dec.Decode(p); err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "decode pipeline", err)
	}
	if p.Pre == nil || p.Reg == nil || !p.Fitted() {
		return nil, exception.Newf(exception.KindIO, moduleName, "artifact holds an unfitted pipeline")
	}
	return p, nil
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(%s, trees=%d)", p.Pre, p.Reg.NIter())
}
